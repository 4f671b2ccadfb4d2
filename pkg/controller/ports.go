package controller

import (
	"context"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/orchestrator"
	"github.com/aretw0/deckwright/pkg/persistence"
)

// Orchestrator is the part of the remote API the controller drives.
// *orchestrator.Client satisfies it.
type Orchestrator interface {
	Clarify(ctx context.Context, req orchestrator.ClarifyRequest) (*orchestrator.ClarifyResponse, error)
	Outline(ctx context.Context, req orchestrator.OutlineRequest) (*orchestrator.OutlineResponse, error)
	WriteSlide(ctx context.Context, req orchestrator.WriteSlideRequest) (*orchestrator.WriteSlideResponse, error)
	CritiqueSlide(ctx context.Context, req orchestrator.CritiqueSlideRequest) (*orchestrator.CritiqueSlideResponse, error)
	PolishNotes(ctx context.Context, req orchestrator.PolishNotesRequest) (*orchestrator.PolishNotesResponse, error)
	Design(ctx context.Context, req orchestrator.DesignRequest) (*orchestrator.DesignResponse, error)
	Script(ctx context.Context, req orchestrator.ScriptRequest) (*orchestrator.ScriptResponse, error)
}

// Store persists the aggregate and the active-session pointer.
// *persistence.Adapter satisfies it.
type Store interface {
	Load(ctx context.Context, id string) (*persistence.LoadResult, error)
	Save(ctx context.Context, p *domain.Presentation)
	LoadSession(ctx context.Context) persistence.Session
	SaveSession(ctx context.Context, s persistence.Session)
}

// Recorder receives usage entries. *usage.Ledger satisfies it.
type Recorder interface {
	Record(ctx context.Context, entry domain.UsageEntry)
}

// Models resolves the model bound to an agent role. *settings.Store satisfies it.
type Models interface {
	ModelFor(role domain.AgentRole) string
}
