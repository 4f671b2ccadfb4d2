package persistence

import (
	"context"
	"encoding/json"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/ports"
)

// Session is the active-session pointer: which presentation is open and in
// which state the controller last left it.
type Session struct {
	PresentationID string
	State          domain.AppState
}

// LoadSession reads the active-session pointer. Missing or malformed values
// yield an empty id and an empty state.
func (a *Adapter) LoadSession(ctx context.Context) Session {
	var s Session

	if raw, err := a.local.Get(ctx, ports.KeyPresentationID); err == nil {
		var id string
		if json.Unmarshal(raw, &id) == nil {
			s.PresentationID = id
		}
	}
	if raw, err := a.local.Get(ctx, ports.KeyAppState); err == nil {
		var tag string
		if json.Unmarshal(raw, &tag) == nil {
			if state, ok := domain.ParseAppState(tag); ok {
				s.State = state
			}
		}
	}
	return s
}

// SaveSession writes the active-session pointer. Failures are logged.
func (a *Adapter) SaveSession(ctx context.Context, s Session) {
	a.putString(ctx, ports.KeyPresentationID, s.PresentationID)
	a.putString(ctx, ports.KeyAppState, string(s.State))
}

func (a *Adapter) putString(ctx context.Context, key, value string) {
	data, _ := json.Marshal(value)
	if err := a.local.Put(ctx, key, data); err != nil {
		a.logger.Warn("Failed to write session pointer", "key", key, "err", err)
	}
}
