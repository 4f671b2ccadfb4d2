package domain

import (
	"context"
	"time"
)

// TransitionEvent describes a change of AppState.
type TransitionEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	PresentationID string    `json:"presentation_id"`
	From           AppState  `json:"from"`
	To             AppState  `json:"to"`
}

// SlideEvent describes a slide produced by the generation pipeline.
type SlideEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	PresentationID string    `json:"presentation_id"`
	Index          int       `json:"index"`
	Total          int       `json:"total"`
	Slide          Slide     `json:"slide"`
}

// LifecycleHooks defines callbacks for controller observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnSlide      func(context.Context, *SlideEvent)
}
