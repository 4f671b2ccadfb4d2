package domain

import "errors"

// ErrNotFound is returned when a document or key does not exist in a store.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned when an action is not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrGenerationActive is returned when a second generation run is requested while one is in flight.
var ErrGenerationActive = errors.New("generation already running")

// ErrEmptyOutline is returned when an outline has no usable entries after filtering blanks.
var ErrEmptyOutline = errors.New("outline has no entries")

// ErrSlideNotFound is returned when a slide ID does not belong to the presentation.
var ErrSlideNotFound = errors.New("slide not found")
