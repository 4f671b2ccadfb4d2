package domain

import (
	"reflect"
)

// PresentationDiff represents the changes between two versions of a presentation.
// It is designed to be serialized to JSON for partial updates on the client.
type PresentationDiff struct {
	// ID is always present to identify the target.
	ID string `json:"id"`

	InitialInput   *InitialInput `json:"initialInput,omitempty"`
	ClarifiedGoals *string       `json:"clarifiedGoals,omitempty"`
	Outline        *[]string     `json:"outline,omitempty"`

	// ChatAppended holds turns added at the end of an unchanged history.
	// ChatHistory replaces the whole history when earlier turns differ.
	ChatAppended []ChatTurn  `json:"chatAppended,omitempty"`
	ChatHistory  *[]ChatTurn `json:"chatHistory,omitempty"`

	// SlidesAppended and Slides follow the same rule as the chat fields.
	SlidesAppended []Slide  `json:"slidesAppended,omitempty"`
	Slides         *[]Slide `json:"slides,omitempty"`
}

// Diff calculates the difference between old and new.
// If old is nil, it returns a diff representing the entire new presentation (initial load).
// It returns nil when nothing changed.
func Diff(old, new *Presentation) *PresentationDiff {
	if new == nil {
		return nil
	}

	diff := &PresentationDiff{ID: new.ID}

	if old == nil || !sameInput(old.InitialInput, new.InitialInput) {
		in := new.InitialInput
		diff.InitialInput = &in
	}
	if old == nil || old.ClarifiedGoals != new.ClarifiedGoals {
		goals := new.ClarifiedGoals
		diff.ClarifiedGoals = &goals
	}
	if old == nil || !equalSlice(old.Outline, new.Outline) {
		outline := append([]string{}, new.Outline...)
		diff.Outline = &outline
	}

	var oldChat []ChatTurn
	var oldSlides []Slide
	if old != nil {
		oldChat, oldSlides = old.ChatHistory, old.Slides
	}
	diff.ChatAppended, diff.ChatHistory = diffAppend(old != nil, oldChat, new.ChatHistory)
	diff.SlidesAppended, diff.Slides = diffAppend(old != nil, oldSlides, new.Slides)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffAppend reports the tail added to an unchanged prefix, or the full list
// when the prefix was rewritten.
func diffAppend[T any](hadOld bool, old, new []T) (appended []T, replaced *[]T) {
	if !hadOld {
		if len(new) == 0 {
			return nil, nil
		}
		return append([]T{}, new...), nil
	}

	if len(new) >= len(old) && equalSlice(old, new[:len(old)]) {
		if len(new) == len(old) {
			return nil, nil
		}
		return append([]T{}, new[len(old):]...), nil
	}

	full := append([]T{}, new...)
	return nil, &full
}

// equalSlice treats nil and empty slices as equal.
func equalSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameInput(a, b InitialInput) bool {
	return a.Text == b.Text &&
		a.Audience == b.Audience &&
		a.Tone == b.Tone &&
		a.Length == b.Length &&
		equalSlice(a.Assets, b.Assets)
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *PresentationDiff) IsEmpty() bool {
	return d.InitialInput == nil &&
		d.ClarifiedGoals == nil &&
		d.Outline == nil &&
		len(d.ChatAppended) == 0 &&
		d.ChatHistory == nil &&
		len(d.SlidesAppended) == 0 &&
		d.Slides == nil
}
