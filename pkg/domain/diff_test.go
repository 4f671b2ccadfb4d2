package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deck() *Presentation {
	return &Presentation{
		ID:             "p1",
		InitialInput:   InitialInput{Text: "Go talk"},
		ChatHistory:    []ChatTurn{{Role: RoleUser, Content: "hi"}},
		ClarifiedGoals: "goals",
		Outline:        []string{"A", "B"},
		Slides:         []Slide{{ID: "s1", Title: "A", Content: []string{"x"}}},
	}
}

func TestDiff_InitialLoad(t *testing.T) {
	d := Diff(nil, deck())
	require.NotNil(t, d)
	assert.Equal(t, "p1", d.ID)
	assert.Equal(t, "goals", *d.ClarifiedGoals)
	assert.Equal(t, []string{"A", "B"}, *d.Outline)
	assert.Len(t, d.ChatAppended, 1)
	assert.Len(t, d.SlidesAppended, 1)
	assert.Nil(t, d.Slides)
}

func TestDiff_NoChanges(t *testing.T) {
	assert.Nil(t, Diff(deck(), deck()))
}

func TestDiff_AppendedSlide(t *testing.T) {
	next := deck()
	next.Slides = append(next.Slides, Slide{ID: "s2", Title: "B"})

	d := Diff(deck(), next)
	require.NotNil(t, d)
	assert.Nil(t, d.ClarifiedGoals)
	assert.Nil(t, d.Outline)
	assert.Nil(t, d.Slides)
	require.Len(t, d.SlidesAppended, 1)
	assert.Equal(t, "s2", d.SlidesAppended[0].ID)
}

func TestDiff_EditedSlideReplacesList(t *testing.T) {
	next := deck()
	next.Slides[0].Title = "A, revised"

	d := Diff(deck(), next)
	require.NotNil(t, d)
	require.NotNil(t, d.Slides)
	assert.Equal(t, "A, revised", (*d.Slides)[0].Title)
	assert.Empty(t, d.SlidesAppended)
}

func TestDiff_ClearedOutlineIsReported(t *testing.T) {
	next := deck()
	next.Outline = []string{}

	d := Diff(deck(), next)
	require.NotNil(t, d)
	require.NotNil(t, d.Outline)
	assert.Empty(t, *d.Outline)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1","outline":[]}`, string(data))
}
