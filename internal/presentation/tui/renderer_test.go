package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestSlideMarkdown(t *testing.T) {
	s := domain.Slide{
		Title:        "Channels",
		Content:      []string{"Unbuffered", "Buffered"},
		SpeakerNotes: "Line one\nLine two",
		ImagePrompt:  "a pipe",
	}
	s.UseGenerated()

	md := SlideMarkdown(2, s)
	assert.Contains(t, md, "## 2. Channels")
	assert.Contains(t, md, "- Unbuffered\n- Buffered\n")
	assert.Contains(t, md, "**Image (loading):** a pipe")
	assert.Contains(t, md, "> Line one\n> Line two")
}

func TestSlideMarkdown_AssetWins(t *testing.T) {
	s := domain.Slide{Title: "Logo", ImagePrompt: "ignored"}
	s.UseAsset("https://cdn.example/logo.png")

	md := SlideMarkdown(1, s)
	assert.Contains(t, md, "asset https://cdn.example/logo.png")
	assert.NotContains(t, md, "ignored")
}

func TestOutlineMarkdown(t *testing.T) {
	assert.Equal(t, "## Outline\n\n1. Intro\n2. Outro\n", OutlineMarkdown([]string{"Intro", "Outro"}))
}

func TestRendererFallsThrough(t *testing.T) {
	out, err := NewRenderer()("# Title")
	assert.NoError(t, err)
	assert.Contains(t, out, "Title")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}
