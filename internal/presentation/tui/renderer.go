package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Without a usable terminal style it returns the markdown unchanged.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// SlideMarkdown lays out one slide for terminal rendering. n is 1-based.
func SlideMarkdown(n int, s domain.Slide) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %d. %s\n\n", n, s.Title)
	for _, bullet := range s.Content {
		fmt.Fprintf(&b, "- %s\n", bullet)
	}

	switch {
	case s.AssetImageURL != "":
		fmt.Fprintf(&b, "\n**Image:** asset %s\n", s.AssetImageURL)
	case s.UseGeneratedImage && s.ImagePrompt != "":
		fmt.Fprintf(&b, "\n**Image (%s):** %s\n", s.ImageState, s.ImagePrompt)
	}

	if s.SpeakerNotes != "" {
		fmt.Fprintf(&b, "\n> %s\n", strings.ReplaceAll(s.SpeakerNotes, "\n", "\n> "))
	}
	return b.String()
}

// OutlineMarkdown lays out an outline as a numbered list.
func OutlineMarkdown(outline []string) string {
	var b strings.Builder
	b.WriteString("## Outline\n\n")
	for i, title := range outline {
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
	}
	return b.String()
}

// UsageMarkdown summarizes ledger totals.
func UsageMarkdown(t domain.UsageTotals) string {
	return fmt.Sprintf("| prompt tokens | completion tokens | image calls | cost |\n"+
		"|---|---|---|---|\n"+
		"| %d | %d | %d | %.4f |\n",
		t.TokensPrompt, t.TokensCompletion, t.ImageCalls, t.CostEstimate)
}
