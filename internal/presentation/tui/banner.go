package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the deckwright banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"     _           _                   _       _     _   ", "#818cf8"},
		{"  __| | ___  ___| | ____      ___ __(_) __ _| |__ | |_ ", "#a78bfa"},
		{" / _` |/ _ \\/ __| |/ /\\ \\ /\\ / / '__| |/ _` | '_ \\| __|", "#c084fc"},
		{"| (_| |  __/ (__|   <  \\ V  V /| |  | | (_| | | | | |_ ", "#e879f9"},
		{" \\__,_|\\___|\\___|_|\\_\\  \\_/\\_/ |_|  |_|\\__, |_| |_|\\__|", "#f472b6"},
		{"                                       |___/           ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
