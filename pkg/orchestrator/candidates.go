package orchestrator

import "strings"

// DefaultFallbacks are tried after the explicit overrides, in order:
// in-cluster service name, host loopback alias, local loopback.
var DefaultFallbacks = []string{
	"http://agent-orchestrator:8000",
	"http://host.docker.internal:8000",
	"http://localhost:8000",
}

// Candidates builds the ordered, de-duplicated list of base URLs.
// Empty values are skipped and trailing slashes ignored for comparison.
func Candidates(internalOverride, publicOverride string, fallbacks []string) []string {
	raw := append([]string{internalOverride, publicOverride}, fallbacks...)

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimRight(strings.TrimSpace(c), "/")
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
