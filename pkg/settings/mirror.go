package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/go-resty/resty/v2"
)

// SettingsPath is the server endpoint backing the cookie mirror.
const SettingsPath = "/api/settings/agent-models"

// Mirror pushes bindings to the server-side cookie store.
type Mirror interface {
	Push(ctx context.Context, models domain.AgentModels) error
}

// HTTPMirror posts bindings to SettingsPath and keeps the returned cookie
// in its client jar.
type HTTPMirror struct {
	client *resty.Client
}

// NewHTTPMirror creates a mirror against baseURL.
func NewHTTPMirror(baseURL string) *HTTPMirror {
	return &HTTPMirror{
		client: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(5 * time.Second),
	}
}

func (m *HTTPMirror) Push(ctx context.Context, models domain.AgentModels) error {
	res, err := m.client.R().
		SetContext(ctx).
		SetBody(models).
		Post(SettingsPath)
	if err != nil {
		return fmt.Errorf("failed to mirror settings: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("failed to mirror settings: status %d", res.StatusCode())
	}
	return nil
}

// Fetch reads the bindings the server currently sees.
func (m *HTTPMirror) Fetch(ctx context.Context) (domain.AgentModels, error) {
	var out domain.AgentModels
	res, err := m.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(SettingsPath)
	if err != nil {
		return domain.AgentModels{}, fmt.Errorf("failed to fetch settings: %w", err)
	}
	if res.IsError() {
		return domain.AgentModels{}, fmt.Errorf("failed to fetch settings: status %d", res.StatusCode())
	}
	return out.WithDefaults(), nil
}
