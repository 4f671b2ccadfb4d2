package settings

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// EncodeCookie returns the transport form of m: base64 over its JSON object.
func EncodeCookie(m domain.AgentModels) string {
	data, _ := json.Marshal(m.WithDefaults())
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCookie parses a cookie value produced by EncodeCookie. It never fails:
// malformed, truncated or non-object payloads yield the default bindings.
func DecodeCookie(value string) domain.AgentModels {
	value = strings.TrimSpace(value)
	if unescaped, err := url.PathUnescape(value); err == nil {
		value = unescaped
	}
	if value == "" {
		return domain.DefaultAgentModels()
	}

	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		if data, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(value, "=")); err != nil {
			return domain.DefaultAgentModels()
		}
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.DefaultAgentModels()
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return domain.DefaultAgentModels()
	}
	return FromMap(obj).WithDefaults()
}

// FromMap decodes the known roles of obj. Unknown keys and non-string values
// are dropped; missing roles stay empty.
func FromMap(obj map[string]any) domain.AgentModels {
	known := make(map[string]any, len(domain.AgentRoles))
	for _, role := range domain.AgentRoles {
		if v, ok := obj[string(role)].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				known[string(role)] = v
			}
		}
	}

	var m domain.AgentModels
	if err := mapstructure.Decode(known, &m); err != nil {
		return domain.AgentModels{}
	}
	return m
}

// Merge writes the known, non-empty string values of patch over base.
func Merge(base domain.AgentModels, patch map[string]any) domain.AgentModels {
	for _, role := range domain.AgentRoles {
		if v, ok := patch[string(role)].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				base.Set(role, v)
			}
		}
	}
	return base
}
