package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// Stage records one candidate that failed at the transport layer.
type Stage struct {
	Attempt int
	BaseURL string
	Err     error
}

// NetworkError means no candidate produced an HTTP response.
type NetworkError struct {
	Op     string
	Stages []Stage
}

func (e *NetworkError) Error() string {
	parts := make([]string, 0, len(e.Stages))
	for _, s := range e.Stages {
		parts = append(parts, fmt.Sprintf("attempt %d %s: %v", s.Attempt, s.BaseURL, s.Err))
	}
	return fmt.Sprintf("%s: orchestrator unreachable (%s)", e.Op, strings.Join(parts, "; "))
}

// ServiceError is a well-formed non-2xx response. It is never retried.
type ServiceError struct {
	Op         string
	BaseURL    string
	StatusCode int
	Body       []byte
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: orchestrator returned %d: %s", e.Op, e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// IsTransport reports whether err is a transport failure eligible for retry.
func IsTransport(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
