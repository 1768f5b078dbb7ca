package resolver

import (
	"fmt"

	"github.com/Harshitk-cp/relspace/internal/domain"
)

// Provider constants
const (
	ProviderHTTP = "http"
	ProviderMock = "mock"
	ProviderNone = "none"
)

// NewResolver creates an entity resolver based on the provider name. The
// "none" provider returns a nil resolver, which disables endpoint checks.
func NewResolver(provider, baseURL string) (domain.EntityResolver, error) {
	switch provider {
	case ProviderHTTP:
		if baseURL == "" {
			return nil, fmt.Errorf("ENTITY_RESOLVER_URL is required for the http entity resolver")
		}
		return NewHTTPResolver(baseURL), nil

	case ProviderMock:
		return NewMockResolver(), nil

	case ProviderNone, "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown entity resolver: %s (valid options: http, mock, none)", provider)
	}
}
