package resolver

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/relspace/internal/domain"
)

// MockResolver is a configurable resolver for tests and local runs. With no
// entries in Missing every entity resolves.
type MockResolver struct {
	mu      sync.Mutex
	Missing map[string]bool
	Err     error

	// Call tracking for assertions
	Calls []domain.EntityRef
}

func NewMockResolver() *MockResolver {
	return &MockResolver{Missing: make(map[string]bool)}
}

// MarkMissing makes ref (by type and id) fail to resolve.
func (m *MockResolver) MarkMissing(ref domain.EntityRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Missing[domain.NewEntityRef(ref.Type, ref.ID).String()] = true
}

func (m *MockResolver) Resolve(_ context.Context, ref domain.EntityRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, ref)
	if m.Err != nil {
		return m.Err
	}
	if m.Missing[domain.NewEntityRef(ref.Type, ref.ID).String()] {
		return domain.EntityNotFoundError(ref.String())
	}
	return nil
}
