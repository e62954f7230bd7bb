package product

import "github.com/danielcaamal/orders-ms/internal/domain"

// MockService is a configurable ProductValidator stub for tests.
type MockService struct {
	Snapshots   []domain.ProductSnapshot
	ValidateErr error

	ValidateCalls int
	LastIDs       []int64
}

// NewMockService returns a mock that answers with the configured snapshots.
func NewMockService(snapshots ...domain.ProductSnapshot) *MockService {
	return &MockService{Snapshots: snapshots}
}

// Validate returns the preconfigured result and counts calls.
func (m *MockService) Validate(productIDs []int64) ([]domain.ProductSnapshot, error) {
	m.ValidateCalls++
	m.LastIDs = append([]int64(nil), productIDs...)
	if m.ValidateErr != nil {
		return nil, m.ValidateErr
	}
	return m.Snapshots, nil
}

var _ domain.ProductValidator = (*MockService)(nil)
