package payment

import "github.com/danielcaamal/orders-ms/internal/domain"

// MockService is a configurable PaymentInitiator stub for tests.
type MockService struct {
	Session    domain.PaymentSession
	SessionErr error

	CreateSessionCalls int
	LastOrderID        string
	LastItems          []domain.SessionItem
}

// NewMockService returns a mock with a successful default session.
func NewMockService() *MockService {
	return &MockService{
		Session: domain.PaymentSession{
			ID:         "cs_test_1",
			URL:        "https://pay.example/session/cs_test_1",
			CancelURL:  "https://pay.example/cancel",
			SuccessURL: "https://pay.example/success",
		},
	}
}

// CreateSession returns the preconfigured result and counts calls.
func (m *MockService) CreateSession(orderID, currency string, items []domain.SessionItem) (domain.PaymentSession, error) {
	m.CreateSessionCalls++
	m.LastOrderID = orderID
	m.LastItems = append([]domain.SessionItem(nil), items...)
	if m.SessionErr != nil {
		return domain.PaymentSession{}, m.SessionErr
	}
	return m.Session, nil
}

var _ domain.PaymentInitiator = (*MockService)(nil)
