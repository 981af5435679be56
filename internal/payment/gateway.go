package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownSession is returned when a capture or refund references a session
// the gateway never issued.
var ErrUnknownSession = errors.New("unknown payment session")

// Authorization is the result of a successful authorize call. SessionID is
// the gateway-side reference the checkout flow carries through confirmation.
type Authorization struct {
	SessionID string
	Amount    float64
	Currency  string
}

// Gateway is the payment processor port. Checkout authorizes at order
// creation, captures on the success callback, and refunds when a completed
// order has to be unwound.
type Gateway interface {
	Authorize(ctx context.Context, amount float64, currency string) (*Authorization, error)
	Capture(ctx context.Context, sessionID string) error
	Refund(ctx context.Context, sessionID string) error
}

// MockGateway is the always-succeeds implementation used until a real
// processor integration lands. It remembers issued sessions so that captures
// of unknown sessions still fail. One instance is shared across all requests,
// so the session map is guarded by a mutex.
type MockGateway struct {
	mu       sync.Mutex
	sessions map[string]Authorization
}

// NewMockGateway creates a MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{sessions: make(map[string]Authorization)}
}

func (g *MockGateway) Authorize(ctx context.Context, amount float64, currency string) (*Authorization, error) {
	auth := Authorization{
		SessionID: "cs_" + uuid.NewString(),
		Amount:    amount,
		Currency:  currency,
	}

	g.mu.Lock()
	g.sessions[auth.SessionID] = auth
	g.mu.Unlock()

	return &auth, nil
}

func (g *MockGateway) Capture(ctx context.Context, sessionID string) error {
	g.mu.Lock()
	_, ok := g.sessions[sessionID]
	g.mu.Unlock()

	if !ok {
		return ErrUnknownSession
	}
	return nil
}

func (g *MockGateway) Refund(ctx context.Context, sessionID string) error {
	g.mu.Lock()
	_, ok := g.sessions[sessionID]
	g.mu.Unlock()

	if !ok {
		return ErrUnknownSession
	}
	return nil
}
