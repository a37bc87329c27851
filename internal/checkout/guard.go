// Package checkout turns an active cart into a recorded sale: stock debits,
// the sales transaction and the cart clear commit or roll back together.
package checkout

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rmagtoto/tindahan-backend/pkg/enums"
	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
)

// Guard enforces the per-cart checkout state machine in memory:
// Idle -> InProgress -> {Completed, Failed}. Failed returns to a retryable
// state; Completed is terminal. At most one checkout per cart is in flight.
type Guard struct {
	mu     sync.Mutex
	states map[uuid.UUID]enums.CheckoutState
}

// NewGuard builds an empty checkout guard.
func NewGuard() *Guard {
	return &Guard{states: make(map[uuid.UUID]enums.CheckoutState)}
}

// Begin claims the cart for checkout. A second caller while one is in flight
// gets a concurrency rejection; a completed cart can never check out again.
func (g *Guard) Begin(cartID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.states[cartID] {
	case enums.CheckoutStateInProgress:
		return pkgerrors.New(pkgerrors.CodeConcurrency, "checkout already in progress for this cart")
	case enums.CheckoutStateCompleted:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart has already been checked out")
	}

	g.states[cartID] = enums.CheckoutStateInProgress
	return nil
}

// Complete marks the cart's checkout as terminally successful.
func (g *Guard) Complete(cartID uuid.UUID) {
	g.mu.Lock()
	g.states[cartID] = enums.CheckoutStateCompleted
	g.mu.Unlock()
}

// Fail releases the cart for another attempt.
func (g *Guard) Fail(cartID uuid.UUID) {
	g.mu.Lock()
	g.states[cartID] = enums.CheckoutStateFailed
	g.mu.Unlock()
}

// State returns the cart's checkout state, Idle when never attempted.
func (g *Guard) State(cartID uuid.UUID) enums.CheckoutState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if state, ok := g.states[cartID]; ok {
		return state
	}
	return enums.CheckoutStateIdle
}

// Forget drops tracking for a cart, used when carts are canceled.
func (g *Guard) Forget(cartID uuid.UUID) {
	g.mu.Lock()
	delete(g.states, cartID)
	g.mu.Unlock()
}
