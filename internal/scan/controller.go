package scan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rmagtoto/tindahan-backend/internal/cart"
	"github.com/rmagtoto/tindahan-backend/internal/resolver"
	"github.com/rmagtoto/tindahan-backend/pkg/config"
	"github.com/rmagtoto/tindahan-backend/pkg/enums"
	pkgerrors "github.com/rmagtoto/tindahan-backend/pkg/errors"
	"github.com/rmagtoto/tindahan-backend/pkg/logger"
)

// Result is what one scan attempt produced.
type Result struct {
	Outcome enums.ScanOutcome `json:"outcome"`
	Barcode string            `json:"barcode"`
	// Source names where the product resolved from, empty unless found/created.
	Source  string        `json:"source,omitempty"`
	Cart    *cart.CartDTO `json:"cart,omitempty"`
	Message string        `json:"message,omitempty"`
	At      time.Time     `json:"at"`
}

// SessionState is the poll-able view of one cart's scanning session.
type SessionState struct {
	CartID     uuid.UUID `json:"cartId"`
	Busy       bool      `json:"busy"`
	LastActive time.Time `json:"lastActive"`
	LastResult *Result   `json:"lastResult,omitempty"`
}

type cartMutator interface {
	GetCart(ctx context.Context, id uuid.UUID) (*cart.CartDTO, error)
	AddOrIncrementItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*cart.CartDTO, error)
}

type scanMetrics interface {
	ObserveScan(outcome string)
}

// Controller owns the per-cart scan sessions and runs the scan pipeline.
type Controller struct {
	cfg      config.ScanConfig
	resolver resolver.Service
	carts    cartMutator
	metrics  scanMetrics
	logg     *logger.Logger
	clock    func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewController constructs the scan controller.
func NewController(cfg config.ScanConfig, resolverSvc resolver.Service, carts cartMutator, metrics scanMetrics, logg *logger.Logger) (*Controller, error) {
	if resolverSvc == nil {
		return nil, fmt.Errorf("resolver service required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	return &Controller{
		cfg:      cfg,
		resolver: resolverSvc,
		carts:    carts,
		metrics:  metrics,
		logg:     logg,
		clock:    time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}, nil
}

func (c *Controller) session(cartID uuid.UUID, now time.Time) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.sessions[cartID]; ok && !existing.closed() {
		return existing
	}
	created := newSession(cartID, c.cfg.MinInterval, now)
	c.sessions[cartID] = created
	return created
}

// HandleScan runs one barcode through the gate, the resolver and the cart
// mutator. Suppressed and dropped scans return a Result without an error so
// callers can report the outcome; resolution failures return both.
func (c *Controller) HandleScan(ctx context.Context, cartID uuid.UUID, barcode string) (*Result, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	target, err := c.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if target.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer active")
	}
	storeID := target.StoreID

	now := c.clock()
	session := c.session(cartID, now)
	session.touch(now)

	if !session.gate.Accept(barcode, now) {
		result := c.finish(session, &Result{
			Outcome: enums.ScanOutcomeSuppressed,
			Barcode: barcode,
			Message: "repeat scan ignored",
			At:      now,
		})
		return result, nil
	}

	if !session.TryAcquire() {
		result := c.finish(session, &Result{
			Outcome: enums.ScanOutcomeDropped,
			Barcode: barcode,
			Message: "another scan is in flight",
			At:      now,
		})
		return result, nil
	}
	defer session.Release()

	// Work runs on the session context so closing the session aborts an
	// in-flight resolution.
	scanCtx, cancel := context.WithCancel(session.Context())
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if c.logg != nil {
		scanCtx = c.logg.WithCartID(c.logg.WithBarcode(scanCtx, barcode), cartID.String())
	}

	resolution, err := c.resolver.Resolve(scanCtx, storeID, barcode)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			result := c.finish(session, &Result{
				Outcome: enums.ScanOutcomeNotFound,
				Barcode: barcode,
				Message: "barcode not recognized",
				At:      now,
			})
			return result, nil
		}
		c.finish(session, &Result{
			Outcome: enums.ScanOutcomeError,
			Barcode: barcode,
			Message: "resolution failed",
			At:      now,
		})
		return nil, err
	}

	cartDTO, err := c.carts.AddOrIncrementItem(scanCtx, cartID, resolution.Product.ID, 1)
	if err != nil {
		c.finish(session, &Result{
			Outcome: enums.ScanOutcomeError,
			Barcode: barcode,
			Source:  resolution.Source,
			Message: "cart update failed",
			At:      now,
		})
		return nil, err
	}

	outcome := enums.ScanOutcomeFound
	if resolution.Created {
		outcome = enums.ScanOutcomeCreated
	}
	result := c.finish(session, &Result{
		Outcome: outcome,
		Barcode: barcode,
		Source:  resolution.Source,
		Cart:    cartDTO,
		At:      now,
	})
	return result, nil
}

func (c *Controller) finish(session *Session, result *Result) *Result {
	session.recordResult(result)
	if c.metrics != nil {
		c.metrics.ObserveScan(string(result.Outcome))
	}
	return result
}

// SessionState returns the poll-able state for a cart's session.
func (c *Controller) SessionState(ctx context.Context, cartID uuid.UUID) (*SessionState, error) {
	if _, err := c.carts.GetCart(ctx, cartID); err != nil {
		return nil, err
	}

	c.mu.Lock()
	session, ok := c.sessions[cartID]
	c.mu.Unlock()
	if !ok || session.closed() {
		return &SessionState{CartID: cartID}, nil
	}

	return &SessionState{
		CartID:     cartID,
		Busy:       session.Busy(),
		LastActive: session.idleSince(),
		LastResult: session.LastResult(),
	}, nil
}

// CloseSession tears down the cart's session, aborting any in-flight scan.
// Reached through the session delete endpoint; idle sessions are otherwise
// reclaimed by PruneIdle.
func (c *Controller) CloseSession(cartID uuid.UUID) {
	c.mu.Lock()
	session, ok := c.sessions[cartID]
	if ok {
		delete(c.sessions, cartID)
	}
	c.mu.Unlock()
	if ok {
		session.Close()
	}
}

// PruneIdle closes sessions idle past the configured TTL, returning how many
// were removed.
func (c *Controller) PruneIdle(now time.Time) int {
	if c.cfg.SessionIdleTTL <= 0 {
		return 0
	}

	var stale []*Session
	c.mu.Lock()
	for cartID, session := range c.sessions {
		if session.Busy() {
			continue
		}
		if now.Sub(session.idleSince()) >= c.cfg.SessionIdleTTL {
			stale = append(stale, session)
			delete(c.sessions, cartID)
		}
	}
	c.mu.Unlock()

	for _, session := range stale {
		session.Close()
	}
	return len(stale)
}
