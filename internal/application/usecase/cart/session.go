// Package cart keeps the single-vendor cart and persists every change.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
	"github.com/DioGolang/GoTrack/pkg/logger"
)

var ErrUnknownProposal = errors.New("unknown or expired replace proposal")

// VendorConflictError is returned when an item from another vendor is added.
// The cart is unchanged; Token identifies the pending replace decision.
type VendorConflictError struct {
	Token    string
	Current  entity.Vendor
	Incoming entity.Vendor
}

func (e *VendorConflictError) Error() string {
	return fmt.Sprintf("cart holds items from %q, adding from %q requires replacing it", e.Current.Name, e.Incoming.Name)
}

func (e *VendorConflictError) Unwrap() error { return entity.ErrVendorMismatch }

type proposal struct {
	token   string
	product entity.Product
	vendor  entity.Vendor
}

// Session serialises cart mutations and persists the result of each one. A
// mutation whose save fails is rolled back.
type Session struct {
	store outbound.CartStore
	log   logger.Logger

	mu      sync.Mutex
	cart    *entity.Cart
	pending *proposal
}

func NewSession(store outbound.CartStore, log logger.Logger) *Session {
	return &Session{
		store: store,
		log:   log.With(logger.String("component", "cart")),
		cart:  entity.NewCart(),
	}
}

// Load replaces the in-memory cart with the stored one.
func (s *Session) Load(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	c, err := entity.RestoreCart(snap)
	if err != nil {
		return fmt.Errorf("restore cart: %w", err)
	}

	s.mu.Lock()
	s.cart = c
	s.pending = nil
	s.mu.Unlock()

	s.log.Debug(ctx, "Cart loaded", logger.Int("lines", len(snap.Items)))
	return nil
}

// AddItem adds one unit of p. When the cart belongs to another vendor it
// returns a *VendorConflictError whose token can be passed to ConfirmReplace.
func (s *Session) AddItem(ctx context.Context, p entity.Product, v entity.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.mutate(ctx, func(c *entity.Cart) error { return c.Add(p, v) })
	if !errors.Is(err, entity.ErrVendorMismatch) {
		return err
	}
	current, _ := s.cart.Vendor()
	token := s.propose(p, v)
	return &VendorConflictError{Token: token, Current: current, Incoming: v}
}

// ProposeReplace registers a pending replace and returns its token. A new
// proposal supersedes the previous one.
func (s *Session) ProposeReplace(p entity.Product, v entity.Vendor) (string, error) {
	if p.ID == "" || v.ID == "" {
		return "", entity.ErrIDIsRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.propose(p, v), nil
}

// ConfirmReplace clears the cart, switches vendor and inserts the proposed
// product, all in one save. The proposal survives a failed save.
func (s *Session) ConfirmReplace(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pr, err := s.take(token)
	if err != nil {
		return err
	}
	if err := s.mutate(ctx, func(c *entity.Cart) error { return c.Replace(pr.product, pr.vendor) }); err != nil {
		s.pending = pr
		return err
	}
	s.log.Info(ctx, "Cart vendor replaced", logger.String("vendor_id", pr.vendor.ID))
	return nil
}

// CancelReplace drops the pending proposal. The cart is not touched.
func (s *Session) CancelReplace(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.take(token)
	return err
}

// UpdateQuantity sets a line's quantity; n <= 0 removes the line. Unknown
// products are ignored.
func (s *Session) UpdateQuantity(ctx context.Context, productID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(ctx, func(c *entity.Cart) error {
		c.UpdateQuantity(productID, n)
		return nil
	})
}

func (s *Session) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(ctx, func(c *entity.Cart) error {
		c.Remove(productID)
		return nil
	})
}

func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	return s.mutate(ctx, func(c *entity.Cart) error {
		c.Clear()
		return nil
	})
}

func (s *Session) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

func (s *Session) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

func (s *Session) Lines() []entity.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *Session) Vendor() (entity.Vendor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Vendor()
}

func (s *Session) Snapshot() entity.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot()
}

// mutate applies fn and saves. On any failure the previous cart is restored.
// Callers hold s.mu.
func (s *Session) mutate(ctx context.Context, fn func(*entity.Cart) error) error {
	before := s.cart.Snapshot()
	if err := fn(s.cart); err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.cart.Snapshot()); err != nil {
		s.log.Error(ctx, "Cart not saved, rolling back", logger.WithError(err))
		if restored, rErr := entity.RestoreCart(before); rErr == nil {
			s.cart = restored
		}
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Session) propose(p entity.Product, v entity.Vendor) string {
	s.pending = &proposal{token: uuid.NewString(), product: p, vendor: v}
	return s.pending.token
}

func (s *Session) take(token string) (*proposal, error) {
	if s.pending == nil || s.pending.token != token {
		return nil, ErrUnknownProposal
	}
	pr := s.pending
	s.pending = nil
	return pr, nil
}
