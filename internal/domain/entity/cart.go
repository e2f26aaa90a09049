package entity

import (
	"errors"
	"fmt"
)

var (
	ErrVendorMismatch  = errors.New("cart holds items from another vendor")
	ErrPriceMustBePos  = errors.New("price must be greater than or equal to zero")
	ErrInvalidQuantity = errors.New("quantity must be at least one")
	ErrVendorRequired  = errors.New("cart with items requires a vendor")
)

type Vendor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID    string
	Name  string
	Price float64
}

type CartLine struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// CartSnapshot is the persisted form of a cart.
type CartSnapshot struct {
	Items  []CartLine `json:"items"`
	Vendor *Vendor    `json:"vendor"`
}

// Cart holds lines from exactly one vendor. An empty cart may still carry a
// vendor after its last line was removed.
type Cart struct {
	lines  []CartLine
	vendor *Vendor
}

func NewCart() *Cart {
	return &Cart{lines: []CartLine{}}
}

func RestoreCart(snap CartSnapshot) (*Cart, error) {
	c := NewCart()
	if len(snap.Items) > 0 && snap.Vendor == nil {
		return nil, ErrVendorRequired
	}
	for _, l := range snap.Items {
		if l.ProductID == "" {
			return nil, ErrIDIsRequired
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: %s has %d", ErrInvalidQuantity, l.ProductID, l.Quantity)
		}
		if l.Price < 0 {
			return nil, ErrPriceMustBePos
		}
		c.lines = append(c.lines, l)
	}
	if snap.Vendor != nil {
		v := *snap.Vendor
		c.vendor = &v
	}
	return c, nil
}

func validateItem(p Product, v Vendor) error {
	if p.ID == "" || v.ID == "" {
		return ErrIDIsRequired
	}
	if p.Price < 0 {
		return ErrPriceMustBePos
	}
	return nil
}

// Add puts one unit of p into the cart. Adding from a vendor other than the
// current one fails with ErrVendorMismatch and leaves the cart untouched.
func (c *Cart) Add(p Product, v Vendor) error {
	if err := validateItem(p, v); err != nil {
		return err
	}
	if c.vendor != nil && c.vendor.ID != v.ID {
		return ErrVendorMismatch
	}
	if c.vendor == nil {
		vv := v
		c.vendor = &vv
	}
	for i := range c.lines {
		if c.lines[i].ProductID == p.ID {
			c.lines[i].Quantity++
			return nil
		}
	}
	c.lines = append(c.lines, CartLine{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: 1})
	return nil
}

// Replace discards every line, switches to vendor v and inserts p.
func (c *Cart) Replace(p Product, v Vendor) error {
	if err := validateItem(p, v); err != nil {
		return err
	}
	vv := v
	c.vendor = &vv
	c.lines = []CartLine{{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: 1}}
	return nil
}

// UpdateQuantity sets the quantity of a line; n <= 0 removes it. It reports
// whether the line exists.
func (c *Cart) UpdateQuantity(productID string, n int) bool {
	if n <= 0 {
		return c.Remove(productID)
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity = n
			return true
		}
	}
	return false
}

func (c *Cart) Remove(productID string) bool {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.lines = []CartLine{}
	c.vendor = nil
}

func (c *Cart) Total() float64 {
	var sum float64
	for _, l := range c.lines {
		sum += l.Price * float64(l.Quantity)
	}
	return sum
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Vendor() (Vendor, bool) {
	if c.vendor == nil {
		return Vendor{}, false
	}
	return *c.vendor, true
}

func (c *Cart) Snapshot() CartSnapshot {
	snap := CartSnapshot{Items: c.Lines()}
	if c.vendor != nil {
		v := *c.vendor
		snap.Vendor = &v
	}
	return snap
}
