package entity

// OrderSession is the local projection of one tracked order. Status updates
// are monotonic: an update is applied only when its canonical index is
// strictly greater than the current one, so duplicates and late arrivals are
// harmless. Location updates replace the last coordinate unless strict
// ordering is enabled.
//
// OrderSession is not safe for concurrent use; owners serialise access.
type OrderSession struct {
	orderID        string
	status         Status
	hasStatus      bool
	delivery       DeliveryStatus
	location       *Coordinate
	order          *Order
	strictLocation bool
}

// SessionView is an immutable copy of an OrderSession.
type SessionView struct {
	OrderID        string
	Status         Status
	HasStatus      bool
	DeliveryStatus DeliveryStatus
	Location       *Coordinate
	Order          *Order
	Terminal       bool
}

type SessionOption func(*OrderSession)

// WithStrictLocationOrder drops location samples captured before the last
// applied one.
func WithStrictLocationOrder() SessionOption {
	return func(s *OrderSession) { s.strictLocation = true }
}

func NewOrderSession(orderID string, opts ...SessionOption) (*OrderSession, error) {
	if orderID == "" {
		return nil, ErrIDIsRequired
	}
	s := &OrderSession{orderID: orderID, delivery: DeliveryUnassigned}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *OrderSession) OrderID() string { return s.orderID }

func (s *OrderSession) IsTerminal() bool {
	return s.hasStatus && s.status.IsTerminal()
}

// Seed folds the REST snapshot into the session through the same monotonic
// rules as live events, so events that arrived first are not rolled back.
func (s *OrderSession) Seed(o *Order) (bool, error) {
	if o.ID != s.orderID {
		return false, ErrOrderMismatch
	}
	cp := *o
	s.order = &cp

	changed, err := s.ApplyStatus(o.Status)
	if err != nil {
		return false, err
	}
	if o.DeliveryStatus.Valid() {
		dChanged, err := s.ApplyDeliveryStatus(o.DeliveryStatus)
		if err != nil {
			return changed, err
		}
		changed = changed || dChanged
	}
	if o.Rider != nil && s.delivery == DeliveryUnassigned {
		s.delivery = DeliveryAccepted
		s.raiseDeliveryFromStatus()
	}
	return changed, nil
}

// ApplyStatus applies a customer-facing status. It reports whether the
// projection changed; lower or equal indexes and anything after a terminal
// status are ignored without error.
func (s *OrderSession) ApplyStatus(incoming Status) (bool, error) {
	if !incoming.Valid() {
		return false, ErrUnknownStatus
	}
	if !s.advanceStatus(incoming) {
		return false, nil
	}
	s.raiseDeliveryFromStatus()
	return true, nil
}

// ApplyDeliveryStatus applies an agent-facing status and raises the
// customer-facing status to the step it implies.
func (s *OrderSession) ApplyDeliveryStatus(incoming DeliveryStatus) (bool, error) {
	if !incoming.Valid() {
		return false, ErrUnknownStatus
	}
	if s.IsTerminal() {
		return false, nil
	}
	changed := false
	if s.delivery == DeliveryUnassigned || incoming.Index() > s.delivery.Index() {
		s.delivery = incoming
		changed = true
	}
	if implied, ok := incoming.ImpliedStatus(); ok {
		if s.advanceStatus(implied) {
			changed = true
		}
	}
	return changed, nil
}

// ApplyStatusName applies a status received as text. Names that only exist
// in the agent lifecycle (accepted) are routed there.
func (s *OrderSession) ApplyStatusName(status, riderStatus string) (bool, error) {
	changed := false
	if status != "" {
		if st, err := ParseStatus(status); err == nil {
			c, err := s.ApplyStatus(st)
			if err != nil {
				return false, err
			}
			changed = c
		} else if d, dErr := ParseDeliveryStatus(status); dErr == nil {
			c, err := s.ApplyDeliveryStatus(d)
			if err != nil {
				return false, err
			}
			changed = c
		} else {
			return false, err
		}
	}
	if riderStatus != "" {
		d, err := ParseDeliveryStatus(riderStatus)
		if err != nil {
			return changed, err
		}
		c, err := s.ApplyDeliveryStatus(d)
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}

// ApplyLocation records the latest rider coordinate.
func (s *OrderSession) ApplyLocation(c Coordinate) bool {
	if s.strictLocation && s.location != nil && !c.CapturedAt.IsZero() &&
		c.CapturedAt.Before(s.location.CapturedAt) {
		return false
	}
	cp := c
	s.location = &cp
	return true
}

func (s *OrderSession) View() SessionView {
	v := SessionView{
		OrderID:        s.orderID,
		Status:         s.status,
		HasStatus:      s.hasStatus,
		DeliveryStatus: s.delivery,
		Terminal:       s.IsTerminal(),
	}
	if s.location != nil {
		loc := *s.location
		v.Location = &loc
	}
	if s.order != nil {
		o := *s.order
		o.Status = s.status
		o.DeliveryStatus = s.delivery
		v.Order = &o
	}
	return v
}

func (s *OrderSession) advanceStatus(incoming Status) bool {
	if s.hasStatus {
		if s.status.IsTerminal() || incoming.Index() <= s.status.Index() {
			return false
		}
	}
	s.status = incoming
	s.hasStatus = true
	return true
}

func (s *OrderSession) raiseDeliveryFromStatus() {
	if s.delivery == DeliveryUnassigned || !s.hasStatus {
		return
	}
	if implied, ok := s.status.ImpliedDelivery(); ok && implied.Index() > s.delivery.Index() {
		s.delivery = implied
	}
}
