package entity

import (
	"fmt"
	"strings"
)

// Status is the customer-facing order lifecycle. The numeric value is the
// canonical index used for monotonic reconciliation.
//
//	pending → confirmed → preparing → ready → picked_up → delivered
//	    └──────────────── cancelled (from any non-terminal state)
type Status int

const (
	StatusPending Status = iota
	StatusConfirmed
	StatusPreparing
	StatusReady
	StatusPickedUp
	StatusDelivered
	// StatusCancelled sorts above every other status so that a cancellation
	// always passes the monotonic check from a non-terminal state.
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusPending:   "pending",
	StatusConfirmed: "confirmed",
	StatusPreparing: "preparing",
	StatusReady:     "ready",
	StatusPickedUp:  "picked_up",
	StatusDelivered: "delivered",
	StatusCancelled: "cancelled",
}

// CustomerSteps lists the non-cancelled lifecycle in display order.
var CustomerSteps = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusPickedUp,
	StatusDelivered,
}

func ParseStatus(s string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "canceled" {
		name = "cancelled"
	}
	for st, n := range statusNames {
		if n == name {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) Index() int { return int(s) }

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// DeliveryStatus is the agent-facing sub-lifecycle once a rider is assigned.
//
//	accepted → picked_up → delivered
type DeliveryStatus int

const DeliveryUnassigned DeliveryStatus = -1

const (
	DeliveryAccepted DeliveryStatus = iota
	DeliveryPickedUp
	DeliveryDelivered
)

var deliveryNames = map[DeliveryStatus]string{
	DeliveryAccepted:  "accepted",
	DeliveryPickedUp:  "picked_up",
	DeliveryDelivered: "delivered",
}

func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for st, n := range deliveryNames {
		if n == name {
			return st, nil
		}
	}
	return DeliveryUnassigned, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (d DeliveryStatus) String() string {
	if n, ok := deliveryNames[d]; ok {
		return n
	}
	return "unassigned"
}

func (d DeliveryStatus) Valid() bool {
	_, ok := deliveryNames[d]
	return ok
}

func (d DeliveryStatus) Index() int { return int(d) }

func (d DeliveryStatus) IsTerminal() bool { return d == DeliveryDelivered }

// ImpliedStatus is the customer-facing step an agent status guarantees.
func (d DeliveryStatus) ImpliedStatus() (Status, bool) {
	switch d {
	case DeliveryPickedUp:
		return StatusPickedUp, true
	case DeliveryDelivered:
		return StatusDelivered, true
	default:
		return 0, false
	}
}

// ImpliedDelivery is the agent step a customer-facing status guarantees.
func (s Status) ImpliedDelivery() (DeliveryStatus, bool) {
	switch s {
	case StatusPickedUp:
		return DeliveryPickedUp, true
	case StatusDelivered:
		return DeliveryDelivered, true
	default:
		return DeliveryUnassigned, false
	}
}
