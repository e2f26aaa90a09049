package entity

import "fmt"

// Delivery is the rider's view of an assigned order.
type Delivery struct {
	orderID string
	state   DeliveryState
}

func NewDelivery(orderID string, current DeliveryStatus) (*Delivery, error) {
	if orderID == "" {
		return nil, ErrIDIsRequired
	}
	d := &Delivery{orderID: orderID}
	switch current {
	case DeliveryAccepted:
		d.state = &AcceptedState{}
	case DeliveryPickedUp:
		d.state = &PickedUpState{}
	case DeliveryDelivered:
		d.state = &DeliveredState{}
	default:
		return nil, fmt.Errorf("%w: delivery is %s", ErrInvalidStateTransition, current)
	}
	return d, nil
}

func (d *Delivery) OrderID() string { return d.orderID }

func (d *Delivery) Status() DeliveryStatus { return d.state.Name() }

func (d *Delivery) TransitionTo(s DeliveryState) { d.state = s }

func (d *Delivery) PickUp() error { return d.state.PickUp(d) }

func (d *Delivery) Deliver() error { return d.state.Deliver(d) }

// Advance moves the delivery to target, which must be the next step.
func (d *Delivery) Advance(target DeliveryStatus) error {
	var err error
	switch target {
	case DeliveryPickedUp:
		err = d.PickUp()
	case DeliveryDelivered:
		err = d.Deliver()
	default:
		err = ErrInvalidStateTransition
	}
	if err != nil {
		return fmt.Errorf("%w: %s -> %s", err, d.Status(), target)
	}
	return nil
}
