package entity

type AcceptedState struct{}

func (s *AcceptedState) Name() DeliveryStatus { return DeliveryAccepted }

func (s *AcceptedState) PickUp(d *Delivery) error {
	d.TransitionTo(&PickedUpState{})
	return nil
}

func (s *AcceptedState) Deliver(d *Delivery) error {
	return ErrInvalidStateTransition
}

type PickedUpState struct{}

func (s *PickedUpState) Name() DeliveryStatus { return DeliveryPickedUp }

func (s *PickedUpState) PickUp(d *Delivery) error {
	return ErrInvalidStateTransition
}

func (s *PickedUpState) Deliver(d *Delivery) error {
	d.TransitionTo(&DeliveredState{})
	return nil
}

type DeliveredState struct{}

func (s *DeliveredState) Name() DeliveryStatus      { return DeliveryDelivered }
func (s *DeliveredState) PickUp(d *Delivery) error  { return ErrInvalidStateTransition }
func (s *DeliveredState) Deliver(d *Delivery) error { return ErrInvalidStateTransition }
