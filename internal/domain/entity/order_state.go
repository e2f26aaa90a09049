package entity

// DeliveryState is one step of the agent lifecycle. Each state decides which
// transitions it allows.
type DeliveryState interface {
	Name() DeliveryStatus
	PickUp(d *Delivery) error
	Deliver(d *Delivery) error
}
