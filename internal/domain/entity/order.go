package entity

type Party struct {
	ID   string
	Name string
}

type OrderItem struct {
	ProductID string
	Name      string
	Price     float64
	Quantity  int
}

type Address struct {
	Street   string
	City     string
	State    string
	Pincode  string
	Location *Coordinate
}

// Order is the snapshot returned by the order API when a tracking view
// opens. The status fields are only advanced afterwards through an
// OrderSession.
type Order struct {
	ID              string
	Vendor          Party
	Requester       Party
	Rider           *Party
	Items           []OrderItem
	ItemsTotal      float64
	DeliveryFee     float64
	TotalAmount     float64
	RiderEarnings   float64
	PaymentMethod   string
	Status          Status
	DeliveryStatus  DeliveryStatus
	DeliveryAddress Address
}

func (o *Order) Validate() error {
	if o.ID == "" {
		return ErrIDIsRequired
	}
	if !o.Status.Valid() {
		return ErrUnknownStatus
	}
	return nil
}

// HasRider reports whether an agent is assigned to the order.
func (o *Order) HasRider() bool {
	return o.Rider != nil || o.DeliveryStatus.Valid()
}
