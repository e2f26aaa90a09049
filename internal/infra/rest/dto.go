package rest

import (
	"time"

	"github.com/DioGolang/GoTrack/internal/domain/entity"
)

type partyDTO struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type itemDTO struct {
	Product  partyDTO `json:"product"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Quantity int      `json:"quantity"`
}

type geoDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type addressDTO struct {
	Street      string  `json:"street"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	Pincode     string  `json:"pincode"`
	Coordinates *geoDTO `json:"coordinates,omitempty"`
}

type orderDTO struct {
	ID              string     `json:"_id"`
	Restaurant      partyDTO   `json:"restaurant"`
	User            partyDTO   `json:"user"`
	Rider           *partyDTO  `json:"rider"`
	Items           []itemDTO  `json:"items"`
	ItemsTotal      float64    `json:"itemsTotal"`
	DeliveryFee     float64    `json:"deliveryFee"`
	TotalAmount     float64    `json:"totalAmount"`
	RiderEarnings   float64    `json:"riderEarnings"`
	PaymentMethod   string     `json:"paymentMethod"`
	OrderStatus     string     `json:"orderStatus"`
	RiderStatus     string     `json:"riderStatus"`
	DeliveryAddress addressDTO `json:"deliveryAddress"`
}

type orderEnvelope struct {
	Order *orderDTO `json:"order"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type toggleResponse struct {
	Rider struct {
		IsActive bool `json:"isActive"`
	} `json:"rider"`
}

func (d *orderDTO) toEntity() (*entity.Order, error) {
	status, err := entity.ParseStatus(d.OrderStatus)
	if err != nil {
		return nil, err
	}
	delivery := entity.DeliveryUnassigned
	if d.RiderStatus != "" {
		if delivery, err = entity.ParseDeliveryStatus(d.RiderStatus); err != nil {
			return nil, err
		}
	}

	o := &entity.Order{
		ID:             d.ID,
		Vendor:         entity.Party{ID: d.Restaurant.ID, Name: d.Restaurant.Name},
		Requester:      entity.Party{ID: d.User.ID, Name: d.User.Name},
		ItemsTotal:     d.ItemsTotal,
		DeliveryFee:    d.DeliveryFee,
		TotalAmount:    d.TotalAmount,
		RiderEarnings:  d.RiderEarnings,
		PaymentMethod:  d.PaymentMethod,
		Status:         status,
		DeliveryStatus: delivery,
		DeliveryAddress: entity.Address{
			Street:  d.DeliveryAddress.Street,
			City:    d.DeliveryAddress.City,
			State:   d.DeliveryAddress.State,
			Pincode: d.DeliveryAddress.Pincode,
		},
	}
	if d.Rider != nil && d.Rider.ID != "" {
		o.Rider = &entity.Party{ID: d.Rider.ID, Name: d.Rider.Name}
	}
	if g := d.DeliveryAddress.Coordinates; g != nil {
		c, err := entity.NewCoordinate(g.Lat, g.Lng, time.Time{})
		if err == nil {
			o.DeliveryAddress.Location = &c
		}
	}
	for _, it := range d.Items {
		name := it.Name
		if name == "" {
			name = it.Product.Name
		}
		o.Items = append(o.Items, entity.OrderItem{
			ProductID: it.Product.ID,
			Name:      name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}
