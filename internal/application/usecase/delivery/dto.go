package delivery

// Input

type AcceptInput struct {
	OrderID string `json:"orderId"`
}

type AdvanceInput struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// Output

type AdvanceOutput struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type ToggleOutput struct {
	Active bool `json:"isActive"`
}
