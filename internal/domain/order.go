package domain

// OrderProduct is one requested product in an order.
type OrderProduct struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Order is submitted once per checkout; fulfillment happens at the branch.
type Order struct {
	Products            []OrderProduct `json:"products"`
	CustomerName        string         `json:"customerName"`
	CustomerPhone       string         `json:"customerPhone"`
	CustomerDescription string         `json:"customerDescription,omitempty"`
}
