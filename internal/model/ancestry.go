package model

// Ancestry is what the lookup service knows about a customer's parent.
type Ancestry struct {
	CustomerName string `json:"customerName"`
	ParentID     string `json:"parentCustomerId"`
	ParentName   string `json:"parentCustomerName"`
}
