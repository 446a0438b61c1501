package types

import "strings"

// ShippingAddress is the delivery data snapshotted onto a cart. A cart created
// from a quick add-to-tap carries the member's name plus placeholders until
// checkout fills the rest in.
type ShippingAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// PlaceholderShipping builds the default address used when a cart is created
// before the member has entered delivery details.
func PlaceholderShipping(name string) ShippingAddress {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = "Socio"
	}
	return ShippingAddress{
		Name:    trimmed,
		Address: "Sin especificar",
		Phone:   "Sin especificar",
	}
}

// CustomerInfo is the contact block captured at checkout.
type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
