package enums

import "fmt"

// CartStatus tracks the lifecycle of a scanning-session cart.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
	CartStatusCanceled  CartStatus = "canceled"
)

func ParseCartStatus(value string) (CartStatus, error) {
	switch CartStatus(value) {
	case CartStatusActive, CartStatusConverted, CartStatusCanceled:
		return CartStatus(value), nil
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}
