package enums

import "fmt"

// CartStatus tracks a cart through its order lifecycle. Statuses keep their
// Spanish wire values because the storefront and staff tooling share them.
type CartStatus string

const (
	CartStatusInicializado CartStatus = "inicializado"
	CartStatusPendiente    CartStatus = "pendiente"
	CartStatusPagado       CartStatus = "pagado"
	CartStatusPreparacion  CartStatus = "preparacion"
	CartStatusEntregado    CartStatus = "entregado"
	CartStatusCancelado    CartStatus = "cancelado"
)

var validCartStatuses = []CartStatus{
	CartStatusInicializado,
	CartStatusPendiente,
	CartStatusPagado,
	CartStatusPreparacion,
	CartStatusEntregado,
	CartStatusCancelado,
}

// cartTransitions is the single source of truth for legal status moves.
// Staff tooling drives everything past pendiente; cancelado is a dead end.
var cartTransitions = map[CartStatus][]CartStatus{
	CartStatusInicializado: {CartStatusPendiente, CartStatusPagado, CartStatusCancelado},
	CartStatusPendiente:    {CartStatusPagado, CartStatusCancelado},
	CartStatusPagado:       {CartStatusPreparacion, CartStatusCancelado},
	CartStatusPreparacion:  {CartStatusEntregado, CartStatusCancelado},
	CartStatusEntregado:    {},
	CartStatusCancelado:    {},
}

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	for _, candidate := range validCartStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsFrozen reports whether the cart may no longer be mutated by its owner.
// Once paid or closed, add/subtract/remove and checkout are disallowed.
func (c CartStatus) IsFrozen() bool {
	switch c {
	case CartStatusPagado, CartStatusPreparacion, CartStatusEntregado, CartStatusCancelado:
		return true
	}
	return false
}

// IsTerminal reports whether the cart lifecycle is over. A terminal cart is
// dropped from client state so the next session starts empty.
func (c CartStatus) IsTerminal() bool {
	return c == CartStatusEntregado || c == CartStatusCancelado
}

// CanTransitionTo reports whether moving to next is a legal status change.
func (c CartStatus) CanTransitionTo(next CartStatus) bool {
	for _, candidate := range cartTransitions[c] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	for _, candidate := range validCartStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}
