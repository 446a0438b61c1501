package enums

import "fmt"

// ItemAction is the mutation verb applied to a cart line.
type ItemAction string

const (
	ItemActionAdd      ItemAction = "add"
	ItemActionSubtract ItemAction = "subtract"
	ItemActionRemove   ItemAction = "remove"
)

var validItemActions = []ItemAction{
	ItemActionAdd,
	ItemActionSubtract,
	ItemActionRemove,
}

// String implements fmt.Stringer.
func (i ItemAction) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemAction.
func (i ItemAction) IsValid() bool {
	for _, candidate := range validItemActions {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemAction converts raw input into an ItemAction.
func ParseItemAction(value string) (ItemAction, error) {
	for _, candidate := range validItemActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item action %q", value)
}
