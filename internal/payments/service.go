package payments

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jamrock-club/jamrock-backend/pkg/db/models"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
	"github.com/jamrock-club/jamrock-backend/pkg/mercadopago"
)

// PreferenceCreator is the payment-provider surface the service depends on.
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, items []mercadopago.PreferenceItem) (*mercadopago.Preference, error)
}

// LineItem is one purchasable line as posted by the storefront.
type LineItem struct {
	Title       string
	Description string
	Image       string
	Price       decimal.Decimal
	Quantity    int
}

// LinesFromCart projects cart lines into payment line items.
func LinesFromCart(record *models.CartRecord) []LineItem {
	if record == nil {
		return nil
	}
	lines := make([]LineItem, 0, len(record.Items))
	for _, item := range record.Items {
		line := LineItem{
			Title:       item.Title,
			Description: item.Description,
			Price:       item.UnitPrice,
			Quantity:    item.Quantity,
		}
		if item.Image != nil {
			line.Image = *item.Image
		}
		lines = append(lines, line)
	}
	return lines
}

// CheckoutLink is the redirect handed back to the storefront.
type CheckoutLink struct {
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
}

// Service turns cart lines into a hosted card-payment link.
type Service interface {
	CreateCheckoutLink(ctx context.Context, lines []LineItem) (*CheckoutLink, error)
}

type service struct {
	provider PreferenceCreator
	currency string
}

// NewService wires the payment service against the Mercado Pago client.
func NewService(provider PreferenceCreator, currency string) (Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if currency == "" {
		currency = "ARS"
	}
	return &service{provider: provider, currency: currency}, nil
}

// CreateCheckoutLink builds one preference item per line and returns the
// provider's init point. Empty or malformed lines never reach the provider.
func (s *service) CreateCheckoutLink(ctx context.Context, lines []LineItem) (*CheckoutLink, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items to pay for")
	}

	items := make([]mercadopago.PreferenceItem, 0, len(lines))
	for _, line := range lines {
		if line.Title == "" || line.Quantity <= 0 || line.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment line").
				WithDetails(map[string]any{"title": line.Title})
		}
		items = append(items, mercadopago.PreferenceItem{
			Title:       line.Title,
			Description: line.Description,
			PictureURL:  line.Image,
			Quantity:    line.Quantity,
			UnitPrice:   line.Price,
			CurrencyID:  s.currency,
		})
	}

	pref, err := s.provider.CreatePreference(ctx, items)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment preference")
	}

	return &CheckoutLink{PreferenceID: pref.ID, InitPoint: pref.InitPoint}, nil
}
