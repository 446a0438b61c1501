package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/jamrock-club/jamrock-backend/api/responses"
	paymentsvc "github.com/jamrock-club/jamrock-backend/internal/payments"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
	"github.com/jamrock-club/jamrock-backend/pkg/logger"
)

// PaymentLineRequest is one line posted to the card-payment endpoint.
type PaymentLineRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// PaymentCreateLink exchanges cart lines for a hosted payment link. The body
// is a bare JSON array, matching what the storefront posts.
func PaymentCreateLink(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		defer io.Copy(io.Discard, r.Body)

		var payload []PaymentLineRequest
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&payload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}

		lines := make([]paymentsvc.LineItem, 0, len(payload))
		for _, item := range payload {
			lines = append(lines, paymentsvc.LineItem{
				Title:       item.Title,
				Description: item.Description,
				Image:       item.Image,
				Price:       item.Price,
				Quantity:    item.Quantity,
			})
		}

		link, err := svc.CreateCheckoutLink(r.Context(), lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, link)
	}
}
