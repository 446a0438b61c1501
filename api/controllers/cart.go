package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jamrock-club/jamrock-backend/api/middleware"
	"github.com/jamrock-club/jamrock-backend/api/responses"
	"github.com/jamrock-club/jamrock-backend/api/validators"
	cartsvc "github.com/jamrock-club/jamrock-backend/internal/cart"
	"github.com/jamrock-club/jamrock-backend/pkg/enums"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
	"github.com/jamrock-club/jamrock-backend/pkg/logger"
	"github.com/jamrock-club/jamrock-backend/pkg/types"
)

// CreateCartRequest mirrors the storefront's addToCart payload. Payment,
// delivery, and shipping overrides are honored when present; the total is
// recomputed server-side and the client's copy ignored.
type CreateCartRequest struct {
	UserID          uuid.UUID              `json:"userId"`
	Items           []CreateCartItem       `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string                 `json:"paymentMethod"`
	DeliveryMethod  string                 `json:"deliveryMethod"`
	ShippingAddress *types.ShippingAddress `json:"shippingAddress"`
	TotalAmount     *decimal.Decimal       `json:"totalAmount"`
}

type CreateCartItem struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// UpdateCartRequest carries one line action. The storefront's add path may
// spread full item fields into the body; they ride along unused.
type UpdateCartRequest struct {
	ProductID   uuid.UUID        `json:"productId" validate:"required"`
	Action      string           `json:"action" validate:"required,oneof=add subtract remove"`
	Version     int              `json:"version"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int             `json:"quantity"`
}

type CheckoutRequest struct {
	PaymentMethod   string                 `json:"paymentMethod" validate:"required"`
	DeliveryMethod  string                 `json:"deliveryMethod" validate:"required"`
	ShippingAddress *types.ShippingAddress `json:"shippingAddress"`
	CustomerInfo    *types.CustomerInfo    `json:"customerInfo"`
	ReceiptURL      *string                `json:"receiptUrl"`
	Version         int                    `json:"version"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CartFetchLast returns the authenticated member's most recent cart.
func CartFetchLast(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := validators.UUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := requireSelfOrStaff(r, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetLastCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartCreate opens a new cart for the authenticated member.
func CartCreate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload CreateCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.UserID != uuid.Nil && payload.UserID != userID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user id mismatch"))
			return
		}

		input := cartsvc.NewCartInput{
			UserID:          userID,
			UserName:        middleware.UserNameFromContext(r.Context()),
			ShippingAddress: payload.ShippingAddress,
		}
		if payload.PaymentMethod != "" {
			paymentMethod, err := enums.ParsePaymentMethod(payload.PaymentMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
			input.PaymentMethod = paymentMethod
		}
		if payload.DeliveryMethod != "" {
			deliveryMethod, err := enums.ParseDeliveryMethod(payload.DeliveryMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method"))
				return
			}
			input.DeliveryMethod = deliveryMethod
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, cartsvc.NewItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		record, err := svc.CreateCart(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithCartID(r.Context(), record.ID.String()), "cart.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(record))
	}
}

// CartUpdate applies an add/subtract/remove action to a cart line.
func CartUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cartID, err := validators.UUIDParam(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := enums.ParseItemAction(payload.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action"))
			return
		}

		record, err := svc.UpdateCart(r.Context(), cartsvc.UpdateInput{
			CartID:    cartID,
			UserID:    userID,
			ProductID: payload.ProductID,
			Action:    action,
			Version:   payload.Version,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartCheckout finalizes a cart into a pending order.
func CartCheckout(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cartID, err := validators.UUIDParam(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload CheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentMethod, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		deliveryMethod, err := enums.ParseDeliveryMethod(payload.DeliveryMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method"))
			return
		}

		record, err := svc.Checkout(r.Context(), cartsvc.CheckoutInput{
			CartID:          cartID,
			UserID:          userID,
			PaymentMethod:   paymentMethod,
			DeliveryMethod:  deliveryMethod,
			ShippingAddress: payload.ShippingAddress,
			CustomerInfo:    payload.CustomerInfo,
			ReceiptURL:      payload.ReceiptURL,
			Version:         payload.Version,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithCartID(r.Context(), record.ID.String()), "cart.checkout")
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartAdvanceStatus is the staff endpoint that moves an order along the
// fulfilment machine.
func CartAdvanceStatus(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := validators.UUIDParam(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload StatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseCartStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		record, err := svc.AdvanceStatus(r.Context(), cartID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithCartID(r.Context(), record.ID.String()), "cart.status_advanced")
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

func authedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

func requireSelfOrStaff(r *http.Request, userID uuid.UUID) error {
	authed, err := authedUserID(r)
	if err != nil {
		return err
	}
	if authed == userID {
		return nil
	}
	role := enums.MemberRole(middleware.RoleFromContext(r.Context()))
	if role == enums.MemberRoleEspecialist || role == enums.MemberRoleAdmin {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "cannot access another member's cart")
}
