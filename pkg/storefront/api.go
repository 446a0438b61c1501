package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jamrock-club/jamrock-backend/pkg/enums"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
	"github.com/jamrock-club/jamrock-backend/pkg/types"
)

// CartPayload is the wire shape of a cart as returned by the backend.
type CartPayload struct {
	ID              string                `json:"id"`
	UserID          string                `json:"userId"`
	Status          enums.CartStatus      `json:"status"`
	PaymentMethod   enums.PaymentMethod   `json:"paymentMethod"`
	DeliveryMethod  enums.DeliveryMethod  `json:"deliveryMethod"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	CustomerInfo    *types.CustomerInfo   `json:"customerInfo,omitempty"`
	ReceiptURL      *string               `json:"receiptUrl,omitempty"`
	TotalAmount     decimal.Decimal       `json:"totalAmount"`
	Version         int                   `json:"version"`
	Items           []CartLine            `json:"items"`
}

// CartLine is one snapshotted product line on a cart.
type CartLine struct {
	ProductID   string          `json:"productId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Product is a catalog listing as served by the backend.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Stock       int             `json:"stock"`
}

// CreateCartRequest is the addToCart creation payload.
type CreateCartRequest struct {
	UserID          string                 `json:"userId"`
	Items           []CreateCartItem       `json:"items"`
	PaymentMethod   string                 `json:"paymentMethod,omitempty"`
	DeliveryMethod  string                 `json:"deliveryMethod,omitempty"`
	ShippingAddress *types.ShippingAddress `json:"shippingAddress,omitempty"`
}

type CreateCartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartRequest carries one add/subtract/remove line action.
type UpdateCartRequest struct {
	ProductID string `json:"productId"`
	Action    string `json:"action"`
	Version   int    `json:"version,omitempty"`
}

// CheckoutRequest finalizes a cart.
type CheckoutRequest struct {
	PaymentMethod   string                 `json:"paymentMethod"`
	DeliveryMethod  string                 `json:"deliveryMethod"`
	ShippingAddress *types.ShippingAddress `json:"shippingAddress,omitempty"`
	CustomerInfo    *types.CustomerInfo    `json:"customerInfo,omitempty"`
	ReceiptURL      *string                `json:"receiptUrl,omitempty"`
	Version         int                    `json:"version,omitempty"`
}

// PaymentLine is one line posted to the card-payment endpoint.
type PaymentLine struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// PaymentLink is the card-payment redirect handed back by the backend.
type PaymentLink struct {
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
}

// APIClient talks to the storefront backend. Tokens are read per request so
// login/logout during the client's lifetime is picked up.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
	tokenFunc  func() string
}

// NewAPIClient builds a client for the given base URL. tokenFunc may be nil
// for unauthenticated use (catalog only).
func NewAPIClient(baseURL string, tokenFunc func() string) (*APIClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	return &APIClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokenFunc:  tokenFunc,
	}, nil
}

// FetchLastCart returns the user's most recent cart. A NOT_FOUND response is
// surfaced as a typed error for the store to interpret.
func (c *APIClient) FetchLastCart(ctx context.Context, userID string) (*CartPayload, error) {
	var out CartPayload
	if err := c.do(ctx, http.MethodGet, "/cart/user/"+userID+"/last", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCart opens a new cart.
func (c *APIClient) CreateCart(ctx context.Context, req CreateCartRequest) (*CartPayload, error) {
	var out CartPayload
	if err := c.do(ctx, http.MethodPost, "/cart/addToCart", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCart applies a line action to an open cart.
func (c *APIClient) UpdateCart(ctx context.Context, cartID string, req UpdateCartRequest) (*CartPayload, error) {
	var out CartPayload
	if err := c.do(ctx, http.MethodPut, "/cart/update/"+cartID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckoutCart finalizes an open cart into a pending order.
func (c *APIClient) CheckoutCart(ctx context.Context, cartID string, req CheckoutRequest) (*CartPayload, error) {
	var out CartPayload
	if err := c.do(ctx, http.MethodPut, "/cart/checkout/"+cartID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePaymentLink exchanges cart lines for a hosted card-payment link.
func (c *APIClient) CreatePaymentLink(ctx context.Context, lines []PaymentLine) (*PaymentLink, error) {
	var out PaymentLink
	if err := c.do(ctx, http.MethodPost, "/payments/mercadopago", lines, &out); err != nil {
		return nil, err
	}
	if out.InitPoint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment link response missing init_point")
	}
	return &out, nil
}

// FetchProducts returns the active catalog.
func (c *APIClient) FetchProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/products/getProducts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, dest any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request")
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokenFunc != nil {
		if token := c.tokenFunc(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storefront backend unreachable")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, raw)
	}

	if dest == nil {
		return nil
	}
	wrapper := struct {
		Data any `json:"data"`
	}{Data: dest}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
	}
	return nil
}

// decodeAPIError maps the backend's error envelope onto a typed error,
// falling back to the HTTP status when the body is not the known shape.
func decodeAPIError(status int, raw []byte) *pkgerrors.Error {
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		return pkgerrors.New(pkgerrors.Code(envelope.Error.Code), envelope.Error.Message).
			WithDetails(envelope.Error.Details)
	}

	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	case http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
	case http.StatusConflict:
		return pkgerrors.New(pkgerrors.CodeConflict, "conflict detected")
	}
	return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("backend returned status %d", status))
}
