package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jamrock-club/jamrock-backend/pkg/config"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
	"github.com/jamrock-club/jamrock-backend/pkg/logger"
)

const preferencesPath = "/checkout/preferences"

var (
	errAccessTokenRequired = errors.New("mercadopago access token is required")
	errLoggerRequired      = errors.New("mercadopago logger is required")
)

// Client wraps Mercado Pago's Checkout Pro preference API with centralized
// auth, logging, and error mapping.
type Client struct {
	httpClient  *http.Client
	accessToken string
	baseURL     string
	successURL  string
	failureURL  string
	logger      *logger.Logger
}

// PreferenceItem is one purchasable line sent to the payment provider.
type PreferenceItem struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	PictureURL  string          `json:"picture_url,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CurrencyID  string          `json:"currency_id,omitempty"`
}

// Preference is the subset of the provider response the platform consumes.
type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

type preferenceRequest struct {
	Items    []PreferenceItem `json:"items"`
	BackURLs *backURLs        `json:"back_urls,omitempty"`
}

type backURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
}

// NewClient initializes the Mercado Pago wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MercadoPagoConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.mercadopago.com"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		accessToken: accessToken,
		baseURL:     baseURL,
		successURL:  strings.TrimSpace(cfg.SuccessURL),
		failureURL:  strings.TrimSpace(cfg.FailureURL),
		logger:      logg,
	}

	logg.Info(ctx, "mercadopago client initialized")
	return c, nil
}

// CreatePreference registers the items with the provider and returns the
// hosted checkout link (init_point).
func (c *Client) CreatePreference(ctx context.Context, items []PreferenceItem) (*Preference, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mercadopago client unavailable")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
	}

	payload := preferenceRequest{Items: items}
	if c.successURL != "" || c.failureURL != "" {
		payload.BackURLs = &backURLs{Success: c.successURL, Failure: c.failureURL}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode preference")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+preferencesPath, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build preference request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call mercadopago")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read mercadopago response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("mercadopago returned status %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": string(raw)})
	}

	var pref Preference
	if err := json.Unmarshal(raw, &pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode mercadopago response")
	}
	if pref.InitPoint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercadopago response missing init_point")
	}
	return &pref, nil
}
