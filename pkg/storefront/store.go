package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jamrock-club/jamrock-backend/pkg/enums"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
	"github.com/jamrock-club/jamrock-backend/pkg/types"
)

const cartStorageKey = "jamrock.cart"

// CartIdentity is the cached projection of the server-side cart record. The
// server owns it; the store re-fetches to observe transitions made by staff.
type CartIdentity struct {
	ID              string                `json:"id"`
	Status          enums.CartStatus      `json:"status"`
	PaymentMethod   enums.PaymentMethod   `json:"paymentMethod"`
	DeliveryMethod  enums.DeliveryMethod  `json:"deliveryMethod"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	Version         int                   `json:"version"`
}

// CreateOverrides are the optional payment/delivery/address values applied
// when an add has to open a fresh cart.
type CreateOverrides struct {
	PaymentMethod   string
	DeliveryMethod  string
	ShippingAddress *types.ShippingAddress
}

// CatalogRefresher is invoked after a successful checkout so product stock
// shown elsewhere picks up the server-side decrements.
type CatalogRefresher func(ctx context.Context) error

type cartSnapshot struct {
	Items    []CartLine    `json:"items"`
	Identity *CartIdentity `json:"identity,omitempty"`
	Visible  bool          `json:"visible"`
}

// CartStore caches the member's cart and mediates every mutation through the
// backend: mutate, then re-fetch, never trust local math.
type CartStore struct {
	mu             sync.Mutex
	api            *APIClient
	auth           *AuthStore
	storage        Storage
	refreshCatalog CatalogRefresher

	items    []CartLine
	identity *CartIdentity
	visible  bool
}

// NewCartStore wires the store and hydrates any persisted snapshot.
func NewCartStore(api *APIClient, auth *AuthStore, storage Storage, refresh CatalogRefresher) (*CartStore, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if auth == nil {
		return nil, fmt.Errorf("auth store required")
	}
	s := &CartStore{api: api, auth: auth, storage: storage, refreshCatalog: refresh}
	s.hydrate()
	return s, nil
}

// Items returns a copy of the cached cart lines.
func (s *CartStore) Items() []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CartLine, len(s.items))
	copy(out, s.items)
	return out
}

// Identity returns a copy of the cached cart identity, nil when no cart is
// referenced.
func (s *CartStore) Identity() *CartIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	clone := *s.identity
	return &clone
}

// Visible reports whether the cart panel is open.
func (s *CartStore) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// ToggleVisibility flips the cart panel. Local only.
func (s *CartStore) ToggleVisibility() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = !s.visible
	s.persistLocked()
}

// Clear wipes cart state and storage; used on logout.
func (s *CartStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearStateLocked()
	if s.storage != nil {
		s.storage.Clear(cartStorageKey)
	}
}

// FetchCart pulls the member's latest cart and projects it into local state.
// A terminal or unknown status, or no cart at all, leaves the state cleared
// so the next session starts empty.
func (s *CartStore) FetchCart(ctx context.Context) error {
	user, err := s.auth.RequireSession()
	if err != nil {
		return err
	}

	payload, err := s.api.FetchLastCart(ctx, user.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.clearStateLocked()
		s.persistLocked()
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}

	if !payload.Status.IsValid() || payload.Status.IsTerminal() {
		s.clearStateLocked()
		s.persistLocked()
		return nil
	}

	s.projectLocked(payload)
	s.persistLocked()
	return nil
}

// AddToCart adds one unit of the product. With no usable cart (none cached,
// or cached one frozen) it opens a fresh cart with club defaults; otherwise
// it adds to the open cart. Always re-fetches afterwards.
func (s *CartStore) AddToCart(ctx context.Context, product Product, overrides *CreateOverrides) error {
	user, err := s.auth.RequireSession()
	if err != nil {
		return err
	}
	if product.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()

	if identity == nil || identity.Status.IsFrozen() {
		req := CreateCartRequest{
			UserID: user.ID,
			Items:  []CreateCartItem{{ProductID: product.ID, Quantity: 1}},
		}
		if overrides != nil {
			req.PaymentMethod = overrides.PaymentMethod
			req.DeliveryMethod = overrides.DeliveryMethod
			req.ShippingAddress = overrides.ShippingAddress
		}
		if _, err := s.api.CreateCart(ctx, req); err != nil {
			return err
		}
	} else {
		req := UpdateCartRequest{
			ProductID: product.ID,
			Action:    enums.ItemActionAdd.String(),
			Version:   identity.Version,
		}
		if _, err := s.api.UpdateCart(ctx, identity.ID, req); err != nil {
			return err
		}
	}

	return s.FetchCart(ctx)
}

// UpdateQuantity maps a positive increment to an add action and anything else
// to subtract. No open cart means no request at all.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, increment int) error {
	action := enums.ItemActionAdd
	if increment <= 0 {
		action = enums.ItemActionSubtract
	}
	return s.mutateLine(ctx, productID, action)
}

// RemoveFromCart drops the product's line. No open cart means no request.
func (s *CartStore) RemoveFromCart(ctx context.Context, productID string) error {
	return s.mutateLine(ctx, productID, enums.ItemActionRemove)
}

// Checkout finalizes the open cart, re-fetches, and refreshes the catalog
// (stock changed server-side). The response is returned for UI follow-up.
// Once the server accepts the checkout the order exists, so a failing resync
// or catalog refresh still returns the payload next to the error; local
// state catches up on the next fetch.
func (s *CartStore) Checkout(ctx context.Context, req CheckoutRequest) (*CartPayload, error) {
	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()

	if identity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no cart to checkout")
	}
	if identity.Status.IsFrozen() {
		return nil, pkgerrors.New(pkgerrors.CodeCartFrozen, "cart can no longer be modified").
			WithDetails(map[string]any{"status": identity.Status.String()})
	}

	req.Version = identity.Version
	payload, err := s.api.CheckoutCart(ctx, identity.ID, req)
	if err != nil {
		return nil, err
	}

	if err := s.FetchCart(ctx); err != nil {
		return payload, err
	}
	if s.refreshCatalog != nil {
		if err := s.refreshCatalog(ctx); err != nil {
			return payload, err
		}
	}
	return payload, nil
}

func (s *CartStore) mutateLine(ctx context.Context, productID string, action enums.ItemAction) error {
	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()

	if identity == nil || identity.Status.IsFrozen() {
		return nil
	}

	req := UpdateCartRequest{
		ProductID: productID,
		Action:    action.String(),
		Version:   identity.Version,
	}
	if _, err := s.api.UpdateCart(ctx, identity.ID, req); err != nil {
		return err
	}
	return s.FetchCart(ctx)
}

func (s *CartStore) projectLocked(payload *CartPayload) {
	s.items = make([]CartLine, len(payload.Items))
	copy(s.items, payload.Items)
	s.identity = &CartIdentity{
		ID:              payload.ID,
		Status:          payload.Status,
		PaymentMethod:   payload.PaymentMethod,
		DeliveryMethod:  payload.DeliveryMethod,
		ShippingAddress: payload.ShippingAddress,
		Version:         payload.Version,
	}
}

func (s *CartStore) clearStateLocked() {
	s.items = nil
	s.identity = nil
}

func (s *CartStore) hydrate() {
	if s.storage == nil {
		return
	}
	raw, ok, err := s.storage.Load(cartStorageKey)
	if err != nil || !ok {
		return
	}
	var snap cartSnapshot
	if json.Unmarshal(raw, &snap) == nil {
		s.items = snap.Items
		s.identity = snap.Identity
		s.visible = snap.Visible
	}
}

func (s *CartStore) persistLocked() {
	if s.storage == nil {
		return
	}
	raw, err := json.Marshal(cartSnapshot{Items: s.items, Identity: s.identity, Visible: s.visible})
	if err != nil {
		return
	}
	s.storage.Save(cartStorageKey, raw)
}
