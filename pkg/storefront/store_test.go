package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jamrock-club/jamrock-backend/pkg/enums"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
	"github.com/jamrock-club/jamrock-backend/pkg/types"
)

// contractServer emulates the backend REST contract and records every call
// so tests can assert which requests were (not) issued.
type contractServer struct {
	t   *testing.T
	srv *httptest.Server

	mu            sync.Mutex
	cart          *CartPayload
	fetchCalls    int
	createCalls   int
	updateCalls   int
	checkoutCalls int
	paymentCalls  int
	lastCreate    CreateCartRequest
	lastUpdate    UpdateCartRequest
	lastCheckout  CheckoutRequest
	failPayments  bool
	failFetch     bool
	conflictNext  bool
}

func newContractServer(t *testing.T) *contractServer {
	t.Helper()
	cs := &contractServer{t: t}
	cs.srv = httptest.NewServer(http.HandlerFunc(cs.handle))
	t.Cleanup(cs.srv.Close)
	return cs
}

func (cs *contractServer) handle(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/cart/user/") && strings.HasSuffix(path, "/last"):
		cs.fetchCalls++
		if cs.failFetch {
			writeEnvelopeError(w, http.StatusServiceUnavailable, pkgerrors.CodeDependency, "backend unavailable")
			return
		}
		if cs.cart == nil {
			writeEnvelopeError(w, http.StatusNotFound, pkgerrors.CodeNotFound, "no cart for user")
			return
		}
		writeEnvelope(w, http.StatusOK, cs.cart)

	case r.Method == http.MethodPost && path == "/cart/addToCart":
		cs.createCalls++
		if err := json.NewDecoder(r.Body).Decode(&cs.lastCreate); err != nil {
			writeEnvelopeError(w, http.StatusBadRequest, pkgerrors.CodeValidation, "invalid request body")
			return
		}
		cart := &CartPayload{
			ID:             "cart-" + cs.lastCreate.Items[0].ProductID,
			UserID:         cs.lastCreate.UserID,
			Status:         enums.CartStatusInicializado,
			PaymentMethod:  enums.PaymentMethodEfectivo,
			DeliveryMethod: enums.DeliveryMethodRetiro,
			Version:        1,
		}
		if cs.lastCreate.PaymentMethod != "" {
			cart.PaymentMethod = enums.PaymentMethod(cs.lastCreate.PaymentMethod)
		}
		if cs.lastCreate.DeliveryMethod != "" {
			cart.DeliveryMethod = enums.DeliveryMethod(cs.lastCreate.DeliveryMethod)
		}
		if cs.lastCreate.ShippingAddress != nil {
			cart.ShippingAddress = *cs.lastCreate.ShippingAddress
		}
		for _, item := range cs.lastCreate.Items {
			cart.Items = append(cart.Items, CartLine{
				ProductID: item.ProductID,
				Title:     "Producto " + item.ProductID,
				Price:     decimal.RequireFromString("10.00"),
				Quantity:  item.Quantity,
			})
		}
		cart.TotalAmount = totalOf(cart.Items)
		cs.cart = cart
		writeEnvelope(w, http.StatusCreated, cs.cart)

	case r.Method == http.MethodPut && strings.HasPrefix(path, "/cart/update/"):
		cs.updateCalls++
		if cs.conflictNext {
			cs.conflictNext = false
			writeEnvelopeError(w, http.StatusConflict, pkgerrors.CodeConflict, "cart was modified concurrently")
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&cs.lastUpdate); err != nil {
			writeEnvelopeError(w, http.StatusBadRequest, pkgerrors.CodeValidation, "invalid request body")
			return
		}
		cs.applyUpdate()
		writeEnvelope(w, http.StatusOK, cs.cart)

	case r.Method == http.MethodPut && strings.HasPrefix(path, "/cart/checkout/"):
		cs.checkoutCalls++
		if err := json.NewDecoder(r.Body).Decode(&cs.lastCheckout); err != nil {
			writeEnvelopeError(w, http.StatusBadRequest, pkgerrors.CodeValidation, "invalid request body")
			return
		}
		cs.cart.Status = enums.CartStatusPendiente
		cs.cart.Version++
		writeEnvelope(w, http.StatusOK, cs.cart)

	case r.Method == http.MethodPost && path == "/payments/mercadopago":
		cs.paymentCalls++
		if cs.failPayments {
			writeEnvelopeError(w, http.StatusServiceUnavailable, pkgerrors.CodeDependency, "payment provider unavailable")
			return
		}
		writeEnvelope(w, http.StatusOK, PaymentLink{PreferenceID: "pref-1", InitPoint: "https://mp.test/init/pref-1"})

	case r.Method == http.MethodGet && path == "/products/getProducts":
		writeEnvelope(w, http.StatusOK, []Product{})

	default:
		writeEnvelopeError(w, http.StatusNotFound, pkgerrors.CodeNotFound, "no route")
	}
}

func (cs *contractServer) applyUpdate() {
	if cs.cart == nil {
		return
	}
	idx := -1
	for i := range cs.cart.Items {
		if cs.cart.Items[i].ProductID == cs.lastUpdate.ProductID {
			idx = i
			break
		}
	}
	switch cs.lastUpdate.Action {
	case "add":
		if idx >= 0 {
			cs.cart.Items[idx].Quantity++
		} else {
			cs.cart.Items = append(cs.cart.Items, CartLine{
				ProductID: cs.lastUpdate.ProductID,
				Title:     "Producto " + cs.lastUpdate.ProductID,
				Price:     decimal.RequireFromString("10.00"),
				Quantity:  1,
			})
		}
	case "subtract":
		if idx >= 0 {
			cs.cart.Items[idx].Quantity--
			if cs.cart.Items[idx].Quantity <= 0 {
				cs.cart.Items = append(cs.cart.Items[:idx], cs.cart.Items[idx+1:]...)
			}
		}
	case "remove":
		if idx >= 0 {
			cs.cart.Items = append(cs.cart.Items[:idx], cs.cart.Items[idx+1:]...)
		}
	}
	cs.cart.TotalAmount = totalOf(cs.cart.Items)
	cs.cart.Version++
}

func (cs *contractServer) seedCart(status enums.CartStatus, productID string, qty int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cart := &CartPayload{
		ID:             "cart-1",
		UserID:         "user-1",
		Status:         status,
		PaymentMethod:  enums.PaymentMethodEfectivo,
		DeliveryMethod: enums.DeliveryMethodRetiro,
		Version:        1,
		Items: []CartLine{{
			ProductID: productID,
			Title:     "Producto " + productID,
			Price:     decimal.RequireFromString("10.00"),
			Quantity:  qty,
		}},
	}
	cart.TotalAmount = totalOf(cart.Items)
	cs.cart = cart
}

func (cs *contractServer) counts() (fetch, create, update, checkout int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.fetchCalls, cs.createCalls, cs.updateCalls, cs.checkoutCalls
}

func (cs *contractServer) lastCreateReq() CreateCartRequest {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lastCreate
}

func (cs *contractServer) lastUpdateReq() UpdateCartRequest {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lastUpdate
}

func totalOf(items []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(types.SuccessEnvelope{Data: data})
}

func writeEnvelopeError(w http.ResponseWriter, status int, code pkgerrors.Code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(types.ErrorEnvelope{Error: types.APIError{Code: string(code), Message: message}})
}

func newTestStore(t *testing.T, cs *contractServer) (*CartStore, *AuthStore) {
	t.Helper()
	auth := NewAuthStore(NewMemoryStorage())
	if err := auth.SetSession("token-1", &SessionUser{ID: "user-1", Name: "Ana", Role: enums.MemberRoleSocio}); err != nil {
		t.Fatalf("seeding session: %v", err)
	}
	api, err := NewAPIClient(cs.srv.URL, auth.Token)
	if err != nil {
		t.Fatalf("building api client: %v", err)
	}
	store, err := NewCartStore(api, auth, NewMemoryStorage(), nil)
	if err != nil {
		t.Fatalf("building cart store: %v", err)
	}
	return store, auth
}

func TestFetchCartNoServerCartClearsState(t *testing.T) {
	cs := newContractServer(t)
	store, _ := newTestStore(t, cs)

	if err := store.FetchCart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.Items()) != 0 {
		t.Fatalf("expected empty cart, got %+v", store.Items())
	}
	if store.Identity() != nil {
		t.Fatalf("expected nil identity, got %+v", store.Identity())
	}
}

func TestFetchCartTerminalStatusClearsState(t *testing.T) {
	cs := newContractServer(t)
	cs.seedCart(enums.CartStatusEntregado, "p1", 2)
	store, _ := newTestStore(t, cs)

	if err := store.FetchCart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Identity() != nil {
		t.Fatal("terminal cart should not be projected")
	}
}

func TestFetchCartProjectsOpenCart(t *testing.T) {
	cs := newContractServer(t)
	cs.seedCart(enums.CartStatusPendiente, "p1", 2)
	store, _ := newTestStore(t, cs)

	if err := store.FetchCart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	identity := store.Identity()
	if identity == nil || identity.Status != enums.CartStatusPendiente {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	items := store.Items()
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestAddToCartUnauthenticated(t *testing.T) {
	cs := newContractServer(t)
	auth := NewAuthStore(NewMemoryStorage())
	api, err := NewAPIClient(cs.srv.URL, auth.Token)
	if err != nil {
		t.Fatalf("building api client: %v", err)
	}
	store, err := NewCartStore(api, auth, nil, nil)
	if err != nil {
		t.Fatalf("building cart store: %v", err)
	}

	err = store.AddToCart(context.Background(), Product{ID: "p1"}, nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if typed.Message() != "Debes iniciar sesión" {
		t.Fatalf("unexpected message: %s", typed.Message())
	}
	if _, create, update, _ := cs.counts(); create != 0 || update != 0 {
		t.Fatal("no request should be issued without a session")
	}
}

func TestAddToCartCreatesWhenNoCart(t *testing.T) {
	cs := newContractServer(t)
	store, _ := newTestStore(t, cs)

	if err := store.AddToCart(context.Background(), Product{ID: "p1", Price: decimal.RequireFromString("10.00")}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, create, update, _ := cs.counts()
	if create != 1 || update != 0 {
		t.Fatalf("expected one create and no update, got create=%d update=%d", create, update)
	}
	created := cs.lastCreateReq()
	if len(created.Items) != 1 || created.Items[0].ProductID != "p1" || created.Items[0].Quantity != 1 {
		t.Fatalf("unexpected create payload: %+v", created)
	}
	items := store.Items()
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("expected resynced single line, got %+v", items)
	}
}

func TestAddToCartSendsCreateOverrides(t *testing.T) {
	cs := newContractServer(t)
	store, _ := newTestStore(t, cs)

	address := types.ShippingAddress{Name: "Ana", Address: "Av. Corrientes 1234", Phone: "1122334455"}
	err := store.AddToCart(context.Background(), Product{ID: "p1"}, &CreateOverrides{
		PaymentMethod:   "transferencia",
		DeliveryMethod:  "envio",
		ShippingAddress: &address,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created := cs.lastCreateReq()
	if created.PaymentMethod != "transferencia" || created.DeliveryMethod != "envio" {
		t.Fatalf("overrides not serialized: %+v", created)
	}
	if created.ShippingAddress == nil || created.ShippingAddress.Address != "Av. Corrientes 1234" {
		t.Fatalf("shipping address not serialized: %+v", created.ShippingAddress)
	}

	identity := store.Identity()
	if identity == nil {
		t.Fatal("expected resynced identity")
	}
	if identity.PaymentMethod != enums.PaymentMethodTransferencia || identity.DeliveryMethod != enums.DeliveryMethodEnvio {
		t.Fatalf("expected overrides reflected after resync, got %+v", identity)
	}
	if identity.ShippingAddress != address {
		t.Fatalf("expected member address after resync, got %+v", identity.ShippingAddress)
	}
}

func TestAddToCartCreatesWhenCachedCartFrozen(t *testing.T) {
	cs := newContractServer(t)
	cs.seedCart(enums.CartStatusPagado, "p1", 1)
	store, _ := newTestStore(t, cs)

	if err := store.FetchCart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AddToCart(context.Background(), Product{ID: "p2"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, create, update, _ := cs.counts()
	if create != 1 || update != 0 {
		t.Fatalf("frozen cached cart must trigger create, got create=%d update=%d", create, update)
	}
}

func TestAddToCartUpdatesOpenCart(t *testing.T) {
	cs := newContractServer(t)
	cs.seedCart(enums.CartStatusPendiente, "p1", 1)
	store, _ := newTestStore(t, cs)

	if err := store.FetchCart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AddToCart(context.Background(), Product{ID: "p1"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, create, update, _ := cs.counts()
	if create != 0 || update != 1 {
		t.Fatalf("open cart must trigger update, got create=%d update=%d", create, update)
	}
	if got := cs.lastUpdateReq().Action; got != "add" {
		t.Fatalf("expected add action, got %s", got)
	}
	items := store.Items()
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected resynced quantity 2, got %+v", items)
	}
}

func TestUpdateQuantityDirectionMapping(t *testing.T) {
	cs := newContractServer(t)
	cs.seedCart(enums.CartStatusInicializado, "p1", 3)
	store, _ := newTestStore(t, cs)
	if err := store.FetchCart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.UpdateQuantity(context.Background(), "p1", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cs.lastUpdateReq().Action; got != "add" {
		t.Fatalf("positive increment must map to add, got %s", got)
	}

	if err := store.UpdateQuantity(context.Background(), "p1", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cs.lastUpdateReq().Action; got != "subtract" {
		t.Fatalf("non-positive increment must map to subtract, got %s", got)
	}

	if err := store.UpdateQuantity(context.Background(), "p1", -2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cs.lastUpdateReq().Action; got != "subtract" {
		t.Fatalf("negative increment must map to subtract, got %s", got)
	}
}

func TestMutationsBlockedOnFrozenCart(t *testing.T) {
	for _, status := range []enums.CartStatus{
		enums.CartStatusPagado,
		enums.CartStatusPreparacion,
		enums.CartStatusEntregado,
		enums.CartStatusCancelado,
	} {
		t.Run(string(status), func(t *testing.T) {
			cs := newContractServer(t)
			auth := NewAuthStore(NewMemoryStorage())
			if err := auth.SetSession("token-1", &SessionUser{ID: "user-1", Name: "Ana"}); err != nil {
				t.Fatalf("seeding session: %v", err)
			}
			api, err := NewAPIClient(cs.srv.URL, auth.Token)
			if err != nil {
				t.Fatalf("building api client: %v", err)
			}

			// Seed the persisted snapshot so even terminal statuses are cached
			// locally, as a stale tab would have them.
			storage := NewMemoryStorage()
			snap := cartSnapshot{
				Items:    []CartLine{{ProductID: "p1", Title: "Producto p1", Price: decimal.RequireFromString("10.00"), Quantity: 1}},
				Identity: &CartIdentity{ID: "cart-1", Status: status, Version: 1},
			}
			raw, _ := json.Marshal(snap)
			if err := storage.Save(cartStorageKey, raw); err != nil {
				t.Fatalf("seeding storage: %v", err)
			}

			store, err := NewCartStore(api, auth, storage, nil)
			if err != nil {
				t.Fatalf("building cart store: %v", err)
			}

			if err := store.UpdateQuantity(context.Background(), "p1", 1); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := store.RemoveFromCart(context.Background(), "p1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if _, _, update, _ := cs.counts(); update != 0 {
				t.Fatalf("frozen cart must not issue mutating requests, got %d", update)
			}
			if len(store.Items()) != 1 {
				t.Fatal("state must be unchanged")
			}
		})
	}
}

func TestCheckoutTransitionsAndRefreshesCatalog(t *testing.T) {
	cs := newContractServer(t)
	cs.seedCart(enums.CartStatusInicializado, "p1", 2)

	refreshed := 0
	auth := NewAuthStore(NewMemoryStorage())
	if err := auth.SetSession("token-1", &SessionUser{ID: "user-1", Name: "Ana"}); err != nil {
		t.Fatalf("seeding session: %v", err)
	}
	api, err := NewAPIClient(cs.srv.URL, auth.Token)
	if err != nil {
		t.Fatalf("building api client: %v", err)
	}
	store, err := NewCartStore(api, auth, nil, func(ctx context.Context) error {
		refreshed++
		return nil
	})
	if err != nil {
		t.Fatalf("building cart store: %v", err)
	}

	if err := store.FetchCart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, err := store.Checkout(context.Background(), CheckoutRequest{
		PaymentMethod:  "efectivo",
		DeliveryMethod: "retiro",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Status != enums.CartStatusPendiente {
		t.Fatalf("expected pendiente, got %s", payload.Status)
	}
	if _, _, _, checkout := cs.counts(); checkout != 1 {
		t.Fatalf("expected one checkout call, got %d", checkout)
	}
	if refreshed != 1 {
		t.Fatalf("expected catalog refresh, got %d", refreshed)
	}
	identity := store.Identity()
	if identity == nil || identity.Status != enums.CartStatusPendiente {
		t.Fatalf("expected resynced pendiente identity, got %+v", identity)
	}
}

func TestCheckoutReturnsPayloadWhenResyncFails(t *testing.T) {
	cs := newContractServer(t)
	cs.seedCart(enums.CartStatusInicializado, "p1", 2)
	store, _ := newTestStore(t, cs)
	if err := store.FetchCart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cs.mu.Lock()
	cs.failFetch = true
	cs.mu.Unlock()

	payload, err := store.Checkout(context.Background(), CheckoutRequest{
		PaymentMethod:  "efectivo",
		DeliveryMethod: "retiro",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error from resync, got %v", err)
	}
	if payload == nil || payload.Status != enums.CartStatusPendiente {
		t.Fatalf("expected placed order payload despite resync failure, got %+v", payload)
	}
	if _, _, _, checkout := cs.counts(); checkout != 1 {
		t.Fatalf("expected one checkout call, got %d", checkout)
	}
}

func TestCheckoutWithoutCart(t *testing.T) {
	cs := newContractServer(t)
	store, _ := newTestStore(t, cs)

	_, err := store.Checkout(context.Background(), CheckoutRequest{PaymentMethod: "efectivo", DeliveryMethod: "retiro"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, _, checkout := cs.counts(); checkout != 0 {
		t.Fatal("no checkout request should be issued without a cart")
	}
}

func TestUpdateConflictSurfacesTypedError(t *testing.T) {
	cs := newContractServer(t)
	cs.seedCart(enums.CartStatusInicializado, "p1", 1)
	store, _ := newTestStore(t, cs)
	if err := store.FetchCart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cs.mu.Lock()
	cs.conflictNext = true
	cs.mu.Unlock()

	err := store.UpdateQuantity(context.Background(), "p1", 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestClearWipesStateAndStorage(t *testing.T) {
	cs := newContractServer(t)
	cs.seedCart(enums.CartStatusInicializado, "p1", 1)
	store, _ := newTestStore(t, cs)
	if err := store.FetchCart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.Clear()
	if store.Identity() != nil || len(store.Items()) != 0 {
		t.Fatal("expected cleared state")
	}
}

func TestToggleVisibility(t *testing.T) {
	cs := newContractServer(t)
	store, _ := newTestStore(t, cs)

	if store.Visible() {
		t.Fatal("cart panel should start hidden")
	}
	store.ToggleVisibility()
	if !store.Visible() {
		t.Fatal("expected visible after toggle")
	}
	store.ToggleVisibility()
	if store.Visible() {
		t.Fatal("expected hidden after second toggle")
	}
}
