package storefront

import (
	"context"
	"strings"
	"testing"

	"github.com/jamrock-club/jamrock-backend/pkg/enums"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
)

type stubNotifier struct {
	successes []string
	errors    []string
}

func (n *stubNotifier) Success(message string) { n.successes = append(n.successes, message) }
func (n *stubNotifier) Error(message string)   { n.errors = append(n.errors, message) }

type stubNavigator struct {
	paths     []string
	redirects []string
}

func (n *stubNavigator) NavigateTo(path string) { n.paths = append(n.paths, path) }
func (n *stubNavigator) Redirect(url string)    { n.redirects = append(n.redirects, url) }

type stubClipboard struct {
	texts []string
	err   error
}

func (c *stubClipboard) WriteText(text string) error {
	c.texts = append(c.texts, text)
	return c.err
}

type stubMessages struct {
	urls []string
}

func (m *stubMessages) OpenMessage(url string) error {
	m.urls = append(m.urls, url)
	return nil
}

type checkoutFixture struct {
	cs        *contractServer
	store     *CartStore
	wizard    *Wizard
	handler   *CheckoutHandler
	notifier  *stubNotifier
	navigator *stubNavigator
	clipboard *stubClipboard
	messages  *stubMessages
}

func newCheckoutFixture(t *testing.T, status enums.CartStatus) *checkoutFixture {
	t.Helper()
	cs := newContractServer(t)
	cs.seedCart(status, "p1", 2)

	auth := NewAuthStore(NewMemoryStorage())
	if err := auth.SetSession("token-1", &SessionUser{ID: "user-1", Name: "Ana"}); err != nil {
		t.Fatalf("seeding session: %v", err)
	}
	api, err := NewAPIClient(cs.srv.URL, auth.Token)
	if err != nil {
		t.Fatalf("building api client: %v", err)
	}
	store, err := NewCartStore(api, auth, nil, nil)
	if err != nil {
		t.Fatalf("building cart store: %v", err)
	}
	if err := store.FetchCart(context.Background()); err != nil {
		t.Fatalf("fetching cart: %v", err)
	}

	f := &checkoutFixture{
		cs:        cs,
		store:     store,
		wizard:    NewWizard(),
		notifier:  &stubNotifier{},
		navigator: &stubNavigator{},
		clipboard: &stubClipboard{},
		messages:  &stubMessages{},
	}
	f.handler, err = NewCheckoutHandler(store, api, f.wizard, Hooks{
		Notifier:  f.notifier,
		Navigator: f.navigator,
		Clipboard: f.clipboard,
		Messages:  f.messages,
	}, "5491122334455", "/pedido")
	if err != nil {
		t.Fatalf("building handler: %v", err)
	}
	return f
}

func validForm() CheckoutForm {
	return CheckoutForm{
		Name:          "Ana",
		Phone:         "1122334455",
		PaymentMethod: "efectivo",
		DeliveryType:  "retiro",
	}
}

func TestHandleCheckoutCashOrder(t *testing.T) {
	f := newCheckoutFixture(t, enums.CartStatusInicializado)
	f.wizard.Next()
	f.wizard.Next()
	f.wizard.Next()

	if err := f.handler.HandleCheckout(context.Background(), validForm()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, _, checkout := f.cs.counts(); checkout != 1 {
		t.Fatalf("expected one checkout call, got %d", checkout)
	}
	if f.wizard.Step() != 0 {
		t.Fatalf("wizard must reset, got step %d", f.wizard.Step())
	}
	if len(f.navigator.paths) != 1 || f.navigator.paths[0] != "/pedido" {
		t.Fatalf("expected navigation to /pedido, got %v", f.navigator.paths)
	}
	if len(f.notifier.successes) != 1 || f.notifier.successes[0] != "Pedido realizado con éxito" {
		t.Fatalf("unexpected notifications: %v", f.notifier.successes)
	}
	if len(f.messages.urls) != 1 || !strings.HasPrefix(f.messages.urls[0], "https://wa.me/5491122334455?text=") {
		t.Fatalf("expected whatsapp deep link, got %v", f.messages.urls)
	}
}

func TestHandleCheckoutSucceedsWhenResyncFails(t *testing.T) {
	f := newCheckoutFixture(t, enums.CartStatusInicializado)
	f.wizard.Next()
	f.wizard.Next()
	f.wizard.Next()
	f.cs.mu.Lock()
	f.cs.failFetch = true
	f.cs.mu.Unlock()

	if err := f.handler.HandleCheckout(context.Background(), validForm()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, _, checkout := f.cs.counts(); checkout != 1 {
		t.Fatalf("expected one checkout call, got %d", checkout)
	}
	if f.wizard.Step() != 0 {
		t.Fatalf("wizard must reset, got step %d", f.wizard.Step())
	}
	if len(f.navigator.paths) != 1 || f.navigator.paths[0] != "/pedido" {
		t.Fatalf("expected navigation to /pedido, got %v", f.navigator.paths)
	}
	if len(f.notifier.errors) != 0 {
		t.Fatalf("placed order must not report failure, got %v", f.notifier.errors)
	}
	if len(f.notifier.successes) != 1 || f.notifier.successes[0] != "Pedido realizado con éxito" {
		t.Fatalf("unexpected notifications: %v", f.notifier.successes)
	}
}

func TestHandleCheckoutValidationStopsBeforeNetwork(t *testing.T) {
	cases := []struct {
		name string
		form CheckoutForm
		want string
	}{
		{"missing name", CheckoutForm{Phone: "11", PaymentMethod: "efectivo", DeliveryType: "retiro"}, "El nombre es obligatorio"},
		{"missing phone", CheckoutForm{Name: "Ana", PaymentMethod: "efectivo", DeliveryType: "retiro"}, "El teléfono es obligatorio"},
		{"envio without address", CheckoutForm{Name: "Ana", Phone: "11", PaymentMethod: "efectivo", DeliveryType: "envio"}, "La dirección es obligatoria para envío"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCheckoutFixture(t, enums.CartStatusInicializado)
			f.wizard.Next()
			f.wizard.Next()
			f.wizard.Next()

			err := f.handler.HandleCheckout(context.Background(), tc.form)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if typed.Message() != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, typed.Message())
			}
			if _, _, _, checkout := f.cs.counts(); checkout != 0 {
				t.Fatal("validation failure must not reach the network")
			}
			if f.wizard.Step() != wizardLastStep {
				t.Fatalf("wizard must stay put, got step %d", f.wizard.Step())
			}
			if len(f.notifier.errors) != 1 {
				t.Fatalf("expected one error notification, got %v", f.notifier.errors)
			}
		})
	}
}

func TestHandleCheckoutFrozenCart(t *testing.T) {
	f := newCheckoutFixture(t, enums.CartStatusPagado)

	err := f.handler.HandleCheckout(context.Background(), validForm())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCartFrozen {
		t.Fatalf("expected frozen error, got %v", err)
	}
	if _, _, _, checkout := f.cs.counts(); checkout != 0 {
		t.Fatal("frozen cart must not issue a checkout request")
	}
}

func TestHandleMercadoPagoRedirectsAfterCheckout(t *testing.T) {
	f := newCheckoutFixture(t, enums.CartStatusInicializado)
	form := validForm()
	form.PaymentMethod = "tarjeta"

	if err := f.handler.HandleMercadoPago(context.Background(), form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.cs.mu.Lock()
	payments := f.cs.paymentCalls
	f.cs.mu.Unlock()
	if payments != 1 {
		t.Fatalf("expected one payment call, got %d", payments)
	}
	if _, _, _, checkout := f.cs.counts(); checkout != 1 {
		t.Fatalf("expected one checkout call, got %d", checkout)
	}
	if len(f.navigator.redirects) != 1 || f.navigator.redirects[0] != "https://mp.test/init/pref-1" {
		t.Fatalf("expected redirect to init point, got %v", f.navigator.redirects)
	}
	if f.wizard.Step() != 0 {
		t.Fatalf("wizard must reset, got step %d", f.wizard.Step())
	}
}

func TestHandleMercadoPagoLinkFailureLeavesCartOpen(t *testing.T) {
	f := newCheckoutFixture(t, enums.CartStatusInicializado)
	f.cs.mu.Lock()
	f.cs.failPayments = true
	f.cs.mu.Unlock()
	form := validForm()
	form.PaymentMethod = "tarjeta"

	err := f.handler.HandleMercadoPago(context.Background(), form)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if _, _, _, checkout := f.cs.counts(); checkout != 0 {
		t.Fatal("link failure must not record the order")
	}
	if len(f.navigator.redirects) != 0 {
		t.Fatalf("link failure must not redirect, got %v", f.navigator.redirects)
	}
	identity := f.store.Identity()
	if identity == nil || identity.Status != enums.CartStatusInicializado {
		t.Fatalf("cart must stay open, got %+v", identity)
	}
}

func TestCopyToClipboardNotifies(t *testing.T) {
	f := newCheckoutFixture(t, enums.CartStatusInicializado)

	f.handler.CopyToClipboard("alias.jamrock")
	if len(f.clipboard.texts) != 1 || f.clipboard.texts[0] != "alias.jamrock" {
		t.Fatalf("unexpected clipboard writes: %v", f.clipboard.texts)
	}
	if len(f.notifier.successes) != 1 {
		t.Fatalf("expected copy confirmation, got %v", f.notifier.successes)
	}
}
