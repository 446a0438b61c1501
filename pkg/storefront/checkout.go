package storefront

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
	"github.com/jamrock-club/jamrock-backend/pkg/types"
)

// Notifier surfaces transient user-facing messages (toasts).
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Navigator performs in-app navigation and full external redirects.
type Navigator interface {
	NavigateTo(path string)
	Redirect(url string)
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteText(text string) error
}

// MessageOpener opens a messaging deep link in a new context.
type MessageOpener interface {
	OpenMessage(url string) error
}

// Hooks bundles the side-effect surfaces the checkout handler drives. Keeping
// them injected means the cart store never touches navigation or messaging.
type Hooks struct {
	Notifier  Notifier
	Navigator Navigator
	Clipboard Clipboard
	Messages  MessageOpener
}

// CheckoutForm is the transient wizard form state; it lives only for the
// single submission.
type CheckoutForm struct {
	Name          string
	Phone         string
	Address       string
	PaymentMethod string
	DeliveryType  string
	ReceiptURL    string
}

// CheckoutHandler orchestrates the wizard's terminal actions over the cart
// store. It holds no state beyond its wiring.
type CheckoutHandler struct {
	store       *CartStore
	api         *APIClient
	wizard      *Wizard
	hooks       Hooks
	orderPhone  string
	successPath string
}

// NewCheckoutHandler wires the handler. orderPhone is the club's WhatsApp
// number for manual order confirmation; successPath is the order-status view.
func NewCheckoutHandler(store *CartStore, api *APIClient, wizard *Wizard, hooks Hooks, orderPhone, successPath string) (*CheckoutHandler, error) {
	if store == nil || api == nil || wizard == nil {
		return nil, fmt.Errorf("store, api client, and wizard are required")
	}
	if successPath == "" {
		successPath = "/pedido"
	}
	return &CheckoutHandler{
		store:       store,
		api:         api,
		wizard:      wizard,
		hooks:       hooks,
		orderPhone:  orderPhone,
		successPath: successPath,
	}, nil
}

// HandleCheckout validates the form, persists the order, and for non-card
// payments opens the WhatsApp confirmation message. The wizard resets and
// navigation fires only on success; any failure leaves the wizard untouched.
func (h *CheckoutHandler) HandleCheckout(ctx context.Context, form CheckoutForm) error {
	if err := h.ensureOpenCart(); err != nil {
		h.notifyError(err)
		return err
	}
	if err := validateCheckoutForm(form); err != nil {
		h.notifyError(err)
		return err
	}

	items := h.store.Items()
	// A payload means the server recorded the order; a failing resync after
	// that must not be reported as an order failure.
	payload, err := h.store.Checkout(ctx, buildCheckoutRequest(form))
	if payload == nil {
		h.notifyError(err)
		return err
	}

	if form.PaymentMethod != "tarjeta" && h.hooks.Messages != nil {
		link := whatsappLink(h.orderPhone, orderSummary(form, items, payload))
		if err := h.hooks.Messages.OpenMessage(link); err != nil && h.hooks.Notifier != nil {
			h.hooks.Notifier.Error("No se pudo abrir el mensaje de confirmación")
		}
	}

	h.wizard.Reset()
	if h.hooks.Navigator != nil {
		h.hooks.Navigator.NavigateTo(h.successPath)
	}
	if h.hooks.Notifier != nil {
		h.hooks.Notifier.Success("Pedido realizado con éxito")
	}
	return nil
}

// HandleMercadoPago obtains the card-payment link first and only then
// persists the pending order, so a provider failure leaves no order behind.
// On success the browser is redirected to the provider's init point.
func (h *CheckoutHandler) HandleMercadoPago(ctx context.Context, form CheckoutForm) error {
	if err := h.ensureOpenCart(); err != nil {
		h.notifyError(err)
		return err
	}
	if err := validateCheckoutForm(form); err != nil {
		h.notifyError(err)
		return err
	}

	items := h.store.Items()
	lines := make([]PaymentLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, PaymentLine{
			Title:       item.Title,
			Description: item.Description,
			Image:       item.Image,
			Price:       item.Price,
			Quantity:    item.Quantity,
		})
	}

	link, err := h.api.CreatePaymentLink(ctx, lines)
	if err != nil {
		h.notifyError(err)
		return err
	}

	if payload, err := h.store.Checkout(ctx, buildCheckoutRequest(form)); payload == nil {
		h.notifyError(err)
		return err
	}

	h.wizard.Reset()
	if h.hooks.Navigator != nil {
		h.hooks.Navigator.Redirect(link.InitPoint)
	}
	return nil
}

// CopyToClipboard writes text to the clipboard and notifies the outcome.
func (h *CheckoutHandler) CopyToClipboard(text string) {
	if h.hooks.Clipboard == nil {
		return
	}
	if err := h.hooks.Clipboard.WriteText(text); err != nil {
		if h.hooks.Notifier != nil {
			h.hooks.Notifier.Error("No se pudo copiar al portapapeles")
		}
		return
	}
	if h.hooks.Notifier != nil {
		h.hooks.Notifier.Success("Copiado al portapapeles")
	}
}

func (h *CheckoutHandler) ensureOpenCart() error {
	identity := h.store.Identity()
	if identity == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no cart to checkout")
	}
	if identity.Status.IsFrozen() {
		return pkgerrors.New(pkgerrors.CodeCartFrozen, "cart can no longer be modified").
			WithDetails(map[string]any{"status": identity.Status.String()})
	}
	return nil
}

func (h *CheckoutHandler) notifyError(err error) {
	if h.hooks.Notifier == nil {
		return
	}
	if typed := pkgerrors.As(err); typed != nil {
		h.hooks.Notifier.Error(typed.Message())
		return
	}
	h.hooks.Notifier.Error(err.Error())
}

// validateCheckoutForm is the client-side gate: nothing leaves the device
// until name, phone, and the envio address are present.
func validateCheckoutForm(form CheckoutForm) error {
	if strings.TrimSpace(form.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "El nombre es obligatorio")
	}
	if strings.TrimSpace(form.Phone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "El teléfono es obligatorio")
	}
	if form.DeliveryType == "envio" && strings.TrimSpace(form.Address) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "La dirección es obligatoria para envío")
	}
	return nil
}

func buildCheckoutRequest(form CheckoutForm) CheckoutRequest {
	address := strings.TrimSpace(form.Address)
	if form.DeliveryType != "envio" || address == "" {
		address = "Sin especificar"
	}
	req := CheckoutRequest{
		PaymentMethod:  form.PaymentMethod,
		DeliveryMethod: form.DeliveryType,
		ShippingAddress: &types.ShippingAddress{
			Name:    strings.TrimSpace(form.Name),
			Address: address,
			Phone:   strings.TrimSpace(form.Phone),
		},
		CustomerInfo: &types.CustomerInfo{
			Name:  strings.TrimSpace(form.Name),
			Phone: strings.TrimSpace(form.Phone),
		},
	}
	if form.ReceiptURL != "" {
		receipt := form.ReceiptURL
		req.ReceiptURL = &receipt
	}
	return req
}

// orderSummary composes the human-readable confirmation sent over WhatsApp.
func orderSummary(form CheckoutForm, items []CartLine, payload *CartPayload) string {
	var b strings.Builder
	b.WriteString("Nuevo pedido Jamrock\n")
	fmt.Fprintf(&b, "Nombre: %s\n", form.Name)
	fmt.Fprintf(&b, "Teléfono: %s\n", form.Phone)
	fmt.Fprintf(&b, "Pago: %s\n", form.PaymentMethod)
	fmt.Fprintf(&b, "Entrega: %s\n", form.DeliveryType)
	if form.DeliveryType == "envio" {
		fmt.Fprintf(&b, "Dirección: %s\n", form.Address)
	}
	b.WriteString("Productos:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- %s x%d ($%s)\n", item.Title, item.Quantity, item.Price.StringFixed(2))
	}
	if payload != nil {
		fmt.Fprintf(&b, "Total: $%s", payload.TotalAmount.StringFixed(2))
	}
	return b.String()
}

func whatsappLink(phone, message string) string {
	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(message)
}
