package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jamrock-club/jamrock-backend/pkg/db"
	"github.com/jamrock-club/jamrock-backend/pkg/db/models"
	"github.com/jamrock-club/jamrock-backend/pkg/enums"
	pkgerrors "github.com/jamrock-club/jamrock-backend/pkg/errors"
	"github.com/jamrock-club/jamrock-backend/pkg/types"
)

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProductReserver is the slice of the product service checkout needs to
// decrement stock atomically.
type ProductReserver interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Reserve(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error
}

// NewCartInput seeds a fresh cart for a member. Payment, delivery, and
// shipping are optional overrides; left empty the cart opens with club
// defaults (cash, pickup, placeholder address).
type NewCartInput struct {
	UserID          uuid.UUID
	UserName        string
	PaymentMethod   enums.PaymentMethod
	DeliveryMethod  enums.DeliveryMethod
	ShippingAddress *types.ShippingAddress
	Items           []NewItemInput
}

// NewItemInput is a product reference plus quantity at cart creation.
type NewItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// UpdateInput mutates a single line on an open cart.
type UpdateInput struct {
	CartID    uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Action    enums.ItemAction
	Version   int
}

// CheckoutInput finalizes an open cart into a pending order.
type CheckoutInput struct {
	CartID          uuid.UUID
	UserID          uuid.UUID
	PaymentMethod   enums.PaymentMethod
	DeliveryMethod  enums.DeliveryMethod
	ShippingAddress *types.ShippingAddress
	CustomerInfo    *types.CustomerInfo
	ReceiptURL      *string
	Version         int
}

// Service owns the cart lifecycle: creation, line edits, checkout, and the
// staff-driven status advances after that.
type Service interface {
	GetLastCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	CreateCart(ctx context.Context, input NewCartInput) (*models.CartRecord, error)
	UpdateCart(ctx context.Context, input UpdateInput) (*models.CartRecord, error)
	Checkout(ctx context.Context, input CheckoutInput) (*models.CartRecord, error)
	AdvanceStatus(ctx context.Context, cartID uuid.UUID, next enums.CartStatus) (*models.CartRecord, error)
}

type service struct {
	repo     CartRepository
	products ProductReserver
	tx       TxRunner
	now      func() time.Time
}

// NewService wires the cart service with its repository, the product service
// for snapshots and stock reservation, and the transaction runner.
func NewService(repo CartRepository, products ProductReserver, tx TxRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, tx: tx, now: time.Now}, nil
}

// GetLastCart returns the member's most recent cart in any status, or NotFound
// when the member has never started one.
func (s *service) GetLastCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.repo.FindLastByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no cart for user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load last cart")
	}
	return record, nil
}

// CreateCart opens a new cart with the given lines. Product title and price
// are snapshotted at this point; defaults are cash payment and pickup.
func (s *service) CreateCart(ctx context.Context, input NewCartInput) (*models.CartRecord, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart requires at least one item")
	}

	record := &models.CartRecord{
		UserID:          input.UserID,
		Status:          enums.CartStatusInicializado,
		PaymentMethod:   enums.PaymentMethodEfectivo,
		DeliveryMethod:  enums.DeliveryMethodRetiro,
		ShippingAddress: types.PlaceholderShipping(input.UserName),
		Version:         1,
	}

	if input.PaymentMethod != "" {
		if !input.PaymentMethod.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
				WithDetails(map[string]any{"payment_method": input.PaymentMethod.String()})
		}
		record.PaymentMethod = input.PaymentMethod
	}
	if input.DeliveryMethod != "" {
		if !input.DeliveryMethod.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery method").
				WithDetails(map[string]any{"delivery_method": input.DeliveryMethod.String()})
		}
		record.DeliveryMethod = input.DeliveryMethod
	}
	if input.ShippingAddress != nil {
		record.ShippingAddress = *input.ShippingAddress
	}

	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		product, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		record.Items = append(record.Items, snapshotLine(product, line.Quantity))
	}
	record.RecalculateTotal()

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

// UpdateCart applies one add/subtract/remove action to a line. Subtracting the
// last unit removes the line. Frozen carts reject every edit.
func (s *service) UpdateCart(ctx context.Context, input UpdateInput) (*models.CartRecord, error) {
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item action").
			WithDetails(map[string]any{"action": input.Action.String()})
	}

	record, err := s.loadOwned(ctx, input.CartID, input.UserID)
	if err != nil {
		return nil, err
	}
	if record.Status.IsFrozen() {
		return nil, frozenError(record.Status)
	}
	if input.Version != 0 && input.Version != record.Version {
		return nil, versionConflict(record.Version)
	}

	idx := -1
	for i := range record.Items {
		if record.Items[i].ProductID == input.ProductID {
			idx = i
			break
		}
	}

	switch input.Action {
	case enums.ItemActionAdd:
		if idx >= 0 {
			record.Items[idx].Quantity++
		} else {
			product, err := s.products.Get(ctx, input.ProductID)
			if err != nil {
				return nil, err
			}
			record.Items = append(record.Items, snapshotLine(product, 1))
		}
	case enums.ItemActionSubtract:
		if idx < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		record.Items[idx].Quantity--
		if record.Items[idx].Quantity <= 0 {
			record.Items = append(record.Items[:idx], record.Items[idx+1:]...)
		}
	case enums.ItemActionRemove:
		if idx < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		record.Items = append(record.Items[:idx], record.Items[idx+1:]...)
	}

	record.RecalculateTotal()
	record.Version++

	saved, err := s.repo.Save(ctx, record)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart line already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return saved, nil
}

// Checkout validates the order details, reserves stock for every line inside
// one transaction, and moves the cart to pendiente. From that point the cart
// is frozen for the member and only staff advance it.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*models.CartRecord, error) {
	record, err := s.loadOwned(ctx, input.CartID, input.UserID)
	if err != nil {
		return nil, err
	}
	if record.Status.IsFrozen() {
		return nil, frozenError(record.Status)
	}
	if !record.Status.CanTransitionTo(enums.CartStatusPendiente) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart already checked out").
			WithDetails(map[string]any{"status": record.Status.String()})
	}
	if input.Version != 0 && input.Version != record.Version {
		return nil, versionConflict(record.Version)
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot checkout an empty cart")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"payment_method": input.PaymentMethod.String()})
	}
	if !input.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery method").
			WithDetails(map[string]any{"delivery_method": input.DeliveryMethod.String()})
	}
	if input.DeliveryMethod == enums.DeliveryMethodEnvio {
		if input.ShippingAddress == nil || input.ShippingAddress.Address == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address required for delivery")
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, line := range record.Items {
			if err := s.products.Reserve(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		record.PaymentMethod = input.PaymentMethod
		record.DeliveryMethod = input.DeliveryMethod
		if input.ShippingAddress != nil {
			record.ShippingAddress = *input.ShippingAddress
		}
		if input.CustomerInfo != nil {
			record.CustomerInfo = input.CustomerInfo
		}
		if input.ReceiptURL != nil {
			record.ReceiptURL = input.ReceiptURL
		}
		record.Status = enums.CartStatusPendiente
		record.RecalculateTotal()
		record.Version++

		saved, err := s.repo.WithTx(tx).Save(ctx, record)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout")
		}
		record = saved
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout transaction")
	}
	return record, nil
}

// AdvanceStatus moves a cart along the fulfilment machine. Illegal jumps
// (pendiente straight to entregado, anything out of a terminal state) are
// rejected as conflicts.
func (s *service) AdvanceStatus(ctx context.Context, cartID uuid.UUID, next enums.CartStatus) (*models.CartRecord, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown cart status").
			WithDetails(map[string]any{"status": next.String()})
	}

	record, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if !record.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "illegal status transition").
			WithDetails(map[string]any{
				"from": record.Status.String(),
				"to":   next.String(),
			})
	}

	record.Status = next
	if next == enums.CartStatusPagado && record.PaidAt == nil {
		now := s.now()
		record.PaidAt = &now
	}
	record.Version++

	saved, err := s.repo.Save(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save status")
	}
	return saved, nil
}

func (s *service) loadOwned(ctx context.Context, cartID, userID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.repo.FindByIDAndUser(ctx, cartID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return record, nil
}

func snapshotLine(product *models.Product, qty int) models.CartItem {
	return models.CartItem{
		ProductID:   product.ID,
		Title:       product.Title,
		Description: product.Description,
		Image:       product.Image,
		UnitPrice:   product.Price,
		Quantity:    qty,
	}
}

func frozenError(status enums.CartStatus) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeCartFrozen, "cart can no longer be modified").
		WithDetails(map[string]any{"status": status.String()})
}

func versionConflict(current int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently").
		WithDetails(map[string]any{"current_version": current})
}
