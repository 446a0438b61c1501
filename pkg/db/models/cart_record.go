package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jamrock-club/jamrock-backend/pkg/enums"
	"github.com/jamrock-club/jamrock-backend/pkg/types"
)

// CartRecord is the authoritative cart/order row. The storefront only caches a
// projection of it; every mutation lands here first.
//
// Version increments on every mutating write so stale clients get a conflict
// instead of silently clobbering staff-side changes.
type CartRecord struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.CartStatus      `gorm:"column:status;not null;default:'inicializado'"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;not null;default:'efectivo'"`
	DeliveryMethod  enums.DeliveryMethod  `gorm:"column:delivery_method;not null;default:'retiro'"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;serializer:json"`
	CustomerInfo    *types.CustomerInfo   `gorm:"column:customer_info;serializer:json"`
	ReceiptURL      *string               `gorm:"column:receipt_url"`
	TotalAmount     decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Version         int                   `gorm:"column:version;not null;default:1"`
	PaidAt          *time.Time            `gorm:"column:paid_at"`
	Items           []CartItem            `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// RecalculateTotal sums the line subtotals into TotalAmount.
func (c *CartRecord) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	c.TotalAmount = total
}
