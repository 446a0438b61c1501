package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jamrock-club/jamrock-backend/pkg/db/models"
	"github.com/jamrock-club/jamrock-backend/pkg/types"
)

// CartResponse is the wire shape of a cart shared with the storefront.
type CartResponse struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"userId"`
	Status          string                `json:"status"`
	PaymentMethod   string                `json:"paymentMethod"`
	DeliveryMethod  string                `json:"deliveryMethod"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	CustomerInfo    *types.CustomerInfo   `json:"customerInfo,omitempty"`
	ReceiptURL      *string               `json:"receiptUrl,omitempty"`
	TotalAmount     decimal.Decimal       `json:"totalAmount"`
	Version         int                   `json:"version"`
	PaidAt          *time.Time            `json:"paidAt,omitempty"`
	Items           []CartItemResponse    `json:"items"`
}

// CartItemResponse is one snapshotted line on a cart.
type CartItemResponse struct {
	ProductID   uuid.UUID       `json:"productId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Image       *string         `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// ProductResponse is a catalog listing.
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image,omitempty"`
	Stock       int             `json:"stock"`
}

func newCartResponse(record *models.CartRecord) CartResponse {
	resp := CartResponse{
		ID:              record.ID,
		UserID:          record.UserID,
		Status:          record.Status.String(),
		PaymentMethod:   record.PaymentMethod.String(),
		DeliveryMethod:  record.DeliveryMethod.String(),
		ShippingAddress: record.ShippingAddress,
		CustomerInfo:    record.CustomerInfo,
		ReceiptURL:      record.ReceiptURL,
		TotalAmount:     record.TotalAmount,
		Version:         record.Version,
		PaidAt:          record.PaidAt,
		Items:           make([]CartItemResponse, 0, len(record.Items)),
	}
	for _, item := range record.Items {
		resp.Items = append(resp.Items, CartItemResponse{
			ProductID:   item.ProductID,
			Title:       item.Title,
			Description: item.Description,
			Image:       item.Image,
			Price:       item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}
	return resp
}

func newProductResponse(product models.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID,
		Title:       product.Title,
		Description: product.Description,
		Category:    product.Category,
		Price:       product.Price,
		Image:       product.Image,
		Stock:       product.Stock,
	}
}
