package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jamrock-club/jamrock-backend/pkg/db/models"
)

// CartRepository is the persistence surface the cart service depends on.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	Save(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	FindLastByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.CartRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CartRecord, error)
}
