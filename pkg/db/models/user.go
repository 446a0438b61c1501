package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jamrock-club/jamrock-backend/pkg/enums"
)

// User is a club member or staff account. Credential handling lives in the
// identity provider; this table only mirrors the profile the storefront needs.
type User struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Email     string           `gorm:"column:email;not null;uniqueIndex"`
	Name      string           `gorm:"column:name;not null"`
	Phone     *string          `gorm:"column:phone"`
	Role      enums.MemberRole `gorm:"column:role;not null;default:'socio'"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
