package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmdirect/farmdirect-backend/pkg/enums"
)

// User is the authenticated marketplace actor. Account management lives
// outside this service; orders reference users read-only.
type User struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string           `gorm:"column:email;not null;uniqueIndex"`
	Name      string           `gorm:"column:name;not null"`
	Role      enums.MemberRole `gorm:"column:role;type:text;not null;default:'customer'"`
	Phone     *string          `gorm:"column:phone"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
