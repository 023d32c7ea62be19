package model

import (
	"time"

	"github.com/google/uuid"
)

// Client is an optional customer reference attached to an order.
// A nil client on an order means walk-in.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"index;not null"`
	Document  *string   `gorm:"type:varchar(20)"`
	Phone     *string
	Email     *string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
