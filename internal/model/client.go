package model

import (
	"time"

	"github.com/google/uuid"
)

// Client owns equipment. Archived clients are hidden from pickers but keep history.
type Client struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string    `gorm:"uniqueIndex;not null"`
	Address       *string
	ContactPerson *string
	Phone         *string `gorm:"type:varchar(20)"`
	IsArchived    bool    `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Client) TableName() string { return "client" }
