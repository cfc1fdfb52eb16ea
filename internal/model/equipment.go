package model

import (
	"time"

	"github.com/google/uuid"
)

// Equipment is a physical asset under periodic maintenance.
// Its status (OK / Upcoming / Overdue) is derived through a StatusClassifier.
type Equipment struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code                string    `gorm:"uniqueIndex;not null"`
	Model               string    `gorm:"not null"`
	Location            string    `gorm:"not null"`
	Description         *string
	InstallDate         *time.Time `gorm:"type:date"`
	LastMaintenanceDate *time.Time `gorm:"type:date"`
	NextMaintenanceDate time.Time  `gorm:"type:date;not null;index"`
	// UserID is the technician responsible for the equipment
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ClientID   uuid.UUID `gorm:"type:uuid;not null;index"`
	IsArchived bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Technician *User   `gorm:"foreignKey:UserID"`
	Client     *Client `gorm:"foreignKey:ClientID"`
}

func (Equipment) TableName() string { return "equipment" }
