package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategories is the closed list a technician picks from.
var ExpenseCategories = []string{"Meals", "Fuel", "Tolls", "Snacks", "Miscellaneous"}

func ValidExpenseCategory(c string) bool {
	for _, v := range ExpenseCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Expense is an out-of-pocket cost a technician reports for one day.
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_expense_user_date"`
	Date        time.Time       `gorm:"type:date;not null;index:idx_expense_user_date;index"`
	Category    string          `gorm:"type:varchar(50);not null"`
	Value       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Description *string         `gorm:"type:text"`
	CreatedAt   time.Time

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Expense) TableName() string { return "expense" }
