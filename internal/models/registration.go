package models

import (
	"time"
)

// Registration is one phone-number signup. Each registration carries its own
// TOTP secret; OTP codes are derived from it instead of being stored.
type Registration struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	PhoneNumber string    `gorm:"size:16;uniqueIndex;not null" json:"phone_number"`
	Nickname    string    `gorm:"size:20;not null" json:"nickname"`
	TOTPSecret  string    `gorm:"size:64;not null" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides the default pluralized table name
func (Registration) TableName() string {
	return "registration"
}
