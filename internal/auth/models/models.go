package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	AccountTypeCustomer  = "Customer"
	AccountTypeMainAdmin = "Main Admin"
)

type Account struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"           json:"id"`
	FirstName    string    `gorm:"size:255;not null;default:''"        json:"first_name"`
	MiddleName   *string   `gorm:"size:255"                            json:"middle_name"`
	LastName     string    `gorm:"size:255;not null;default:''"        json:"last_name"`
	Suffix       *string   `gorm:"size:32"                             json:"suffix"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"       json:"email"`
	PasswordHash string    `gorm:"not null"                            json:"-"`
	ReferralCode string    `gorm:"size:6;uniqueIndex;not null"         json:"referral_code"`
	ReferrerCode *string   `gorm:"size:6"                              json:"referrer_code"`
	ReferrerID   *uint     `gorm:"index"                               json:"referrer_id"`
	Referrer     *Account  `gorm:"foreignKey:ReferrerID;constraint:OnDelete:SET NULL" json:"-"`
	AccountType  string    `gorm:"size:32;not null;default:Customer"   json:"account_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

// RefreshToken is the server-side record of an issued refresh token.
// The raw token is never stored, only its sha256.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"                     json:"id"`
	AccountID uint      `gorm:"index;not null"                 json:"account_id"`
	Account   *Account  `gorm:"constraint:OnDelete:CASCADE"    json:"-"`
	JTI       string    `gorm:"size:64;uniqueIndex;not null"   json:"jti"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null"   json:"-"`
	ExpiresAt time.Time `gorm:"not null"                       json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false"         json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Account{}, &RefreshToken{})
}
