package transport

import "github.com/Skotchmaster/repair_shop/internal/auth/models"

type RegisterRequest struct {
	FirstName       string  `json:"first_name"`
	MiddleName      *string `json:"middle_name"`
	LastName        string  `json:"last_name"`
	Suffix          *string `json:"suffix"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirm_password"`
	ReferralCode    string  `json:"referral_code"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User        *models.Account `json:"user"`
	AccessToken string          `json:"access_token"`
}

type AccountEvent struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	ReferralCode string `json:"referral_code"`
	ReferrerID   *uint  `json:"referrer_id,omitempty"`
}
