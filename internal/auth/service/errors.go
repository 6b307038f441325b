package service

import "errors"

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrRefreshMissing        = errors.New("refresh token missing")
	ErrRefreshExpired        = errors.New("refresh token expired")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrUserNotFound          = errors.New("user not found")
	ErrReferralCodeExhausted = errors.New("could not allocate a unique referral code")
)
