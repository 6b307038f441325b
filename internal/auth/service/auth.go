package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/repair_shop/internal/apperr"
	"github.com/Skotchmaster/repair_shop/internal/auth/models"
	"github.com/Skotchmaster/repair_shop/internal/auth/repo"
	"github.com/Skotchmaster/repair_shop/internal/auth/transport"
	"github.com/Skotchmaster/repair_shop/pkg/events"
	pkg_hash "github.com/Skotchmaster/repair_shop/pkg/hash"
	jwthelp "github.com/Skotchmaster/repair_shop/pkg/jwt"
	"github.com/Skotchmaster/repair_shop/pkg/logging"
	"github.com/Skotchmaster/repair_shop/pkg/tokens"
)

// bcrypt only reads the first 72 bytes.
const maxPasswordBytes = 72

type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name, referralCode string) error
}

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Issuer
	Codes  CodeGenerator
	Events events.Publisher
	Mailer WelcomeMailer
}

type AuthResult struct {
	Account    *models.Account
	Tokens     *tokens.Pair
	RefreshTTL time.Duration
}

func (s *AuthService) codes() CodeGenerator {
	if s.Codes == nil {
		return RandomReferralCode
	}
	return s.Codes
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := normalizeEmail(req.Email)
	verr := apperr.ValidationErrors{}
	if email == "" {
		verr.Add("email", "The email field is required.")
	}
	if req.Password == "" {
		verr.Add("password", "The password field is required.")
	} else if len(req.Password) > maxPasswordBytes {
		verr.Add("password", "The password may not be greater than 72 bytes.")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	exists, err := s.Repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("email %q: %w", email, apperr.ErrConflict)
	}

	if req.Password != req.ConfirmPassword {
		return nil, apperr.ValidationErrors{"confirm_password": "Passwords do not match"}
	}

	acc := &models.Account{
		FirstName:   strings.TrimSpace(req.FirstName),
		MiddleName:  optional(req.MiddleName),
		LastName:    strings.TrimSpace(req.LastName),
		Suffix:      optional(req.Suffix),
		Email:       email,
		AccountType: models.AccountTypeCustomer,
	}

	if code := strings.TrimSpace(req.ReferralCode); code != "" {
		referrer, err := s.Repo.FindByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.ValidationErrors{"referral_code": "Invalid referral code"}
			}
			return nil, fmt.Errorf("find referrer: %w", err)
		}
		acc.ReferrerCode = &code
		acc.ReferrerID = &referrer.ID
	}

	pwHash, err := pkg_hash.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acc.PasswordHash = pwHash

	if err := s.insertWithUniqueCode(ctx, acc); err != nil {
		return nil, err
	}
	l.Info("account_registered", "account_id", acc.ID)

	s.publish(ctx, "account_registered", acc)
	if s.Mailer != nil {
		if err := s.Mailer.SendWelcome(ctx, acc.Email, acc.FirstName, acc.ReferralCode); err != nil {
			l.Warn("welcome_mail_error", "account_id", acc.ID, "error", err)
		}
	}

	return s.issue(ctx, acc)
}

// EnsureAdmin provisions a Main Admin account. An existing account with the
// same email is returned untouched; created reports whether a row was added.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, firstName, lastName string) (acc *models.Account, created bool, err error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, false, apperr.ValidationErrors{"email": "The email and password fields are required."}
	}
	if len(password) > maxPasswordBytes {
		return nil, false, apperr.ValidationErrors{"password": "The password may not be greater than 72 bytes."}
	}

	existing, err := s.Repo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find admin: %w", err)
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	acc = &models.Account{
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Email:        email,
		PasswordHash: pwHash,
		AccountType:  models.AccountTypeMainAdmin,
	}
	if err := s.insertWithUniqueCode(ctx, acc); err != nil {
		return nil, false, err
	}
	return acc, true, nil
}

// insertWithUniqueCode draws referral codes until the insert succeeds. A failed
// insert counts as an attempt when the code was taken in the meantime.
func (s *AuthService) insertWithUniqueCode(ctx context.Context, acc *models.Account) error {
	gen := s.codes()
	for attempt := 0; attempt < MaxReferralAttempts; attempt++ {
		code, err := gen()
		if err != nil {
			return fmt.Errorf("generate referral code: %w", err)
		}

		taken, err := s.Repo.ReferralCodeExists(ctx, code)
		if err != nil {
			return fmt.Errorf("check referral code: %w", err)
		}
		if taken {
			continue
		}

		acc.ReferralCode = code
		createErr := s.Repo.CreateAccount(ctx, acc)
		if createErr == nil {
			return nil
		}

		if exists, err := s.Repo.EmailExists(ctx, acc.Email); err == nil && exists {
			return fmt.Errorf("email %q: %w", acc.Email, apperr.ErrConflict)
		}
		if taken, err := s.Repo.ReferralCodeExists(ctx, code); err == nil && taken {
			acc.ID = 0
			continue
		}
		return fmt.Errorf("create account: %w", createErr)
	}
	return ErrReferralCodeExhausted
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	acc, err := s.Repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pkg_hash.BurnCompare(password)
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	if !pkg_hash.CheckPassword(acc.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "account_id", acc.ID)
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, acc)
}

// Refresh rotates the presented refresh token: it is revoked and a new pair
// is issued in the same transaction.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrRefreshMissing
	}

	claims, err := s.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			return nil, fmt.Errorf("%w: %v", ErrRefreshExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidRefreshToken)
	}
	acc, err := s.Repo.GetAccountByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	pair, err := s.Tokens.Issue(claims.Subject, acc.AccountType)
	if err != nil {
		return nil, err
	}

	next := refreshRecord(acc.ID, pair)
	err = s.Repo.RotateRefreshToken(ctx, claims.ID, jwthelp.Sha256Hex(refreshToken), pair.IssuedAt, next)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrRefreshExpired):
		return nil, fmt.Errorf("%w: %v", ErrRefreshExpired, err)
	case errors.Is(err, repo.ErrRefreshNotFound), errors.Is(err, repo.ErrRefreshRevoked):
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	default:
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	return &AuthResult{Account: acc, Tokens: pair, RefreshTTL: s.Tokens.RefreshTTL}, nil
}

// LogOut revokes the refresh token. Unknown tokens are not an error.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefresh(ctx, jwthelp.Sha256Hex(refreshToken))
}

func (s *AuthService) Me(ctx context.Context, subject string) (*models.Account, error) {
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return nil, ErrUserNotFound
	}
	acc, err := s.Repo.GetAccountByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return acc, nil
}

func (s *AuthService) issue(ctx context.Context, acc *models.Account) (*AuthResult, error) {
	pair, err := s.Tokens.Issue(strconv.FormatUint(uint64(acc.ID), 10), acc.AccountType)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SaveRefresh(ctx, refreshRecord(acc.ID, pair)); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return &AuthResult{Account: acc, Tokens: pair, RefreshTTL: s.Tokens.RefreshTTL}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, acc *models.Account) {
	if s.Events == nil {
		return
	}
	payload := transport.AccountEvent{
		ID:           acc.ID,
		Email:        acc.Email,
		ReferralCode: acc.ReferralCode,
		ReferrerID:   acc.ReferrerID,
	}
	key := strconv.FormatUint(uint64(acc.ID), 10)
	if err := s.Events.Publish(ctx, events.TopicAccounts, key, events.New(eventType, payload)); err != nil {
		logging.FromContext(ctx).Warn("publish_error", "event", eventType, "error", err)
	}
}

func refreshRecord(accountID uint, pair *tokens.Pair) *models.RefreshToken {
	return &models.RefreshToken{
		AccountID: accountID,
		JTI:       pair.RefreshJTI,
		TokenHash: jwthelp.Sha256Hex(pair.RefreshToken),
		ExpiresAt: pair.RefreshExp,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
