package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer signs access/refresh pairs. Secrets, lifetimes and the clock are
// injected so tests can pin them.
type Issuer struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

type Pair struct {
	IssuedAt     time.Time
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
	RefreshJTI   string
}

func NewIssuer(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Now:           time.Now,
	}
}

func (i *Issuer) now() time.Time {
	if i.Now == nil {
		return time.Now().UTC()
	}
	return i.Now().UTC()
}

// Issue signs a new pair for subject. Each token gets its own jti, so two
// pairs issued within the same second still differ.
func (i *Issuer) Issue(subject, role string) (*Pair, error) {
	now := i.now()
	accessExp := now.Add(i.AccessTTL)
	refreshExp := now.Add(i.RefreshTTL)

	accessClaims := AccessClaims{
		Role: role,
		Type: accessType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
			ID:        uuid.NewString(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(i.AccessSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	jti := uuid.NewString()
	refreshClaims := RefreshClaims{
		Type: refreshType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			ID:        jti,
		},
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(i.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &Pair{
		IssuedAt:     now,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: refreshToken,
		RefreshExp:   refreshExp,
		RefreshJTI:   jti,
	}, nil
}

func (i *Issuer) ParseAccess(token string) (*AccessClaims, error) {
	return AccessClaimsFromToken(token, i.AccessSecret, jwt.WithTimeFunc(i.now))
}

func (i *Issuer) ParseRefresh(token string) (*RefreshClaims, error) {
	return RefreshClaimsFromToken(token, i.RefreshSecret, jwt.WithTimeFunc(i.now))
}
