package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedIssuer(now time.Time, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Now:           func() time.Time { return now },
	}
}

func TestIssue_ExpiryFollowsTTLPerClass(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := fixedIssuer(now, 15*time.Minute, 14*24*time.Hour)

	pair, err := iss.Issue("42", "Customer")
	require.NoError(t, err)

	access, err := iss.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute).Unix(), access.ExpiresAt.Unix())
	assert.Equal(t, now.Unix(), access.IssuedAt.Unix())
	assert.Equal(t, "42", access.Subject)
	assert.Equal(t, "Customer", access.Role)

	refresh, err := iss.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, now.Add(14*24*time.Hour).Unix(), refresh.ExpiresAt.Unix())
	assert.Equal(t, pair.RefreshJTI, refresh.ID)

	assert.NotEqual(t, access.ExpiresAt.Unix(), refresh.ExpiresAt.Unix())
}

func TestIssue_SameTTLGivesSameExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := fixedIssuer(now, time.Hour, time.Hour)

	pair, err := iss.Issue("1", "Customer")
	require.NoError(t, err)
	assert.Equal(t, pair.AccessExp, pair.RefreshExp)
}

func TestIssue_PairsDifferWithinSameSecond(t *testing.T) {
	iss := fixedIssuer(time.Now(), time.Minute, time.Hour)

	a, err := iss.Issue("1", "Customer")
	require.NoError(t, err)
	b, err := iss.Issue("1", "Customer")
	require.NoError(t, err)

	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)
	assert.NotEqual(t, a.RefreshJTI, b.RefreshJTI)
	assert.NotEqual(t, a.AccessToken, b.AccessToken)
}

func TestParseRefresh_Expired(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := fixedIssuer(issuedAt, time.Minute, time.Hour)
	pair, err := iss.Issue("1", "Customer")
	require.NoError(t, err)

	later := issuedAt.Add(2 * time.Hour)
	iss.Now = func() time.Time { return later }

	_, err = iss.ParseRefresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrExpired)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestParseRefresh_Invalid(t *testing.T) {
	iss := fixedIssuer(time.Now(), time.Minute, time.Hour)
	pair, err := iss.Issue("1", "Customer")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "access token as refresh", token: pair.AccessToken},
		{name: "tampered signature", token: pair.RefreshToken[:len(pair.RefreshToken)-2] + "!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.ParseRefresh(tt.token)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseRefresh_WrongType(t *testing.T) {
	iss := fixedIssuer(time.Now(), time.Minute, time.Hour)
	claims := RefreshClaims{
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(iss.RefreshSecret)
	require.NoError(t, err)

	_, err = iss.ParseRefresh(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseAccess_RejectsOtherAlgorithms(t *testing.T) {
	iss := fixedIssuer(time.Now(), time.Minute, time.Hour)
	claims := AccessClaims{
		Role: "Main Admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(iss.AccessSecret)
	require.NoError(t, err)

	_, err = iss.ParseAccess(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseAccess_RejectsRefreshTokenUnderSharedSecret(t *testing.T) {
	iss := fixedIssuer(time.Now(), time.Minute, time.Hour)
	iss.RefreshSecret = iss.AccessSecret

	pair, err := iss.Issue("7", "Customer")
	require.NoError(t, err)

	_, err = iss.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = iss.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalid)

	claims, err := iss.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
}

func TestParseAccess_RequiresAccessType(t *testing.T) {
	iss := fixedIssuer(time.Now(), time.Minute, time.Hour)
	claims := AccessClaims{
		Role: "Main Admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(iss.AccessSecret)
	require.NoError(t, err)

	_, err = iss.ParseAccess(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}
