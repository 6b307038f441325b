package tokens

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessType  = "access"
	refreshType = "refresh"
)

var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
)

type AccessClaims struct {
	Role string `json:"role"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

func AccessClaimsFromToken(TokenStr string, AccessSecret []byte, opts ...jwt.ParserOption) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parse(TokenStr, &claims, AccessSecret, opts); err != nil {
		return nil, err
	}
	if claims.Type != accessType {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalid)
	}
	return &claims, nil
}

func RefreshClaimsFromToken(TokenStr string, RefreshSecret []byte, opts ...jwt.ParserOption) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parse(TokenStr, &claims, RefreshSecret, opts); err != nil {
		return nil, err
	}
	if claims.Type != refreshType {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalid)
	}
	return &claims, nil
}

func parse(tokenStr string, claims jwt.Claims, secret []byte, opts []jwt.ParserOption) error {
	opts = append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}, opts...)

	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return classify(err)
	}
	if !tkn.Valid {
		return ErrInvalid
	}
	return nil
}

// classify folds jwt errors into ErrExpired or ErrInvalid, keeping the cause.
func classify(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return fmt.Errorf("%w: %v", ErrExpired, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}
