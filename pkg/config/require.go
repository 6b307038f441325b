package config

import (
	"bytes"
	"fmt"
	"log"
)

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

// Validate reports the first setting that would make the server unusable.
func (c Config) Validate() error {
	if len(c.JWTAccessSecret) == 0 {
		return fmt.Errorf("JWT_SECRET is empty")
	}
	if len(c.JWTRefreshSecret) == 0 {
		return fmt.Errorf("JWT_REFRESH_SECRET is empty")
	}
	if bytes.Equal(c.JWTAccessSecret, c.JWTRefreshSecret) {
		return fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.AccessTTLMin <= 0 || c.RefreshTTLMin <= 0 {
		return fmt.Errorf("token ttl must be positive (JWT_TTL=%d, JWT_REFRESH_TTL=%d)", c.AccessTTLMin, c.RefreshTTLMin)
	}
	if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite" {
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	return nil
}
