package service

import (
	"crypto/rand"
	"math/big"
)

const (
	referralAlphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
	referralCodeLength = 6

	MaxReferralAttempts = 20
)

// CodeGenerator draws a candidate referral code.
type CodeGenerator func() (string, error)

func RandomReferralCode() (string, error) {
	max := big.NewInt(int64(len(referralAlphabet)))
	b := make([]byte, referralCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = referralAlphabet[n.Int64()]
	}
	return string(b), nil
}
