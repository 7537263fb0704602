package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/tanveenambrose/EcoMoney/internal/domain"
)

// Lifetimes of issued codes.
const (
	VerifyTTL = 24 * time.Hour
	ResetTTL  = time.Hour
)

var span = big.NewInt(900000)

// Generate returns a 6-digit numeric code in [100000, 999999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", 100000+n.Int64()), nil
}

// ExpiresAt converts an issue time and TTL into the stored epoch-millisecond expiry.
func ExpiresAt(now time.Time, ttl time.Duration) int64 {
	return now.Add(ttl).UnixMilli()
}

// Check validates a submitted code against the stored code and expiry.
// An empty stored code never matches; a code is rejected once now reaches expireAt.
func Check(stored, submitted string, expireAt int64, now time.Time) error {
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) != 1 {
		return fmt.Errorf("invalid OTP: %w", domain.ErrInvalidOTP)
	}
	if now.UnixMilli() >= expireAt {
		return fmt.Errorf("OTP has expired: %w", domain.ErrInvalidOTP)
	}
	return nil
}
