package http

import (
	"context"
	"io"
	"time"

	"github.com/tanveenambrose/EcoMoney/internal/domain"
	jwtinfra "github.com/tanveenambrose/EcoMoney/internal/infrastructure/jwt"
)

// AccountRepository is the minimal interface the router requires from the account store.
type AccountRepository interface {
	Put(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
	// ScanPage returns a page of enabled accounts and an opaque cursor for the next one.
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Account, string, error)
	SoftDelete(ctx context.Context, accountID string) error
	SetOTP(ctx context.Context, accountID, kind, code string, expireAt int64) error
	// ConsumeOTP clears the code and applies effects in one conditional write.
	ConsumeOTP(ctx context.Context, accountID, kind, code string, effects map[string]interface{}) error
}

// ObjectStore is the minimal interface the router requires from the avatar bucket.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// Mailer sends a plain-text email, directly or through a queue.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// TokenProvider signs and verifies session tokens.
type TokenProvider interface {
	Sign(accountID string, ttl time.Duration) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

// Deps holds all infrastructure dependencies for the router.
// SMSSender may be nil.
type Deps struct {
	AccountRepo AccountRepository
	ObjectStore ObjectStore
	Mailer      Mailer
	SMSSender   SMSSender
	Tokens      TokenProvider
}
