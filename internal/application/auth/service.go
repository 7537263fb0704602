package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tanveenambrose/EcoMoney/internal/domain"
	jwtinfra "github.com/tanveenambrose/EcoMoney/internal/infrastructure/jwt"
	"github.com/tanveenambrose/EcoMoney/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

const (
	fieldPasswordHash      = "password_hash"
	fieldIsAccountVerified = "is_account_verified"
)

var errBadCredentials = fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)

type VerifyAccountRequest struct {
	OTP string `json:"otp" validate:"required"`
}

type ResetOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

type Service interface {
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.Account, string, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.Account, string, error)
	SendVerificationOTP(ctx context.Context, accountID string) error
	VerifyAccount(ctx context.Context, accountID, code string) error
	SendResetPasswordOTP(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	// IsAuthenticated reports whether token is a valid, unexpired session token.
	IsAuthenticated(token string) bool
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	SetOTP(ctx context.Context, accountID, kind, code string, expireAt int64) error
	ConsumeOTP(ctx context.Context, accountID, kind, code string, effects map[string]interface{}) error
}

type registrar interface {
	Register(ctx context.Context, req domain.SignupRequest) (*domain.Account, error)
}

type tokenProvider interface {
	Sign(accountID string, ttl time.Duration) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type notifier interface {
	Welcome(ctx context.Context, a *domain.Account) error
	VerificationOTP(ctx context.Context, a *domain.Account, code string) error
	ResetOTP(ctx context.Context, a *domain.Account, code string) error
	PasswordChanged(ctx context.Context, a *domain.Account) error
}

type service struct {
	repo      accountStore
	registrar registrar
	tokens    tokenProvider
	notifier  notifier
	signupTTL time.Duration
	loginTTL  time.Duration
	now       func() time.Time
	newCode   func() (string, error)
}

type ServiceDeps struct {
	AccountRepo accountStore
	Registrar   registrar
	Tokens      tokenProvider
	Notifier    notifier
	SignupTTL   time.Duration
	LoginTTL    time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:      deps.AccountRepo,
		registrar: deps.Registrar,
		tokens:    deps.Tokens,
		notifier:  deps.Notifier,
		signupTTL: deps.SignupTTL,
		loginTTL:  deps.LoginTTL,
		now:       time.Now,
		newCode:   otp.Generate,
	}
}

// Signup registers the account, issues a session token and sends the welcome email.
// Welcome email failures are logged and never fail the signup.
func (s *service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.Account, string, error) {
	a, err := s.registrar.Register(ctx, req)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Sign(a.AccountID, s.signupTTL)
	if err != nil {
		return nil, "", err
	}
	if err := s.notifier.Welcome(ctx, a); err != nil {
		slog.WarnContext(ctx, "welcome email failed", "user_id", a.AccountID, "err", err)
	}
	return a, token, nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.Account, string, error) {
	a, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", errBadCredentials
		}
		return nil, "", err
	}
	if !a.Enable || bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)) != nil {
		return nil, "", errBadCredentials
	}
	token, err := s.tokens.Sign(a.AccountID, s.loginTTL)
	if err != nil {
		return nil, "", err
	}
	return a, token, nil
}

func (s *service) SendVerificationOTP(ctx context.Context, accountID string) error {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if a.IsAccountVerified {
		return fmt.Errorf("account already verified: %w", domain.ErrBadRequest)
	}
	code, err := s.issue(ctx, a, domain.OTPVerify, otp.VerifyTTL)
	if err != nil {
		return err
	}
	return s.notifier.VerificationOTP(ctx, a, code)
}

func (s *service) VerifyAccount(ctx context.Context, accountID, code string) error {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return err
	}
	stored, expireAt := a.OTP(domain.OTPVerify)
	if err := otp.Check(stored, code, expireAt, s.now()); err != nil {
		return err
	}
	return s.repo.ConsumeOTP(ctx, accountID, domain.OTPVerify, code, map[string]interface{}{
		fieldIsAccountVerified: true,
	})
}

func (s *service) SendResetPasswordOTP(ctx context.Context, email string) error {
	a, err := s.enabledByEmail(ctx, email)
	if err != nil {
		return err
	}
	code, err := s.issue(ctx, a, domain.OTPReset, otp.ResetTTL)
	if err != nil {
		return err
	}
	return s.notifier.ResetOTP(ctx, a, code)
}

// ResetPassword replaces the password when code matches the stored reset OTP.
// The code is cleared in the same write, so it cannot be replayed.
func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	a, err := s.enabledByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	stored, expireAt := a.OTP(domain.OTPReset)
	if err := otp.Check(stored, req.OTP, expireAt, s.now()); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.ConsumeOTP(ctx, a.AccountID, domain.OTPReset, req.OTP, map[string]interface{}{
		fieldPasswordHash: string(hash),
	}); err != nil {
		return err
	}
	if err := s.notifier.PasswordChanged(ctx, a); err != nil {
		slog.WarnContext(ctx, "password reset alert failed", "user_id", a.AccountID, "err", err)
	}
	return nil
}

func (s *service) IsAuthenticated(token string) bool {
	if token == "" {
		return false
	}
	_, err := s.tokens.Verify(token)
	return err == nil
}

func (s *service) issue(ctx context.Context, a *domain.Account, kind string, ttl time.Duration) (string, error) {
	code, err := s.newCode()
	if err != nil {
		return "", err
	}
	if err := s.repo.SetOTP(ctx, a.AccountID, kind, code, otp.ExpiresAt(s.now(), ttl)); err != nil {
		return "", err
	}
	return code, nil
}

func (s *service) enabledByEmail(ctx context.Context, email string) (*domain.Account, error) {
	a, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if !a.Enable {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return a, nil
}
