package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tanveenambrose/EcoMoney/internal/domain"
)

// Mailer delivers a plain-text email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Service composes and sends the account emails.
type Service interface {
	Welcome(ctx context.Context, a *domain.Account) error
	VerificationOTP(ctx context.Context, a *domain.Account, code string) error
	ResetOTP(ctx context.Context, a *domain.Account, code string) error
	PasswordChanged(ctx context.Context, a *domain.Account) error
}

type service struct {
	mailer Mailer
	sms    SMSSender
}

// NewService returns a notifier. sms may be nil, in which case alerts go out by email only.
func NewService(mailer Mailer, sms SMSSender) Service {
	return &service{mailer: mailer, sms: sms}
}

func (s *service) Welcome(ctx context.Context, a *domain.Account) error {
	return s.mailer.SendEmail(ctx, a.Email,
		"Welcome to EcoMoney!",
		fmt.Sprintf("Dear %s,\n\nWelcome to EcoMoney!", a.Name))
}

func (s *service) VerificationOTP(ctx context.Context, a *domain.Account, code string) error {
	return s.mailer.SendEmail(ctx, a.Email,
		"Your Account Verification OTP",
		fmt.Sprintf("Dear %s,\n\nYour OTP is: %s\n\nIt expires in 24 hours.", a.Name, code))
}

func (s *service) ResetOTP(ctx context.Context, a *domain.Account, code string) error {
	return s.mailer.SendEmail(ctx, a.Email,
		"Your Password Reset OTP",
		fmt.Sprintf("Dear %s,\n\nYour OTP is: %s\n\nIt expires in 1 hour.", a.Name, code))
}

// PasswordChanged alerts the owner that the password was replaced. The new password is never included.
func (s *service) PasswordChanged(ctx context.Context, a *domain.Account) error {
	if s.sms != nil && a.Phone != "" {
		if err := s.sms.SendSMS(ctx, a.Phone, "EcoMoney: your password was changed. If this wasn't you, reset it now."); err != nil {
			slog.WarnContext(ctx, "password alert sms failed", "user_id", a.AccountID, "err", err)
		}
	}
	return s.mailer.SendEmail(ctx, a.Email,
		"Security Alert: Your Password changed successfully",
		fmt.Sprintf("Dear %s,\n\nYour password has been successfully changed.\n\n"+
			"If you did not perform this action, please secure your account immediately.", a.Name))
}
