package domain

import (
	"strings"
	"time"
)

// OTP kinds stored on the account record.
const (
	OTPVerify = "verify"
	OTPReset  = "reset"
)

// Account is the single persisted document per user: credentials, profile,
// OTP state and financial totals. OTP expiries are Unix milliseconds; an
// unset OTP is "" with expiry 0.
type Account struct {
	AccountID         string    `json:"userId" dynamodbav:"user_id"`
	Name              string    `json:"name" dynamodbav:"name"`
	Phone             string    `json:"phoneNo" dynamodbav:"phone"`
	Email             string    `json:"email" dynamodbav:"email"`
	PasswordHash      string    `json:"-" dynamodbav:"password_hash"`
	Image             string    `json:"image" dynamodbav:"image"`
	IsAccountVerified bool      `json:"isAccountVerified" dynamodbav:"is_account_verified"`
	VerifyOTP         string    `json:"-" dynamodbav:"verify_otp"`
	VerifyOTPExpireAt int64     `json:"-" dynamodbav:"verify_otp_expire_at"`
	ResetOTP          string    `json:"-" dynamodbav:"reset_otp"`
	ResetOTPExpireAt  int64     `json:"-" dynamodbav:"reset_otp_expire_at"`
	TotalEarnings     Money     `json:"totalEarnings" dynamodbav:"total_earnings"`
	TotalSpending     Money     `json:"totalSpending" dynamodbav:"total_spending"`
	TotalSavings      Money     `json:"totalSavings" dynamodbav:"total_savings"`
	Enable            bool      `json:"-" dynamodbav:"enable"`
	CreatedAt         time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

// Balance is earnings − (spending + savings). It is always derived, never stored.
func (a *Account) Balance() Money {
	return a.TotalEarnings.Sub(a.TotalSpending.Add(a.TotalSavings))
}

// OTP returns the stored code and expiry for kind.
func (a *Account) OTP(kind string) (code string, expireAt int64) {
	if kind == OTPReset {
		return a.ResetOTP, a.ResetOTPExpireAt
	}
	return a.VerifyOTP, a.VerifyOTPExpireAt
}

// Profile is the public projection of an account returned by the profile endpoints.
type Profile struct {
	AccountID         string `json:"userId"`
	Name              string `json:"name"`
	Phone             string `json:"phoneNo"`
	Email             string `json:"email"`
	Image             string `json:"image"`
	IsAccountVerified bool   `json:"isAccountVerified"`
	TotalEarnings     Money  `json:"totalEarnings"`
	TotalSpending     Money  `json:"totalSpending"`
	TotalSavings      Money  `json:"totalSavings"`
	TotalBalance      Money  `json:"totalBalance"`
}

// Profile projects a into its public shape with a freshly computed balance.
func (a *Account) Profile() *Profile {
	return &Profile{
		AccountID:         a.AccountID,
		Name:              a.Name,
		Phone:             a.Phone,
		Email:             a.Email,
		Image:             a.Image,
		IsAccountVerified: a.IsAccountVerified,
		TotalEarnings:     a.TotalEarnings,
		TotalSpending:     a.TotalSpending,
		TotalSavings:      a.TotalSavings,
		TotalBalance:      a.Balance(),
	}
}

// NormalizeEmail is the canonical stored and looked-up form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,notblank"`
	Phone    string `json:"phoneNo" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries the optional fields of a profile update.
// Nil means "leave unchanged".
type UpdateProfileRequest struct {
	Name          *string `json:"name"`
	Phone         *string `json:"phoneNo"`
	TotalEarnings *Money  `json:"totalEarnings"`
	TotalSpending *Money  `json:"totalSpending"`
	TotalSavings  *Money  `json:"totalSavings"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,max=72"`
}

// AdminUpdateRequest is the partial update accepted by the admin CRUD routes.
type AdminUpdateRequest struct {
	Name              *string `json:"name"`
	Phone             *string `json:"phoneNo"`
	Email             *string `json:"email" validate:"omitempty,email"`
	IsAccountVerified *bool   `json:"isAccountVerified"`
	TotalEarnings     *Money  `json:"totalEarnings"`
	TotalSpending     *Money  `json:"totalSpending"`
	TotalSavings      *Money  `json:"totalSavings"`
}
