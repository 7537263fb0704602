package dynamo

import "github.com/tanveenambrose/EcoMoney/internal/domain"

// DynamoDB attribute names used in key conditions and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldAccountID = "user_id"
	fieldEmail     = "email"
	fieldPhone     = "phone"
	fieldEnable    = "enable"
	fieldUpdatedAt = "updated_at"

	fieldVerifyOTP         = "verify_otp"
	fieldVerifyOTPExpireAt = "verify_otp_expire_at"
	fieldResetOTP          = "reset_otp"
	fieldResetOTPExpireAt  = "reset_otp_expire_at"

	indexEmail = "email-index"
	indexPhone = "phone-index"
)

// otpFields returns the code and expiry attribute names for an OTP kind.
func otpFields(kind string) (code, expireAt string) {
	if kind == domain.OTPReset {
		return fieldResetOTP, fieldResetOTPExpireAt
	}
	return fieldVerifyOTP, fieldVerifyOTPExpireAt
}
