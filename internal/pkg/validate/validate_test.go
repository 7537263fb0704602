package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanveenambrose/EcoMoney/internal/domain"
)

func validSignup() domain.SignupRequest {
	return domain.SignupRequest{Name: "Alice", Phone: "01700000000", Email: "alice@example.com", Password: "secret1"}
}

func TestStruct_SignupOK(t *testing.T) {
	assert.NoError(t, Struct(validSignup()))
}

func TestStruct_BlankNameAndPhone(t *testing.T) {
	req := validSignup()
	req.Name = "   "
	req.Phone = " \t"

	err := Struct(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name is required")
	assert.Contains(t, err.Error(), "Phone is required")
}

func TestStruct_Messages(t *testing.T) {
	req := validSignup()
	req.Email = "not-an-email"
	req.Password = ""

	err := Struct(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email must be a valid email address")
	assert.Contains(t, err.Error(), "Password is required")
}
