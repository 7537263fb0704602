package handler

import (
	"net/http"

	"github.com/tanveenambrose/EcoMoney/internal/application/auth"
	"github.com/tanveenambrose/EcoMoney/internal/domain"
	"github.com/tanveenambrose/EcoMoney/internal/transport/http/middleware"
)

// AuthHandler handles signup, login, logout and the OTP flows under /api/auth.
type AuthHandler struct {
	svc     auth.Service
	cookies CookieConfig
}

func NewAuthHandler(svc auth.Service, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if !decodeValid(w, r, &req) {
		return
	}
	a, token, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.cookies.set(w, token)
	writeJSON(w, http.StatusCreated, AuthEnvelope{Success: true, Message: "User registered successfully", UserID: a.AccountID})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeValid(w, r, &req) {
		return
	}
	a, token, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.cookies.set(w, token)
	writeJSON(w, http.StatusOK, AuthEnvelope{Success: true, Message: "Login successful", UserID: a.AccountID})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.cookies.clear(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "Logout successful"})
}

func (h *AuthHandler) SendVerificationOTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.SendVerificationOTP(r.Context(), claims.UserID); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "Verification OTP sent to your email"})
}

func (h *AuthHandler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req auth.VerifyAccountRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.VerifyAccount(r.Context(), claims.UserID, req.OTP); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "Account verified successfully"})
}

func (h *AuthHandler) SendResetPasswordOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.ResetOTPRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.SendResetPasswordOTP(r.Context(), req.Email); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "Password reset OTP sent to your email"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ResetPasswordRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "Password reset successful"})
}

// IsAuthenticated never fails: guests get {success:false} with 200.
func (h *AuthHandler) IsAuthenticated(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(middleware.CookieName); err == nil {
		token = c.Value
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: h.svc.IsAuthenticated(token)})
}
