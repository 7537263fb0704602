package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tanveenambrose/EcoMoney/internal/application/auth"
	"github.com/tanveenambrose/EcoMoney/internal/application/avatar"
	"github.com/tanveenambrose/EcoMoney/internal/config"
	"github.com/tanveenambrose/EcoMoney/internal/domain"
	jwtinfra "github.com/tanveenambrose/EcoMoney/internal/infrastructure/jwt"
	"github.com/tanveenambrose/EcoMoney/internal/transport/http/middleware"
)

// --- mocks ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Signup(ctx context.Context, req domain.SignupRequest) (*domain.Account, string, error) {
	args := m.Called(ctx, req)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.String(1), args.Error(2)
	}
	return nil, "", args.Error(2)
}
func (m *mockAuthSvc) Login(ctx context.Context, req domain.LoginRequest) (*domain.Account, string, error) {
	args := m.Called(ctx, req)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.String(1), args.Error(2)
	}
	return nil, "", args.Error(2)
}
func (m *mockAuthSvc) SendVerificationOTP(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}
func (m *mockAuthSvc) VerifyAccount(ctx context.Context, accountID, code string) error {
	return m.Called(ctx, accountID, code).Error(0)
}
func (m *mockAuthSvc) SendResetPasswordOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockAuthSvc) ResetPassword(ctx context.Context, req auth.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockAuthSvc) IsAuthenticated(token string) bool {
	return m.Called(token).Bool(0)
}

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Register(ctx context.Context, req domain.SignupRequest) (*domain.Account, error) {
	args := m.Called(ctx, req)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) GetProfile(ctx context.Context, accountID string) (*domain.Profile, error) {
	args := m.Called(ctx, accountID)
	if p, _ := args.Get(0).(*domain.Profile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) UpdateProfile(ctx context.Context, accountID string, req domain.UpdateProfileRequest, image *avatar.UploadInput) (*domain.Profile, error) {
	args := m.Called(ctx, accountID, req, image)
	if p, _ := args.Get(0).(*domain.Profile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) ChangePassword(ctx context.Context, accountID string, req domain.ChangePasswordRequest) error {
	return m.Called(ctx, accountID, req).Error(0)
}
func (m *mockUserSvc) List(ctx context.Context, limit int, cursor string) ([]domain.Account, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.Account), args.String(1), args.Error(2)
}
func (m *mockUserSvc) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) Update(ctx context.Context, accountID string, req domain.AdminUpdateRequest) (*domain.Account, error) {
	args := m.Called(ctx, accountID, req)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) Delete(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

// --- helpers ---

func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	p, err := jwtinfra.NewProvider(&config.Config{JWTSecret: "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)
	return p
}

var devCookies = CookieConfig{SameSite: http.SameSiteStrictMode, MaxAge: 7 * 24 * time.Hour}

func jsonReq(method, target string, v interface{}) *http.Request {
	var body []byte
	switch b := v.(type) {
	case nil:
	case string:
		body = []byte(b)
	default:
		body, _ = json.Marshal(v)
	}
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// cookieReq attaches a freshly signed session cookie for accountID.
func cookieReq(t *testing.T, p *jwtinfra.Provider, r *http.Request, accountID string) *http.Request {
	t.Helper()
	token, err := p.Sign(accountID, time.Hour)
	require.NoError(t, err)
	r.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
	return r
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.HandlerFunc, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p)(h).ServeHTTP(w, r)
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.CookieName {
			return c
		}
	}
	return nil
}
