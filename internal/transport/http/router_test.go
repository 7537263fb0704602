package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanveenambrose/EcoMoney/internal/config"
	"github.com/tanveenambrose/EcoMoney/internal/domain"
	jwtinfra "github.com/tanveenambrose/EcoMoney/internal/infrastructure/jwt"
)

// memRepo is an in-memory AccountRepository for exercising the full route table.
type memRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newMemRepo() *memRepo { return &memRepo{accounts: map[string]*domain.Account{}} }

func (m *memRepo) Put(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.AccountID]; ok {
		return domain.ErrConflict
	}
	cp := *a
	m.accounts[a.AccountID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, accountID string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok || !a.Enable {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) find(match func(*domain.Account) bool) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	return m.find(func(a *domain.Account) bool { return a.Email == email })
}

func (m *memRepo) GetByPhone(_ context.Context, phone string) (*domain.Account, error) {
	return m.find(func(a *domain.Account) bool { return a.Phone == phone })
}

func (m *memRepo) Update(_ context.Context, accountID string, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok || !a.Enable {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	apply(a, updates)
	return nil
}

func (m *memRepo) ScanPage(_ context.Context, _ int32, _ string) ([]domain.Account, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Account
	for _, a := range m.accounts {
		if a.Enable {
			out = append(out, *a)
		}
	}
	return out, "", nil
}

func (m *memRepo) SoftDelete(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok || !a.Enable {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	a.Enable = false
	return nil
}

func (m *memRepo) SetOTP(_ context.Context, accountID, kind, code string, expireAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[accountID]
	if kind == domain.OTPReset {
		a.ResetOTP, a.ResetOTPExpireAt = code, expireAt
	} else {
		a.VerifyOTP, a.VerifyOTPExpireAt = code, expireAt
	}
	return nil
}

func (m *memRepo) ConsumeOTP(_ context.Context, accountID, kind, code string, effects map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[accountID]
	if stored, _ := a.OTP(kind); stored != code {
		return fmt.Errorf("invalid OTP: %w", domain.ErrInvalidOTP)
	}
	if kind == domain.OTPReset {
		a.ResetOTP, a.ResetOTPExpireAt = "", 0
	} else {
		a.VerifyOTP, a.VerifyOTPExpireAt = "", 0
	}
	apply(a, effects)
	return nil
}

func apply(a *domain.Account, updates map[string]interface{}) {
	for k, v := range updates {
		switch k {
		case "name":
			a.Name = v.(string)
		case "phone":
			a.Phone = v.(string)
		case "password_hash":
			a.PasswordHash = v.(string)
		case "is_account_verified":
			a.IsAccountVerified = v.(bool)
		}
	}
}

type noopStore struct{}

func (noopStore) Upload(context.Context, string, io.Reader, string) (string, error) {
	return "https://cdn.test/avatar.png", nil
}
func (noopStore) Delete(context.Context, string) error { return nil }
func (noopStore) KeyFromURL(string) (string, bool)     { return "", false }

type sentMail struct{ to, subject, body string }

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (r *recordingMailer) SendEmail(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{to, subject, body})
	return nil
}

func (r *recordingMailer) last() sentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:            "development",
		JWTSecret:         "0123456789abcdef0123456789abcdef",
		SignupTokenTTL:    time.Hour,
		LoginTokenTTL:     24 * time.Hour,
		CookieMaxAge:      24 * time.Hour,
		AllowedOrigins:    []string{"http://localhost:3000"},
		EnableAdminRoutes: true,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *recordingMailer) {
	t.Helper()
	tokens, err := jwtinfra.NewProvider(cfg)
	require.NoError(t, err)
	mailer := &recordingMailer{}
	srv := httptest.NewServer(NewRouter(cfg, &Deps{
		AccountRepo: newMemRepo(),
		ObjectStore: noopStore{},
		Mailer:      mailer,
		Tokens:      tokens,
	}))
	t.Cleanup(srv.Close)
	return srv, mailer
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, cookie *http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func tokenCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

var otpPattern = regexp.MustCompile(`OTP is: (\d{6})`)

func TestRouter_SignupVerifyFlow(t *testing.T) {
	srv, mailer := newTestServer(t, testConfig())

	resp, body := do(t, srv, http.MethodPost, "/api/auth/signup",
		`{"name":"Alice","phoneNo":"01700000000","email":"Alice@Example.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	cookie := tokenCookie(resp)
	require.NotNil(t, cookie)
	assert.Equal(t, "alice@example.com", mailer.last().to)
	assert.Equal(t, "Welcome to EcoMoney!", mailer.last().subject)

	resp, body = do(t, srv, http.MethodGet, "/api/auth/is-auth", "", cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = do(t, srv, http.MethodGet, "/api/user/data", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["userData"].(map[string]interface{})
	assert.Equal(t, false, data["isAccountVerified"])
	assert.Equal(t, float64(0), data["totalBalance"])

	resp, _ = do(t, srv, http.MethodPost, "/api/auth/sendVerificationOtp", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := otpPattern.FindStringSubmatch(mailer.last().body)
	require.Len(t, m, 2)

	resp, body = do(t, srv, http.MethodPost, "/api/auth/verifyAccount", `{"otp":"`+m[1]+`"}`, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	// The code is single-use.
	resp, body = do(t, srv, http.MethodPost, "/api/auth/verifyAccount", `{"otp":"`+m[1]+`"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = do(t, srv, http.MethodGet, "/api/user/data", "", cookie)
	assert.Equal(t, true, body["userData"].(map[string]interface{})["isAccountVerified"])
}

func TestRouter_DuplicateSignup(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	payload := `{"name":"Alice","phoneNo":"017","email":"a@example.com","password":"secret1"}`

	resp, _ := do(t, srv, http.MethodPost, "/api/auth/signup", payload, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := do(t, srv, http.MethodPost, "/api/auth/signup", payload, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Email already in use", body["message"])
}

func TestRouter_ProtectedRoutesNeedCookie(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/user/data"},
		{http.MethodPut, "/api/user/update-profile"},
		{http.MethodPost, "/api/user/change-password"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodPost, "/api/auth/sendVerificationOtp"},
		{http.MethodPost, "/api/auth/verifyAccount"},
	} {
		resp, body := do(t, srv, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.path)
		assert.Equal(t, false, body["success"], tc.path)
	}

	resp, body := do(t, srv, http.MethodGet, "/api/auth/is-auth", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestRouter_AdminRoutesCanBeDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableAdminRoutes = false
	srv, _ := newTestServer(t, cfg)

	resp, _ := do(t, srv, http.MethodGet, "/api/user/users", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_AdminDeleteHidesAccount(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	resp, body := do(t, srv, http.MethodPost, "/api/user/users",
		`{"name":"Bob","phoneNo":"018","email":"bob@example.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	accountID := body["user"].(map[string]interface{})["userId"].(string)

	resp, _ = do(t, srv, http.MethodDelete, "/api/user/users/"+accountID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/api/user/users/"+accountID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPost, "/api/auth/login", `{"email":"bob@example.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", body["message"])
}

func TestRouter_HealthAndCORS(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	root, err := srv.Client().Get(srv.URL + "/")
	require.NoError(t, err)
	defer root.Body.Close()
	b, _ := io.ReadAll(root.Body)
	assert.Equal(t, "API is running....", string(b))
}

func TestRouter_BlankSignupFieldsRejected(t *testing.T) {
	srv, mailer := newTestServer(t, testConfig())

	for _, path := range []string{"/api/auth/signup", "/api/user/users"} {
		resp, body := do(t, srv, http.MethodPost, path,
			`{"name":"   ","phoneNo":"   ","email":"blank@example.com","password":"secret1"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		assert.Equal(t, false, body["success"], path)
		assert.Contains(t, body["message"], "Name is required", path)
	}
	assert.Empty(t, mailer.sent)

	resp, _ := do(t, srv, http.MethodPost, "/api/auth/login", `{"email":"blank@example.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func loginStatuses(t *testing.T, srv *httptest.Server, n int) map[int]int {
	t.Helper()
	counts := map[int]int{}
	for i := 0; i < n; i++ {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/auth/login",
			strings.NewReader(`{"email":"nobody@example.com","password":"x"}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		counts[resp.StatusCode]++
	}
	return counts
}

func TestRouter_RateLimitIgnoresForwardedForByDefault(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	counts := loginStatuses(t, srv, 30)
	assert.Positive(t, counts[http.StatusTooManyRequests])
}

func TestRouter_RateLimitUsesForwardedForBehindTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.TrustProxy = true
	srv, _ := newTestServer(t, cfg)

	counts := loginStatuses(t, srv, 30)
	assert.Zero(t, counts[http.StatusTooManyRequests])
	assert.Equal(t, 30, counts[http.StatusUnauthorized])
}
