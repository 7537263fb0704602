// Package client is a Go client for the EcoMoney API together with the
// in-memory state the dashboard works from.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"strings"
	"time"

	"github.com/tanveenambrose/EcoMoney/internal/domain"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// Client talks to the EcoMoney API. The session cookie set by signup and
// login is kept in the client's cookie jar and sent on every later call.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API at baseURL with an empty cookie jar.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}, nil
}

type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	UserID   string          `json:"userId"`
	UserData *domain.Profile `json:"userData"`
}

func (c *Client) Signup(ctx context.Context, req domain.SignupRequest) (string, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", req, &env); err != nil {
		return "", err
	}
	return env.UserID, nil
}

// Login starts a session and returns the account id.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", domain.LoginRequest{Email: email, Password: password}, &env); err != nil {
		return "", err
	}
	return env.UserID, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// IsAuthenticated asks the API whether the current cookie is a live session.
func (c *Client) IsAuthenticated(ctx context.Context) (bool, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/api/auth/is-auth", nil, &env); err != nil {
		return false, err
	}
	return env.Success, nil
}

func (c *Client) UserData(ctx context.Context) (*domain.Profile, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/api/user/data", nil, &env); err != nil {
		return nil, err
	}
	return env.UserData, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPut, "/api/user/update-profile", req, &env); err != nil {
		return nil, err
	}
	return env.UserData, nil
}

// Image is an avatar file sent with UpdateProfileWithImage.
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// UpdateProfileWithImage sends req and the avatar as a multipart form, the
// only encoding the API accepts file uploads in.
func (c *Client) UpdateProfileWithImage(ctx context.Context, req domain.UpdateProfileRequest, img Image) (*domain.Profile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := []struct {
		name  string
		value *string
	}{
		{"name", req.Name},
		{"phoneNo", req.Phone},
		{"totalEarnings", moneyField(req.TotalEarnings)},
		{"totalSpending", moneyField(req.TotalSpending)},
		{"totalSavings", moneyField(req.TotalSavings)},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := mw.WriteField(f.name, *f.value); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, img.Filename))
	ct := img.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if _, err := io.Copy(part, img.Body); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/user/update-profile", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	var env envelope
	if err := c.send(httpReq, &env); err != nil {
		return nil, err
	}
	return env.UserData, nil
}

func moneyField(m *domain.Money) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, http.MethodPost, "/api/user/change-password",
		domain.ChangePasswordRequest{CurrentPassword: current, NewPassword: next}, nil)
}

func (c *Client) SendVerificationOTP(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/sendVerificationOtp", nil, nil)
}

func (c *Client) VerifyAccount(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/verifyAccount", map[string]string{"otp": code}, nil)
}

func (c *Client) SendResetPasswordOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/sendResetPasswordOtp", map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/resetPassword",
		map[string]string{"email": email, "otp": code, "newPassword": newPassword}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send performs req and decodes a 2xx body into out, or returns an *APIError.
func (c *Client) send(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	path := req.URL.Path

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var env envelope
		_ = json.NewDecoder(resp.Body).Decode(&env)
		if env.Message == "" {
			env.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
