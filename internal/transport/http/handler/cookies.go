package handler

import (
	"net/http"
	"time"

	"github.com/tanveenambrose/EcoMoney/internal/config"
	"github.com/tanveenambrose/EcoMoney/internal/transport/http/middleware"
)

// CookieConfig holds the attributes of the session cookie.
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// NewCookieConfig uses cross-site secure cookies in production and strict same-site ones otherwise.
func NewCookieConfig(cfg *config.Config) CookieConfig {
	if cfg.IsProduction() {
		return CookieConfig{Secure: true, SameSite: http.SameSiteNoneMode, MaxAge: cfg.CookieMaxAge}
	}
	return CookieConfig{Secure: false, SameSite: http.SameSiteStrictMode, MaxAge: cfg.CookieMaxAge}
}

func (c CookieConfig) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.cookie(token, int(c.MaxAge.Seconds())))
}

// clear expires the cookie using the same attributes it was set with.
func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", -1))
}

func (c CookieConfig) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
		MaxAge:   maxAge,
	}
}
