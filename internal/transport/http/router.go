package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tanveenambrose/EcoMoney/internal/application/auth"
	"github.com/tanveenambrose/EcoMoney/internal/application/avatar"
	"github.com/tanveenambrose/EcoMoney/internal/application/notification"
	"github.com/tanveenambrose/EcoMoney/internal/application/user"
	"github.com/tanveenambrose/EcoMoney/internal/config"
	"github.com/tanveenambrose/EcoMoney/internal/transport/http/handler"
	appmiddleware "github.com/tanveenambrose/EcoMoney/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.Tokens)

	// 5 requests/second, burst of 10, on the unauthenticated credential endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	var sms notification.SMSSender
	if deps.SMSSender != nil {
		sms = deps.SMSSender
	}
	notifier := notification.NewService(deps.Mailer, sms)
	userSvc := user.NewService(user.ServiceDeps{
		AccountRepo: deps.AccountRepo,
		Avatars:     avatar.NewService(deps.ObjectStore),
		Notifier:    notifier,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		AccountRepo: deps.AccountRepo,
		Registrar:   userSvc,
		Tokens:      deps.Tokens,
		Notifier:    notifier,
		SignupTTL:   cfg.SignupTokenTTL,
		LoginTTL:    cfg.LoginTokenTTL,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, handler.NewCookieConfig(cfg))
	profileH := handler.NewProfileHandler(userSvc)
	userH := handler.NewUserHandler(userSvc)

	r.Get("/", healthH.Root)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Health)

		r.Route("/auth", func(r chi.Router) {
			r.With(sensitiveRL.Limit).Post("/signup", authH.Signup)
			r.With(sensitiveRL.Limit).Post("/login", authH.Login)
			r.With(sensitiveRL.Limit).Post("/sendResetPasswordOtp", authH.SendResetPasswordOTP)
			r.With(sensitiveRL.Limit).Post("/resetPassword", authH.ResetPassword)
			r.Get("/is-auth", authH.IsAuthenticated)

			r.Group(func(r chi.Router) {
				r.Use(authMw)
				r.Post("/logout", authH.Logout)
				r.Post("/sendVerificationOtp", authH.SendVerificationOTP)
				r.Post("/verifyAccount", authH.VerifyAccount)
			})
		})

		r.Route("/user", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authMw)
				r.Get("/data", profileH.GetData)
				r.Put("/update-profile", profileH.UpdateProfile)
				r.Post("/change-password", profileH.ChangePassword)
			})

			// Admin CRUD carries no authentication; deployments turn it off with ENABLE_ADMIN_ROUTES=false.
			if cfg.EnableAdminRoutes {
				r.Route("/users", func(r chi.Router) {
					r.Get("/", userH.List)
					r.Post("/", userH.Create)
					r.Get("/{id}", userH.Get)
					r.Put("/{id}", userH.Update)
					r.Delete("/{id}", userH.Delete)
				})
			}
		})
	})

	return r
}
