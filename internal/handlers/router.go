package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"twolaunch/internal/service"
)

// RouterOptions configures the HTTP router
type RouterOptions struct {
	AllowedOrigins []string
	Accounts       *service.AccountService
	Registry       *prometheus.Registry
	Logger         zerolog.Logger
}

// Router builds the HTTP router with health, metrics and the account API
func Router(opts RouterOptions) http.Handler {
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics := NewMetrics(registry)

	mw := NewMiddleware(opts.Accounts, metrics, opts.Logger)
	accounts := NewAccountHandler(opts.Accounts, metrics, opts.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logging)
	r.Use(middleware.Recoverer)

	allowed := opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method("GET", "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", accounts.Register)
		r.Get("/check_name", accounts.CheckName)
		r.Post("/login", accounts.Login)
		r.Get("/auth/validate", accounts.Validate)
		r.Get("/all_registrations", accounts.ListRegistrations)
		r.Post("/increment_view/{id}", accounts.IncrementView)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Post("/send_email", accounts.SendEmail)

			r.With(mw.RequireOwner).Get("/registration/{id}", accounts.GetRegistration)
			r.With(mw.RequireOwner).Get("/metrics/{id}", accounts.GetMetrics)
			r.With(mw.RequireOwner).Delete("/delete/{id}", accounts.DeleteRegistration)
		})
	})

	return r
}
