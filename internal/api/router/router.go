// Package router wires the HTTP surface of the reminder service.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mfracassi/clubdesk/internal/http/handlers"
	httpmiddleware "github.com/mfracassi/clubdesk/internal/http/middleware"
	"github.com/mfracassi/clubdesk/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Reminders          *handlers.RemindersHandler
	Phones             *handlers.PhonesHandler
	Send               *handlers.SendHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// MutationRPS throttles the endpoints that write or dispatch. Zero
	// disables throttling.
	MutationRPS   float64
	MutationBurst int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	var throttle func(http.Handler) http.Handler
	if cfg.MutationRPS > 0 {
		burst := cfg.MutationBurst
		if burst < 1 {
			burst = 1
		}
		throttle = httpmiddleware.RateLimit(cfg.MutationRPS, burst)
	}

	r.Route("/reminders", func(r chi.Router) {
		r.Get("/preview", cfg.Reminders.PreviewExpiries)
		send := r
		if throttle != nil {
			send = r.With(throttle)
		}
		send.Get("/send", cfg.Reminders.SendReminders)
		send.Post("/send", cfg.Reminders.SendReminders)
	})

	r.Route("/phones", func(r chi.Router) {
		r.Get("/preview", cfg.Phones.PhonesPreview)
		apply := r
		if throttle != nil {
			apply = r.With(throttle)
		}
		apply.Get("/apply", cfg.Phones.PhonesApply)
		apply.Post("/apply", cfg.Phones.PhonesApply)
	})

	if cfg.Send != nil {
		send := chi.Router(r)
		if throttle != nil {
			send = r.With(throttle)
		}
		send.Post("/messages/send", cfg.Send.SendMessage)
	}

	return r
}
