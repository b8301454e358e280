package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vozagenda/vozagenda/internal/appointments"
	"github.com/vozagenda/vozagenda/internal/capture"
	"github.com/vozagenda/vozagenda/internal/http/handlers"
	httpmiddleware "github.com/vozagenda/vozagenda/internal/http/middleware"
	"github.com/vozagenda/vozagenda/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	VoiceSessions       *handlers.VoiceSessionHandler
	CaptureHandler      *capture.Handler
	MetricsHandler      http.Handler
	AdminAuthSecret     string
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.CaptureHandler != nil {
			public.Get("/ws/voice", cfg.CaptureHandler.HandleWebSocket)
		}
		public.Route("/api", func(api chi.Router) {
			if cfg.AppointmentsHandler != nil {
				api.Route("/appointments", func(r chi.Router) {
					r.Post("/", cfg.AppointmentsHandler.Create)
					r.Get("/", cfg.AppointmentsHandler.List)
					r.Get("/{id}", cfg.AppointmentsHandler.Get)
					// Rescheduling and cancellation require admin credentials
					// when auth is configured.
					if cfg.AdminAuthSecret != "" {
						r.With(httpmiddleware.AdminJWT(cfg.AdminAuthSecret)).Put("/{id}", cfg.AppointmentsHandler.Update)
						r.With(httpmiddleware.AdminJWT(cfg.AdminAuthSecret)).Delete("/{id}", cfg.AppointmentsHandler.Delete)
					} else {
						r.Put("/{id}", cfg.AppointmentsHandler.Update)
						r.Delete("/{id}", cfg.AppointmentsHandler.Delete)
					}
				})
			}
			if cfg.VoiceSessions != nil {
				api.Route("/voice/sessions", func(r chi.Router) {
					r.Post("/", cfg.VoiceSessions.CreateSession)
					r.Get("/{id}", cfg.VoiceSessions.GetSession)
					r.Post("/{id}/start", cfg.VoiceSessions.StartSession)
					r.Post("/{id}/transcript", cfg.VoiceSessions.PostTranscript)
					r.Post("/{id}/stop", cfg.VoiceSessions.StopSession)
					r.Post("/{id}/resolve", cfg.VoiceSessions.ResolveAmbiguity)
					r.Post("/{id}/confirm", cfg.VoiceSessions.ConfirmSession)
					r.Post("/{id}/retry", cfg.VoiceSessions.RetrySession)
					r.Post("/{id}/reset", cfg.VoiceSessions.ResetSession)
				})
			}
		})
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.VoiceSessions != nil {
				admin.Get("/voice/sessions/{id}", cfg.VoiceSessions.GetSession)
				admin.Get("/voice/sessions/{id}/transcript", cfg.VoiceSessions.GetTranscript)
				admin.Delete("/voice/sessions/{id}", cfg.VoiceSessions.DeleteSession)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
