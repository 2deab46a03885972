package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starskyline/bareerah/internal/conversation"
	"github.com/starskyline/bareerah/internal/http/handlers"
	httpmiddleware "github.com/starskyline/bareerah/internal/http/middleware"
	"github.com/starskyline/bareerah/internal/messaging"
	"github.com/starskyline/bareerah/internal/webchat"
	"github.com/starskyline/bareerah/pkg/logging"
)

// Config holds router configuration. Every handler except MessagingHandler
// is optional.
type Config struct {
	Logger              *logging.Logger
	MessagingHandler    *messaging.Handler
	ConversationHandler *conversation.Handler
	WebChatHandler      *webchat.Handler
	AdminDashboard      *handlers.AdminDashboardHandler
	AdminBookings       *handlers.AdminBookingsHandler
	AdminAuthSecret     string
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// Per-client request rate for webhooks and the public chat endpoints.
	// Zero disables limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg.MessagingHandler == nil {
		panic("router: messaging handler required")
	}
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	limited := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimitPerSecond > 0 {
		limited = httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	}

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.MessagingHandler.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Route("/webhooks/twilio", func(r chi.Router) {
			r.Use(limited)
			r.Post("/voice", cfg.MessagingHandler.VoiceStart)
			r.Post("/voice/gather", cfg.MessagingHandler.VoiceGather)
			r.Post("/voice/status", cfg.MessagingHandler.VoiceStatus)
			r.Post("/whatsapp", cfg.MessagingHandler.WhatsApp)
		})
	})

	// Browser-facing endpoints used by the website widget.
	r.Group(func(web chi.Router) {
		if len(cfg.CORSAllowedOrigins) > 0 {
			web.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
		}
		web.Use(limited)
		if cfg.WebChatHandler != nil {
			web.Get("/chat/ws", cfg.WebChatHandler.HandleWebSocket)
			web.With(middleware.AllowContentType("application/json")).Post("/chat/message", cfg.WebChatHandler.HandleMessage)
			web.Get("/chat/history", cfg.WebChatHandler.HandleHistory)
			web.Options("/chat/message", preflight)
		}
		if cfg.ConversationHandler != nil {
			web.Route("/api", func(api chi.Router) {
				api.Use(middleware.AllowContentType("application/json"))
				api.Post("/sessions", cfg.ConversationHandler.StartSession)
				api.Post("/turns", cfg.ConversationHandler.Turn)
				api.Options("/sessions", preflight)
				api.Options("/turns", preflight)
			})
		}
	})

	// Operations routes, protected by an HS256 token.
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret, "ops", "admin"))
			if cfg.ConversationHandler != nil {
				admin.Get("/sessions/{sessionID}", cfg.ConversationHandler.GetSession)
			}
			if cfg.AdminDashboard != nil {
				admin.Get("/dashboard", cfg.AdminDashboard.GetDashboardOverview)
				admin.Get("/calls", cfg.AdminDashboard.ListCalls)
			}
			if cfg.AdminBookings != nil {
				admin.Get("/bookings/pending", cfg.AdminBookings.ListPending)
				admin.With(adminOnly).Post("/bookings/retry", cfg.AdminBookings.Retry)
			}
		})
	}

	return r
}

// preflight gives CORS requests a route to match; the CORS middleware
// answers them.
func preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// adminOnly restricts a route to the admin role.
func adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := httpmiddleware.OpsClaimsFromContext(r.Context())
		if !ok || claims.Role != "admin" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
