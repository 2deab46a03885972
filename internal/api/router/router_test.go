package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/starskyline/bareerah/internal/booking"
	"github.com/starskyline/bareerah/internal/conversation"
	"github.com/starskyline/bareerah/internal/dialogue"
	"github.com/starskyline/bareerah/internal/http/handlers"
	httpmiddleware "github.com/starskyline/bareerah/internal/http/middleware"
	"github.com/starskyline/bareerah/internal/messaging"
	"github.com/starskyline/bareerah/internal/session"
	"github.com/starskyline/bareerah/internal/webchat"
	"github.com/starskyline/bareerah/pkg/logging"
)

type echoEngine struct{}

func (echoEngine) Start(s *session.Session) dialogue.Reply {
	s.Record(dialogue.RoleAssistant, "Welcome.", time.Now())
	return dialogue.Reply{Text: "Welcome.", Action: dialogue.ActionContinue}
}

func (echoEngine) Step(_ context.Context, s *session.Session, in dialogue.Input) dialogue.Reply {
	s.Record("user", in.Text, time.Now())
	return dialogue.Reply{Text: "You said " + in.Text, Action: dialogue.ActionContinue}
}

func (echoEngine) Completion(*session.Session, bool, string) string { return "" }

const testSecret = "router-secret"

func newTestRouter(t *testing.T, mutate func(*Config)) (http.Handler, *session.MemoryStore) {
	t.Helper()

	logger := logging.Default()
	store := session.NewMemoryStore()
	finalizer := booking.NewFinalizer(nil, nil, nil, 0, nil, logger)
	svc := conversation.NewService(store, nil, echoEngine{}, finalizer, nil, nil, conversation.ServiceConfig{}, logger)
	repo := booking.NewMemoryRepository()

	cfg := &Config{
		Logger:              logger,
		MessagingHandler:    messaging.NewHandler(svc, nil, nil, messaging.HandlerConfig{}, nil, logger),
		ConversationHandler: conversation.NewHandler(svc, store, nil, logger),
		WebChatHandler:      webchat.NewHandler(svc, store, nil, logger),
		AdminBookings:       handlers.NewAdminBookingsHandler(repo, finalizer, logger),
		AdminAuthSecret:     testSecret,
		CORSAllowedOrigins:  []string{"https://starskyline.ae"},
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg), store
}

func opsToken(t *testing.T, role string) string {
	t.Helper()
	claims := httpmiddleware.OpsClaims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestRouterHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterTurnEndpoint(t *testing.T) {
	router, store := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/turns", strings.NewReader(`{"session_id":"api-1","text":"to the airport"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp conversation.TurnResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reply != "Welcome. You said to the airport" {
		t.Fatalf("unexpected reply %q", resp.Reply)
	}
	if s, _ := store.Load(context.Background(), "api-1"); s == nil {
		t.Fatal("expected session to be stored")
	}
}

func TestRouterVoiceWebhook(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	form := url.Values{"CallSid": {"CA100"}, "From": {"+971501112233"}}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/voice", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "<Gather") || !strings.Contains(rr.Body.String(), "Welcome.") {
		t.Fatalf("unexpected TwiML %s", rr.Body.String())
	}
}

func TestRouterAdminRoutes(t *testing.T) {
	router, store := newTestRouter(t, nil)
	_ = store.Save(context.Background(), session.New("CA200", conversation.ChannelVoice, "", "en", time.Now()))

	get := func(path, token string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := get("/admin/sessions/CA200", ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code := get("/admin/sessions/CA200", opsToken(t, "ops")); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := get("/admin/sessions/missing", opsToken(t, "ops")); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if code := get("/admin/bookings/pending", opsToken(t, "ops")); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	retry := func(role string) int {
		req := httptest.NewRequest(http.MethodPost, "/admin/bookings/retry", nil)
		req.Header.Set("Authorization", "Bearer "+opsToken(t, role))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}
	if code := retry("ops"); code != http.StatusForbidden {
		t.Fatalf("ops must not trigger retries, got %d", code)
	}
	if code := retry("admin"); code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", code)
	}
}

func TestRouterAdminDisabledWithoutSecret(t *testing.T) {
	router, _ := newTestRouter(t, func(cfg *Config) { cfg.AdminAuthSecret = "" })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/bookings/pending", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/turns", nil)
	req.Header.Set("Origin", "https://starskyline.ae")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://starskyline.ae" {
		t.Fatalf("missing allow origin header")
	}
}

func TestRouterRateLimitsWebhooks(t *testing.T) {
	router, _ := newTestRouter(t, func(cfg *Config) {
		cfg.RateLimitPerSecond = 0.001
		cfg.RateLimitBurst = 1
	})

	status := func() int {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/voice/status", strings.NewReader("CallSid=CA1&CallStatus=ringing"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}
	if code := status(); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
	if code := status(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}
