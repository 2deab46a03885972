package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starskyline/bareerah/cmd/mainconfig"
	"github.com/starskyline/bareerah/internal/api/router"
	appconfig "github.com/starskyline/bareerah/internal/config"
	"github.com/starskyline/bareerah/pkg/logging"
)

func testComponents(t *testing.T) (*appconfig.Config, *mainconfig.Components, *prometheus.Registry) {
	t.Helper()
	cfg := &appconfig.Config{
		SessionBackend: "memory",
		EmailProvider:  "stub",
		UseMemoryQueue: true,
		WorkerCount:    1,
	}
	reg := prometheus.NewRegistry()
	c, err := mainconfig.Build(context.Background(), cfg, aws.Config{}, reg, logging.New("error"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { c.Close(context.Background()) })
	return cfg, c, reg
}

func TestSetupConversationQueueMemory(t *testing.T) {
	cfg, c, _ := testComponents(t)
	logger := logging.New("error")

	publisher, worker := setupConversationQueue(cfg, aws.Config{}, c, logger)
	if publisher == nil || worker == nil {
		t.Fatalf("expected in-memory publisher and worker")
	}

	cfg.UseMemoryQueue = false
	publisher, worker = setupConversationQueue(cfg, aws.Config{}, c, logger)
	if publisher != nil || worker != nil {
		t.Fatalf("expected inline WhatsApp without a queue url")
	}
}

func TestSetupConversationQueueSQS(t *testing.T) {
	cfg, c, _ := testComponents(t)
	cfg.UseMemoryQueue = false
	cfg.ConversationQueueURL = "http://localhost:4566/000000000000/conversation"

	publisher, worker := setupConversationQueue(cfg, aws.Config{Region: "me-central-1"}, c, logging.New("error"))
	if publisher == nil {
		t.Fatalf("expected sqs publisher")
	}
	if worker != nil {
		t.Fatalf("sqs worker runs in its own binary")
	}
}

func TestRouterExposesMetricsAndChat(t *testing.T) {
	cfg, c, reg := testComponents(t)
	handler := router.New(routerConfig(cfg, c, nil, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), logging.New("error")))

	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(`{"session_id":"abc","text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from chat, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "bareerah_") {
		t.Fatalf("expected conversation metrics to be exported")
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("admin routes must be absent without a secret, got %d", rr.Code)
	}
}
