// Command voice-lambda is the public edge for Twilio webhooks. It answers on
// API Gateway and relays voice and WhatsApp callbacks to the API service,
// keeping the signature header and the public host so signatures still
// validate upstream.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/starskyline/bareerah/pkg/logging"
)

const (
	pathVoice    = "/webhooks/twilio/voice"
	pathGather   = "/webhooks/twilio/voice/gather"
	pathStatus   = "/webhooks/twilio/voice/status"
	pathWhatsApp = "/webhooks/twilio/whatsapp"
)

// relayedPaths lists the routes Twilio calls. True marks the ones answered
// while a caller is on the line.
var relayedPaths = map[string]bool{
	pathVoice:    true,
	pathGather:   true,
	pathStatus:   false,
	pathWhatsApp: false,
}

// Headers Twilio sends that the API needs for signature checks and dedup.
var forwardedHeaders = []string{"content-type", "x-twilio-signature", "i-twilio-idempotency-token"}

const (
	defaultUpstreamTimeout = 10 * time.Second

	// Twilio abandons a webhook after 15 seconds.
	maxUpstreamTimeout = 14 * time.Second
)

const unavailableTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response>` +
	`<Say>We are sorry, our booking line is having trouble. Please call again in a few minutes.</Say>` +
	`<Hangup/></Response>`

type config struct {
	upstreamBaseURL string
	upstreamTimeout time.Duration
}

func loadConfig() (config, error) {
	base := strings.TrimRight(strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL")), "/")
	if base == "" {
		return config{}, errors.New("UPSTREAM_BASE_URL is required")
	}
	cfg := config{upstreamBaseURL: base, upstreamTimeout: defaultUpstreamTimeout}
	if raw := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
		}
		cfg.upstreamTimeout = min(d, maxUpstreamTimeout)
	}
	return cfg, nil
}

func main() {
	logger := logging.New(os.Getenv("LOG_LEVEL"))
	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: cfg.upstreamTimeout}
	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		resp, err := handle(ctx, cfg, client, evt)
		if resp.StatusCode >= http.StatusInternalServerError || resp.Headers["x-relay-fallback"] != "" {
			logger.Warn("webhook relay failed", "path", evt.RawPath, "status", resp.StatusCode)
		}
		return resp, err
	})
}

func handle(ctx context.Context, cfg config, client *http.Client, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	path := eventPath(evt)
	if path == "/health" {
		return textResponse(http.StatusOK, "ok"), nil
	}
	live, known := relayedPaths[path]
	if !known {
		return textResponse(http.StatusNotFound, ""), nil
	}
	if !strings.EqualFold(evt.RequestContext.HTTP.Method, http.MethodPost) {
		return textResponse(http.StatusMethodNotAllowed, ""), nil
	}

	body := []byte(evt.Body)
	if evt.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(evt.Body)
		if err != nil {
			return textResponse(http.StatusBadRequest, "invalid body"), nil
		}
		body = decoded
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.upstreamTimeout)
	defer cancel()
	req, err := upstreamRequest(ctx, cfg.upstreamBaseURL, path, body, evt)
	if err != nil {
		return textResponse(http.StatusInternalServerError, ""), nil
	}

	resp, err := client.Do(req)
	if err != nil {
		return unavailable(live), nil
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(resp.Body)

	out := events.APIGatewayV2HTTPResponse{StatusCode: resp.StatusCode, Body: string(payload), Headers: map[string]string{}}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		out.Headers["content-type"] = ct
	}
	return out, nil
}

func eventPath(evt events.APIGatewayV2HTTPRequest) string {
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}
	return strings.TrimRight(path, "/")
}

// upstreamRequest rebuilds the webhook against the API, carrying the public
// host and scheme the signature was computed over.
func upstreamRequest(ctx context.Context, base, path string, body []byte, evt events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	target := base + path
	if qs := strings.TrimSpace(evt.RawQueryString); qs != "" {
		target += "?" + qs
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for _, name := range forwardedHeaders {
		if v := lookupHeader(evt.Headers, name); v != "" {
			req.Header.Set(name, v)
		}
	}
	host := strings.TrimSpace(evt.RequestContext.DomainName)
	if host == "" {
		host = lookupHeader(evt.Headers, "host")
	}
	if host != "" {
		req.Header.Set("X-Forwarded-Host", host)
	}
	proto := lookupHeader(evt.Headers, "x-forwarded-proto")
	if proto == "" {
		proto = "https"
	}
	req.Header.Set("X-Forwarded-Proto", proto)
	return req, nil
}

// unavailable ends a live call politely when the API cannot be reached.
// Other callbacks get a 502 so Twilio records the failure and retries.
func unavailable(live bool) events.APIGatewayV2HTTPResponse {
	if !live {
		return textResponse(http.StatusBadGateway, "upstream error")
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"content-type": "text/xml", "x-relay-fallback": "1"},
		Body:       unavailableTwiML,
	}
}

func textResponse(status int, body string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{StatusCode: status, Body: body}
}

func lookupHeader(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
