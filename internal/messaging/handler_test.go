package messaging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starskyline/bareerah/internal/conversation"
	"github.com/starskyline/bareerah/internal/lexicon"
)

type stubTurnService struct {
	starts   []conversation.StartRequest
	turns    []conversation.TurnRequest
	abandons []string
	reply    conversation.TurnResponse
	err      error
}

func (s *stubTurnService) StartSession(_ context.Context, req conversation.StartRequest) (*conversation.TurnResponse, error) {
	s.starts = append(s.starts, req)
	if s.err != nil {
		return nil, s.err
	}
	resp := s.reply
	return &resp, nil
}

func (s *stubTurnService) HandleTurn(_ context.Context, req conversation.TurnRequest) (*conversation.TurnResponse, error) {
	s.turns = append(s.turns, req)
	if s.err != nil {
		return nil, s.err
	}
	resp := s.reply
	return &resp, nil
}

func (s *stubTurnService) Abandon(_ context.Context, id, reason string) (bool, error) {
	s.abandons = append(s.abandons, id+"|"+reason)
	return true, nil
}

type stubPublisher struct {
	turns []conversation.TurnRequest
	err   error
}

func (p *stubPublisher) EnqueueTurn(_ context.Context, req conversation.TurnRequest) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.turns = append(p.turns, req)
	return "job-1", nil
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestVoiceStartGathers(t *testing.T) {
	svc := &stubTurnService{reply: conversation.TurnResponse{Reply: "Welcome to Star Skyline. Where would you like to go?", Language: lexicon.English}}
	h := NewHandler(svc, nil, nil, HandlerConfig{}, nil, nil)

	rec := httptest.NewRecorder()
	h.VoiceStart(rec, formRequest("/webhooks/twilio/voice", url.Values{"CallSid": {"CA1"}, "From": {"+971501112233"}, "To": {"+97140000000"}}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<Gather")
	assert.Contains(t, body, "/webhooks/twilio/voice/gather")
	assert.Contains(t, body, "Where would you like to go?")

	require.Len(t, svc.starts, 1)
	assert.Equal(t, "CA1", svc.starts[0].SessionID)
	assert.Equal(t, conversation.ChannelVoice, svc.starts[0].Channel)
	assert.Equal(t, "+971501112233", svc.starts[0].From)
}

func TestVoiceGatherHangsUpWhenDone(t *testing.T) {
	svc := &stubTurnService{reply: conversation.TurnResponse{Reply: "Your booking is confirmed.", Done: true}}
	h := NewHandler(svc, nil, nil, HandlerConfig{}, nil, nil)

	rec := httptest.NewRecorder()
	h.VoiceGather(rec, formRequest("/webhooks/twilio/voice/gather", url.Values{"CallSid": {"CA1"}, "SpeechResult": {"yes"}, "Confidence": {"0.87"}}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Hangup")
	assert.NotContains(t, rec.Body.String(), "<Gather")
	require.Len(t, svc.turns, 1)
	assert.Equal(t, "yes", svc.turns[0].Text)
	assert.InDelta(t, 0.87, svc.turns[0].Confidence, 0.0001)
}

func TestVoiceGatherSilenceAndFailure(t *testing.T) {
	svc := &stubTurnService{reply: conversation.TurnResponse{Reply: "Are you still there?"}}
	h := NewHandler(svc, nil, nil, HandlerConfig{}, nil, nil)

	rec := httptest.NewRecorder()
	h.VoiceGather(rec, formRequest("/webhooks/twilio/voice/gather", url.Values{"CallSid": {"CA1"}}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", svc.turns[0].Text)

	svc.err = errors.New("boom")
	rec = httptest.NewRecorder()
	h.VoiceGather(rec, formRequest("/webhooks/twilio/voice/gather", url.Values{"CallSid": {"CA1"}, "SpeechResult": {"hello"}}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Hangup")
}

func TestVoiceStatusAbandonsEndedCalls(t *testing.T) {
	svc := &stubTurnService{}
	h := NewHandler(svc, nil, nil, HandlerConfig{}, nil, nil)

	rec := httptest.NewRecorder()
	h.VoiceStatus(rec, formRequest("/webhooks/twilio/voice/status", url.Values{"CallSid": {"CA1"}, "CallStatus": {"no-answer"}}))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.VoiceStatus(rec, formRequest("/webhooks/twilio/voice/status", url.Values{"CallSid": {"CA2"}, "CallStatus": {"in-progress"}}))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, []string{"CA1|call_no_answer"}, svc.abandons)
}

func TestWhatsAppInlineReply(t *testing.T) {
	svc := &stubTurnService{reply: conversation.TurnResponse{Reply: "Where should we pick you up?"}}
	h := NewHandler(svc, nil, nil, HandlerConfig{}, nil, nil)

	rec := httptest.NewRecorder()
	h.WhatsApp(rec, formRequest("/webhooks/twilio/whatsapp", url.Values{
		"From": {"whatsapp:+971501112233"},
		"To":   {"whatsapp:+14155550199"},
		"Body": {"I need a car to DXB"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Message>Where should we pick you up?</Message>")
	require.Len(t, svc.turns, 1)
	turn := svc.turns[0]
	assert.Equal(t, "wa:+971501112233", turn.SessionID)
	assert.Equal(t, "+971501112233", turn.From)
	assert.Equal(t, "+14155550199", turn.To)
	assert.Equal(t, conversation.ChannelWhatsApp, turn.Channel)
}

func TestWhatsAppQueued(t *testing.T) {
	svc := &stubTurnService{}
	pub := &stubPublisher{}
	h := NewHandler(svc, pub, nil, HandlerConfig{}, nil, nil)

	rec := httptest.NewRecorder()
	h.WhatsApp(rec, formRequest("/webhooks/twilio/whatsapp", url.Values{"From": {"whatsapp:+971501112233"}, "Body": {"hi"}}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<Message")
	assert.Empty(t, svc.turns)
	require.Len(t, pub.turns, 1)
	assert.Equal(t, "hi", pub.turns[0].Text)

	pub.err = errors.New("sqs down")
	rec = httptest.NewRecorder()
	h.WhatsApp(rec, formRequest("/webhooks/twilio/whatsapp", url.Values{"From": {"whatsapp:+971501112233"}, "Body": {"hi"}}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	h.WhatsApp(rec, formRequest("/webhooks/twilio/whatsapp", url.Values{"Body": {"hi"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubTurnService{}
	h := NewHandler(svc, nil, NewSignatureValidator("secret", "https://bareerah.example.com"), HandlerConfig{}, nil, nil)

	req := formRequest("/webhooks/twilio/voice", url.Values{"CallSid": {"CA1"}})
	req.Header.Set("X-Twilio-Signature", "bogus")
	rec := httptest.NewRecorder()
	h.VoiceStart(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, svc.starts)

	form := url.Values{"CallSid": {"CA1"}}
	rec = httptest.NewRecorder()
	h.VoiceStart(rec, signedRequest("secret", "https://bareerah.example.com", "/webhooks/twilio/voice", form))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.starts, 1)
}

func TestWhatsAppSessionID(t *testing.T) {
	assert.Equal(t, "wa:+971501112233", WhatsAppSessionID("whatsapp:+971501112233"))
	assert.Equal(t, "wa:+971501112233", WhatsAppSessionID(" +971501112233 "))
}
