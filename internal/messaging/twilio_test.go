package messaging

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/starskyline/bareerah/internal/conversation"
	"github.com/starskyline/bareerah/internal/extcall"
	"github.com/starskyline/bareerah/internal/lexicon"
)

type fakeMessageAPI struct {
	mu     sync.Mutex
	params []*openapi.CreateMessageParams
	errs   []error
}

func (f *fakeMessageAPI) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, params)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	sid := "SM123"
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

func (f *fakeMessageAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.params)
}

func TestTwiMLGather(t *testing.T) {
	tw := NewTwiML(VoiceSettings{})
	out, err := tw.Gather("Where are you going?", lexicon.English, "/webhooks/twilio/voice/gather")
	require.NoError(t, err)

	assert.Contains(t, out, "<Gather")
	assert.Contains(t, out, `input="speech"`)
	assert.Contains(t, out, `language="en-US"`)
	assert.Contains(t, out, `voice="Polly.Joanna-Neural"`)
	assert.Contains(t, out, "Where are you going?")
	assert.Contains(t, out, "<Redirect")
	assert.Less(t, strings.Index(out, "<Gather"), strings.Index(out, "<Redirect"))
}

func TestTwiMLLanguageVoices(t *testing.T) {
	tw := NewTwiML(DefaultVoiceSettings())

	out, err := tw.Gather("مرحبا", lexicon.Arabic, "/g")
	require.NoError(t, err)
	assert.Contains(t, out, `language="ar-AE"`)
	assert.Contains(t, out, `voice="Polly.Zeina"`)

	out, err = tw.Gather("Aap kahan jana chahte hain?", lexicon.Urdu, "/g")
	require.NoError(t, err)
	assert.Contains(t, out, `language="en-IN"`)
	assert.Contains(t, out, `voice="Polly.Aditi"`)
}

func TestTwiMLHangupAndMessage(t *testing.T) {
	tw := NewTwiML(DefaultVoiceSettings())

	out, err := tw.Hangup("Goodbye.", lexicon.English)
	require.NoError(t, err)
	assert.Contains(t, out, "Goodbye.")
	assert.Contains(t, out, "<Hangup")

	out, err = tw.Message("Thanks for booking")
	require.NoError(t, err)
	assert.Contains(t, out, "<Message>Thanks for booking</Message>")

	out, err = tw.Message("")
	require.NoError(t, err)
	assert.NotContains(t, out, "<Message")
	assert.Contains(t, out, "Response")
}

func TestTwilioSenderWhatsApp(t *testing.T) {
	api := &fakeMessageAPI{}
	sender := newTwilioSender(api, TwilioConfig{From: "+14155550100", WhatsAppFrom: "+14155550199"}, nil, nil)

	err := sender.SendReply(context.Background(), conversation.OutboundReply{
		Channel: conversation.ChannelWhatsApp,
		To:      "+971501112233",
		Body:    "Your booking is confirmed.",
	})
	require.NoError(t, err)
	require.Equal(t, 1, api.calls())
	p := api.params[0]
	assert.Equal(t, "whatsapp:+971501112233", *p.To)
	assert.Equal(t, "whatsapp:+14155550199", *p.From)
	assert.Equal(t, "Your booking is confirmed.", *p.Body)
}

func TestTwilioSenderSMSAndValidation(t *testing.T) {
	api := &fakeMessageAPI{}
	sender := newTwilioSender(api, TwilioConfig{From: "+14155550100"}, nil, nil)

	require.NoError(t, sender.SendSMS(context.Background(), "+971500000001", "Call back Ahmed"))
	assert.Equal(t, "+14155550100", *api.params[0].From)

	assert.Error(t, sender.SendSMS(context.Background(), "", "body"))
	assert.Error(t, sender.SendSMS(context.Background(), "+971500000001", "  "))
	assert.Error(t, sender.SendReply(context.Background(), conversation.OutboundReply{Channel: conversation.ChannelVoice, To: "+1", Body: "x"}))
	assert.Equal(t, 1, api.calls())
}

func TestTwilioSenderRetriesServerErrors(t *testing.T) {
	api := &fakeMessageAPI{errs: []error{&twclient.TwilioRestError{Status: 503, Message: "unavailable"}}}
	sender := newTwilioSender(api, TwilioConfig{From: "+14155550100"}, nil, nil)

	require.NoError(t, sender.SendSMS(context.Background(), "+971500000001", "hello"))
	assert.Equal(t, 2, api.calls())
}

func TestTwilioSenderDoesNotRetryRejections(t *testing.T) {
	api := &fakeMessageAPI{errs: []error{&twclient.TwilioRestError{Status: 400, Code: 21211, Message: "invalid To"}}}
	sender := newTwilioSender(api, TwilioConfig{From: "+14155550100"}, nil, nil)

	err := sender.SendSMS(context.Background(), "+0", "hello")
	require.Error(t, err)
	assert.Equal(t, extcall.KindInvalidResponse, extcall.KindOf(err))
	assert.Equal(t, 1, api.calls())
}

func TestClassifyTwilioError(t *testing.T) {
	assert.NoError(t, classifyTwilioError(nil))
	assert.Equal(t, extcall.KindUnavailable, extcall.KindOf(classifyTwilioError(&twclient.TwilioRestError{Status: 429})))
	assert.Equal(t, extcall.KindInvalidResponse, extcall.KindOf(classifyTwilioError(&twclient.TwilioRestError{Status: 404})))
	assert.Equal(t, extcall.KindTimeout, extcall.KindOf(classifyTwilioError(context.DeadlineExceeded)))
	assert.Equal(t, extcall.KindUnavailable, extcall.KindOf(classifyTwilioError(errors.New("connection reset"))))
}

func TestNewTwilioSenderWithoutCredentials(t *testing.T) {
	assert.Nil(t, NewTwilioSender(TwilioConfig{}, nil, nil))
}

func sign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signedRequest(token, base, path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", sign(token, base+path, form))
	return req
}

func TestSignatureValidator(t *testing.T) {
	form := url.Values{"CallSid": {"CA123"}, "From": {"+971501112233"}}
	v := NewSignatureValidator("secret", "https://bareerah.example.com")

	assert.True(t, v.Valid(signedRequest("secret", "https://bareerah.example.com", "/webhooks/twilio/voice", form)))
	assert.False(t, v.Valid(signedRequest("other", "https://bareerah.example.com", "/webhooks/twilio/voice", form)))

	unsigned := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/voice", strings.NewReader(form.Encode()))
	unsigned.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.False(t, v.Valid(unsigned))

	assert.True(t, NewSignatureValidator("", "").Valid(unsigned))
}
