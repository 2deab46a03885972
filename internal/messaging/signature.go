package messaging

import (
	"net/http"

	twclient "github.com/twilio/twilio-go/client"
)

// SignatureValidator checks X-Twilio-Signature on inbound webhooks.
type SignatureValidator struct {
	validator twclient.RequestValidator
	baseURL   string
	enabled   bool
}

// NewSignatureValidator disables checking when authToken is empty, which is
// how local development runs.
func NewSignatureValidator(authToken, publicBaseURL string) *SignatureValidator {
	if authToken == "" {
		return &SignatureValidator{}
	}
	return &SignatureValidator{
		validator: twclient.NewRequestValidator(authToken),
		baseURL:   publicBaseURL,
		enabled:   true,
	}
}

// Valid parses the form and verifies the signature against the public URL
// Twilio was configured with.
func (v *SignatureValidator) Valid(r *http.Request) bool {
	if v == nil || !v.enabled {
		return true
	}
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	params := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return v.validator.Validate(v.requestURL(r), params, signature)
}

func (v *SignatureValidator) requestURL(r *http.Request) string {
	if v.baseURL != "" {
		return v.baseURL + r.URL.RequestURI()
	}
	scheme := "https"
	if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") == "" {
		scheme = "http"
	} else if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
