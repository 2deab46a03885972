package messaging

import (
	"fmt"

	"github.com/twilio/twilio-go/twiml"

	"github.com/starskyline/bareerah/internal/lexicon"
)

// VoiceSettings controls how replies are spoken and how speech is gathered.
type VoiceSettings struct {
	Voice         string
	Timeout       int
	SpeechTimeout string
	MaxSpeechTime int
}

// DefaultVoiceSettings mirrors what the call flow has been tuned for.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Voice:         "Polly.Joanna-Neural",
		Timeout:       5,
		SpeechTimeout: "auto",
		MaxSpeechTime: 30,
	}
}

// Speech recognition and TTS tags per language. Callers who speak Urdu are
// usually mixing in English, so recognition stays on an Indian English model.
var speechLanguages = map[lexicon.Language]string{
	lexicon.English: "en-US",
	lexicon.Urdu:    "en-IN",
	lexicon.Arabic:  "ar-AE",
}

var sayVoices = map[lexicon.Language]string{
	lexicon.Urdu:   "Polly.Aditi",
	lexicon.Arabic: "Polly.Zeina",
}

// TwiML renders Twilio markup for voice and WhatsApp replies.
type TwiML struct {
	settings VoiceSettings
}

func NewTwiML(settings VoiceSettings) *TwiML {
	def := DefaultVoiceSettings()
	if settings.Voice == "" {
		settings.Voice = def.Voice
	}
	if settings.Timeout <= 0 {
		settings.Timeout = def.Timeout
	}
	if settings.SpeechTimeout == "" {
		settings.SpeechTimeout = def.SpeechTimeout
	}
	if settings.MaxSpeechTime <= 0 {
		settings.MaxSpeechTime = def.MaxSpeechTime
	}
	return &TwiML{settings: settings}
}

// Gather speaks text and listens for the next utterance, posting it to
// action. When the caller stays silent the call is redirected to action
// anyway so the silence counts as an empty turn.
func (t *TwiML) Gather(text string, lang lexicon.Language, action string) (string, error) {
	gather := &twiml.VoiceGather{
		Input:         "speech",
		Action:        action,
		Method:        "POST",
		Language:      speechLanguage(lang),
		Timeout:       fmt.Sprint(t.settings.Timeout),
		SpeechTimeout: t.settings.SpeechTimeout,
		MaxSpeechTime: fmt.Sprint(t.settings.MaxSpeechTime),
		InnerElements: []twiml.Element{t.say(text, lang)},
	}
	redirect := &twiml.VoiceRedirect{Url: action, Method: "POST"}
	out, err := twiml.Voice([]twiml.Element{gather, redirect})
	if err != nil {
		return "", fmt.Errorf("messaging: render gather: %w", err)
	}
	return out, nil
}

// Hangup speaks text and ends the call.
func (t *TwiML) Hangup(text string, lang lexicon.Language) (string, error) {
	elements := []twiml.Element{}
	if text != "" {
		elements = append(elements, t.say(text, lang))
	}
	elements = append(elements, &twiml.VoiceHangup{})
	out, err := twiml.Voice(elements)
	if err != nil {
		return "", fmt.Errorf("messaging: render hangup: %w", err)
	}
	return out, nil
}

// Message answers a WhatsApp webhook inline. An empty body renders an empty
// Response so Twilio sends nothing.
func (t *TwiML) Message(body string) (string, error) {
	var elements []twiml.Element
	if body != "" {
		elements = append(elements, &twiml.MessagingMessage{Body: body})
	}
	out, err := twiml.Messages(elements)
	if err != nil {
		return "", fmt.Errorf("messaging: render message: %w", err)
	}
	return out, nil
}

func (t *TwiML) say(text string, lang lexicon.Language) *twiml.VoiceSay {
	voice := t.settings.Voice
	if v, ok := sayVoices[lang]; ok {
		voice = v
	}
	return &twiml.VoiceSay{Message: text, Voice: voice}
}

func speechLanguage(lang lexicon.Language) string {
	if tag, ok := speechLanguages[lang]; ok {
		return tag
	}
	return speechLanguages[lexicon.English]
}
