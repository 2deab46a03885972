package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/session"
)

func TestPickupHour(t *testing.T) {
	tests := []struct {
		in     string
		hour   int
		wantOK bool
	}{
		{"tomorrow at 5", 5, true},
		{"17:30", 17, true},
		{"friday 9.15", 9, true},
		{"7 o'clock", 7, true},
		{"kal 8 baje", 8, true},
		{"15th March at 7", 7, true},
		{"15th March", 0, false},
		{"tomorrow", 0, false},
		{"3", 3, true},
	}
	for _, tt := range tests {
		h, ok := pickupHour(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.hour, h, tt.in)
		}
	}
}

func TestHasExplicitPeriod(t *testing.T) {
	lex := lexicon.Default()
	for _, in := range []string{"5pm", "5 p.m.", "tomorrow morning at 6", "tonight at 9", "18:00", "midnight"} {
		assert.True(t, hasExplicitPeriod(lex, in), in)
	}
	for _, in := range []string{"tomorrow at 5", "friday 7:30", "kal 8 baje"} {
		assert.False(t, hasExplicitPeriod(lex, in), in)
	}
}

func TestNeedsPeriodOnlyForAmbiguousHours(t *testing.T) {
	lex := lexicon.Default()
	s := session.New("s", "voice", "", lexicon.English, testNow)
	assert.False(t, needsPeriod(lex, s), "nothing locked")

	s.Lock(session.SlotDateTime, "tomorrow at 5")
	assert.True(t, needsPeriod(lex, s))

	s.Lock(session.SlotDateTime, "tomorrow at 5 AM")
	assert.False(t, needsPeriod(lex, s))

	s.Lock(session.SlotDateTime, "tomorrow")
	assert.False(t, needsPeriod(lex, s))
}

func TestAnswerFAQ(t *testing.T) {
	offer := &session.Offer{Vehicle: "suv", FareAED: 180}
	tests := []struct {
		in    string
		offer *session.Offer
		topic FAQTopic
		want  string
	}{
		{"how much is it?", offer, FAQFare, "The fare for the SUV is 180 dirhams"},
		{"what's the price", nil, FAQFare, "exact fare once"},
		{"can I pay by card?", nil, FAQPayment, "cash or card"},
		{"do you have a baby seat", nil, FAQChildSeat, "Child seats"},
		{"what if my flight is delayed", nil, FAQWaiting, "sixty minutes"},
		{"can I cancel later?", nil, FAQCancel, "two hours"},
		{"is there wifi", nil, FAQAmenities, "Wi-Fi"},
		{"does the driver speak english", nil, FAQDriver, "chauffeurs"},
		{"will my luggage fit", nil, FAQLuggage, "three bags"},
	}
	for _, tt := range tests {
		topic, answer, ok := AnswerFAQ(tt.in, lexicon.English, tt.offer)
		assert.True(t, ok, tt.in)
		assert.Equal(t, tt.topic, topic, tt.in)
		assert.Contains(t, answer, tt.want, tt.in)
	}

	_, _, ok := AnswerFAQ("what colour is the sky", lexicon.English, nil)
	assert.False(t, ok)

	_, answer, ok := AnswerFAQ("kitna kiraya hai", lexicon.Urdu, offer)
	assert.True(t, ok)
	assert.Contains(t, answer, "180 dirham")
}

func TestCleanName(t *testing.T) {
	tests := map[string]string{
		"my name is ahmed khan": "Ahmed Khan",
		"this is Sara":          "Sara",
		"mera naam bilal hai":   "Bilal",
		"it's john smith.":      "John Smith",
		"fatima":                "Fatima",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanName(in), in)
	}
}

func TestAmendTarget(t *testing.T) {
	tests := map[string]session.Slot{
		"change the pickup time":     session.SlotDateTime,
		"the flight number is wrong": session.SlotFlight,
		"number of passengers":       session.SlotPassengers,
		"my phone number":            session.SlotContact,
		"change the pickup":          session.SlotPickup,
		"wrong destination":          session.SlotDropoff,
		"add 2 more bags":            session.SlotLuggage,
		"spell my name again":        session.SlotName,
		"nothing really":             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, amendTarget(in), in)
	}
}
