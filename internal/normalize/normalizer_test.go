package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starskyline/bareerah/internal/lexicon"
)

func TestNormalize(t *testing.T) {
	n := New(nil)
	tests := []struct {
		name string
		raw  string
		lang lexicon.Language
		want string
	}{
		{"leading filler", "um the way is Dubai Marina.", lexicon.English, "Dubai Marina"},
		{"urdu filler", "mera pickup Jumera Beach Road hai", lexicon.Urdu, "pickup Jumeirah Beach Road hai"},
		{"misspelling", "burj kalifa please", lexicon.English, "Burj Khalifa please"},
		{"arabic digits", "برج ٢٣", lexicon.Arabic, "برج 23"},
		{"whitespace", "  Dubai    Mall  ", lexicon.English, "Dubai Mall"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw, tt.lang))
		})
	}
}

func TestDetectSkipIntent(t *testing.T) {
	n := New(nil)
	tests := []struct {
		text string
		want bool
	}{
		{"", true},
		{"no", true},
		{"ok", true},
		{"none", true},
		{"Skip", true},
		{"No need, thanks", true},
		{"don't write anything", true},
		{"nothing else", true},
		{"nahi chahiye", true},
		{"bas", true},
		{"khalas", true},
		{"la shukran", true},
		{"لا شكرا", true},
		{"no thanks bro", true},
		{"???", true},
		{"***", true},
		{"!!!", true},
		{"please bring a child seat", false},
		{"No, put two water bottles in the car", false},
		{"john@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, n.DetectSkipIntent(tt.text))
		})
	}
}

func TestExtractNumber(t *testing.T) {
	n := New(nil)
	tests := []struct {
		text   string
		want   int
		wantOK bool
	}{
		{"4 bags", 4, true},
		{"four bags", 4, true},
		{"we are 3", 3, true},
		{"zero luggage", 0, true},
		{"teen log", 3, true},
		{"khamsa", 5, true},
		{"ثلاثة أشخاص", 3, true},
		{"٢ حقيبة", 2, true},
		{"2 passengers tomorrow", 2, true},
		{"many bags", 0, false},
		{"a few", 0, false},
		{"10 AM", 0, false},
		{"10am", 0, false},
		{"at 5", 0, false},
		{"5:30", 0, false},
		{"tomorrow 7", 0, false},
		{"at 10 a.m. with 3 people", 3, true},
		{"nothing", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := n.ExtractNumber(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractNumberIsIdempotentAcrossSpellings(t *testing.T) {
	n := New(nil)
	words, okWords := n.ExtractNumber("four bags")
	digits, okDigits := n.ExtractNumber("4 bags")
	assert.True(t, okWords)
	assert.True(t, okDigits)
	assert.Equal(t, digits, words)
}

func TestExtractNumberInUrdu(t *testing.T) {
	n := New(nil)
	_, ok := n.ExtractNumber("do bags")
	assert.False(t, ok)

	got, ok := n.ExtractNumberIn("do bags", lexicon.Urdu)
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestNormalizeSpokenEmail(t *testing.T) {
	assert.Equal(t, "john.smith@gmail.com", NormalizeSpokenEmail("John dot smith at gmail dot com"))
	assert.Equal(t, "ali_khan@yahoo.com", NormalizeSpokenEmail("ali underscore khan at the rate yahoo dot com"))
	assert.True(t, ValidEmail(NormalizeSpokenEmail("ali at starskyline dot ae")))
	assert.False(t, ValidEmail("not an email"))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+971501234567", NormalizePhone("whatsapp:+971501234567"))
	assert.Equal(t, "0501234567", NormalizePhone("zero five zero 123 4567"))
	assert.Equal(t, "", NormalizePhone("12 34"))
}

func TestExtractFlightNumber(t *testing.T) {
	got, ok := ExtractFlightNumber("my flight is EK 203 landing at 5")
	assert.True(t, ok)
	assert.Equal(t, "EK203", got)

	got, ok = ExtractFlightNumber("fz-1457")
	assert.True(t, ok)
	assert.Equal(t, "FZ1457", got)

	_, ok = ExtractFlightNumber("at 500 dirhams")
	assert.False(t, ok)
}
