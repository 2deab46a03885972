package dialogue

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/session"
)

// FAQTopic is a question category the assistant answers without the model.
type FAQTopic string

const (
	FAQFare      FAQTopic = "fare"
	FAQPayment   FAQTopic = "payment"
	FAQChildSeat FAQTopic = "child_seat"
	FAQWaiting   FAQTopic = "waiting"
	FAQCancel    FAQTopic = "cancellation"
	FAQAmenities FAQTopic = "amenities"
	FAQDriver    FAQTopic = "driver"
	FAQLuggage   FAQTopic = "luggage"
)

// FAQEntry is one cached answer.
type FAQEntry struct {
	Topic     FAQTopic
	Pattern   *regexp.Regexp
	Responses map[lexicon.Language]string
}

// Order matters: child seats before luggage, fares before payment.
var faqEntries = []FAQEntry{
	{
		Topic:   FAQChildSeat,
		Pattern: regexp.MustCompile(`(?i)\b(child|baby|kids?|infant|booster|car)\s*seats?\b`),
		Responses: map[lexicon.Language]string{
			lexicon.English: "Child seats are free on request. Just mention it when I ask for special requests.",
			lexicon.Urdu:    "Child seat muft milti hai. Special requests mein bata dein.",
			lexicon.Arabic:  "مقاعد الأطفال مجانية عند الطلب. اذكرها في الطلبات الخاصة.",
		},
	},
	{
		Topic:   FAQFare,
		Pattern: regexp.MustCompile(`(?i)\b(fare|price|cost|rate|charge|how much|kitna|kiraya|paise|bikam|kam)\b|السعر|الأجرة|كم|کتنا|کرایہ`),
	},
	{
		Topic:   FAQPayment,
		Pattern: regexp.MustCompile(`(?i)\b(pay|payment|card|cash|visa|apple pay|link)\b|الدفع|ادفع`),
		Responses: map[lexicon.Language]string{
			lexicon.English: "You can pay the chauffeur by cash or card, or we can send a payment link.",
			lexicon.Urdu:    "Aap driver ko cash ya card se pay kar sakte hain, ya hum payment link bhej sakte hain.",
			lexicon.Arabic:  "يمكنك الدفع للسائق نقداً أو بالبطاقة، أو نرسل لك رابط دفع.",
		},
	},
	{
		Topic:   FAQWaiting,
		Pattern: regexp.MustCompile(`(?i)\b(wait|waiting|delay(ed)?|late|intezar)\b|انتظار`),
		Responses: map[lexicon.Language]string{
			lexicon.English: "Airport pickups include sixty minutes of free waiting after landing. Other pickups include fifteen minutes.",
			lexicon.Urdu:    "Airport pickup par landing ke baad saath minute muft intezar hai. Baaqi pickups par pandrah minute.",
			lexicon.Arabic:  "الاستقبال من المطار يشمل ستين دقيقة انتظار مجانية بعد الهبوط، وخمس عشرة دقيقة لغير ذلك.",
		},
	},
	{
		Topic:   FAQCancel,
		Pattern: regexp.MustCompile(`(?i)\b(cancel|cancellation|refund)\b|إلغاء|الغاء`),
		Responses: map[lexicon.Language]string{
			lexicon.English: "Cancellation is free up to two hours before pickup.",
			lexicon.Urdu:    "Pickup se do ghante pehle tak cancellation muft hai.",
			lexicon.Arabic:  "الإلغاء مجاني حتى ساعتين قبل موعد الاستلام.",
		},
	},
	{
		Topic:   FAQAmenities,
		Pattern: regexp.MustCompile(`(?i)\b(wifi|wi-fi|water|charger|a/?c|air ?con(ditioning)?|clean)\b`),
		Responses: map[lexicon.Language]string{
			lexicon.English: "All our cars are air-conditioned with free Wi-Fi, water and phone chargers.",
			lexicon.Urdu:    "Hamari sab gaariyon mein AC, muft Wi-Fi, paani aur charger hai.",
			lexicon.Arabic:  "جميع سياراتنا مكيفة مع واي فاي مجاني وماء وشواحن.",
		},
	},
	{
		Topic:   FAQDriver,
		Pattern: regexp.MustCompile(`(?i)\b(driver|chauffeur|speak|english|licen[cs]ed)\b|سائق`),
		Responses: map[lexicon.Language]string{
			lexicon.English: "Our chauffeurs are licensed, experienced and speak English, with Arabic and Urdu on request.",
			lexicon.Urdu:    "Hamare drivers licensed aur tajurba kaar hain, English aur Urdu bolte hain.",
			lexicon.Arabic:  "سائقونا مرخصون وذوو خبرة ويتحدثون الإنجليزية والعربية.",
		},
	},
	{
		Topic:   FAQLuggage,
		Pattern: regexp.MustCompile(`(?i)\b(luggage|bags?|suitcases?)\b.*\b(fit|allow(ed|ance)?|space|room|limit)\b|\b(fit|space|room)\b.*\b(luggage|bags?|suitcases?)\b`),
		Responses: map[lexicon.Language]string{
			lexicon.English: "A sedan fits three bags, an SUV five, and our vans up to eight. I pick the car to fit your group and bags.",
			lexicon.Urdu:    "Sedan mein teen bags, SUV mein paanch, aur van mein aath tak aate hain. Main gaari aap ke group ke hisaab se chunti hoon.",
			lexicon.Arabic:  "السيدان تتسع لثلاث حقائب، والدفع الرباعي لخمس، والفان حتى ثماني. أختار السيارة المناسبة لمجموعتك.",
		},
	},
}

var fareAnswers = map[lexicon.Language]string{
	lexicon.English: "The fare for the %s is %s dirhams, fixed for this trip including tolls.",
	lexicon.Urdu:    "%s ka kiraya %s dirham hai, is safar ke liye fixed, tolls samait.",
	lexicon.Arabic:  "أجرة %s هي %s درهم، ثابتة لهذه الرحلة شاملة الرسوم.",
}

var fareGeneral = map[lexicon.Language]string{
	lexicon.English: "Fares are fixed by distance and vehicle. I'll give you the exact fare once I have your trip details.",
	lexicon.Urdu:    "Kiraya faasle aur gaari ke hisaab se fixed hai. Safar ki tafseel ke baad main sahi kiraya bataungi.",
	lexicon.Arabic:  "الأجرة ثابتة حسب المسافة والسيارة. سأخبرك بالأجرة الدقيقة بعد معرفة تفاصيل رحلتك.",
}

// AnswerFAQ returns a cached answer for text. Fare questions quote the
// current offer when there is one.
func AnswerFAQ(text string, lang lexicon.Language, offer *session.Offer) (FAQTopic, string, bool) {
	for _, e := range faqEntries {
		if !e.Pattern.MatchString(text) {
			continue
		}
		if e.Topic == FAQFare {
			if offer != nil {
				return e.Topic, pick(fareAnswers, lang, vehicleName(offer.Vehicle), formatFare(offer.FareAED)), true
			}
			return e.Topic, pick(fareGeneral, lang), true
		}
		return e.Topic, pick(e.Responses, lang), true
	}
	return "", "", false
}

func pick(byLang map[lexicon.Language]string, lang lexicon.Language, args ...any) string {
	tmpl, ok := byLang[lang]
	if !ok {
		tmpl = byLang[lexicon.English]
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

func formatFare(aed float64) string {
	return strconv.FormatFloat(aed, 'f', 0, 64)
}
