package dialogue

import (
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/session"
)

// promptKey names one line of the assistant's script.
type promptKey string

const (
	keyGreeting        promptKey = "greeting"
	keyAskDropoff      promptKey = "ask.dropoff"
	keyAskPickup       promptKey = "ask.pickup"
	keyAskFlightArr    promptKey = "ask.flight_arrival"
	keyAskFlightDep    promptKey = "ask.flight_departure"
	keyAskDateTime     promptKey = "ask.datetime"
	keyAskPassengers   promptKey = "ask.passengers"
	keyAskLuggage      promptKey = "ask.luggage"
	keyAskName         promptKey = "ask.name"
	keyAskContact      promptKey = "ask.contact"
	keyAskEmail        promptKey = "ask.email"
	keyAskNotes        promptKey = "ask.notes"
	keyConfirmDropoff  promptKey = "confirm.dropoff"
	keyConfirmPickup   promptKey = "confirm.pickup"
	keyConfirmFlight   promptKey = "confirm.flight"
	keyConfirmDateTime promptKey = "confirm.datetime"
	keyConfirmPax      promptKey = "confirm.passengers"
	keyConfirmLuggage  promptKey = "confirm.luggage"
	keyConfirmName     promptKey = "confirm.name"
	keyConfirmContact  promptKey = "confirm.contact"
	keyConfirmEmail    promptKey = "confirm.email"
	keyPeriodConfirm   promptKey = "period.confirm"
	keyPeriodAsk       promptKey = "period.ask"
	keyRetryLocation   promptKey = "retry.location"
	keyRetryGeneric    promptKey = "retry.generic"
	keyRetryNumber     promptKey = "retry.number"
	keyRetryEmail      promptKey = "retry.email"
	keyRetryPhone      promptKey = "retry.phone"
	keyRetryFlight     promptKey = "retry.flight"
	keyForced          promptKey = "forced"
	keyQuote           promptKey = "quote"
	keyConfirmAgain    promptKey = "confirm.again"
	keyUpgradeOptions  promptKey = "upgrade.options"
	keyUpgradeNone     promptKey = "upgrade.none"
	keyUpgradeRestored promptKey = "upgrade.restored"
	keyUpgradeChosen   promptKey = "upgrade.chosen"
	keyAmendAsk        promptKey = "amend.ask"
	keyCapacity        promptKey = "capacity"
	keyTerminate       promptKey = "terminate"
	keyFatal           promptKey = "fatal"
	keyDoneConfirmed   promptKey = "complete.confirmed"
	keyDonePending     promptKey = "complete.pending"
	keyFAQFallback     promptKey = "faq.fallback"
	keyAlreadyDone     promptKey = "complete.already"
)

var prompts = map[promptKey]map[lexicon.Language]string{
	keyGreeting: {
		lexicon.English: "Welcome to %s, this is Bareerah. Where would you like to go?",
		lexicon.Urdu:    "%s mein khush aamdeed, main Bareerah hoon. Aap kahan jana chahte hain?",
		lexicon.Arabic:  "مرحباً بك في %s، معك بريرة. إلى أين تود الذهاب؟",
	},
	keyAskDropoff: {
		lexicon.English: "Where would you like to go?",
		lexicon.Urdu:    "Aap kahan jana chahte hain?",
		lexicon.Arabic:  "إلى أين تود الذهاب؟",
	},
	keyAskPickup: {
		lexicon.English: "Where should we pick you up?",
		lexicon.Urdu:    "Hum aap ko kahan se pick karein?",
		lexicon.Arabic:  "من أين نأخذك؟",
	},
	keyAskFlightArr: {
		lexicon.English: "What is your flight number? We track the landing time. You can also say skip.",
		lexicon.Urdu:    "Aap ki flight number kya hai? Hum landing time track karte hain. Aap skip bhi keh sakte hain.",
		lexicon.Arabic:  "ما رقم رحلتك؟ نتابع وقت الهبوط. يمكنك أيضاً قول تخطي.",
	},
	keyAskFlightDep: {
		lexicon.English: "What is your flight number, so we time the pickup? You can also say skip.",
		lexicon.Urdu:    "Aap ki flight number kya hai, taake pickup ka waqt sahi rakhein? Aap skip bhi keh sakte hain.",
		lexicon.Arabic:  "ما رقم رحلتك لنضبط وقت الاستلام؟ يمكنك أيضاً قول تخطي.",
	},
	keyAskDateTime: {
		lexicon.English: "What date and time should we pick you up?",
		lexicon.Urdu:    "Kis din aur kis waqt pickup chahiye?",
		lexicon.Arabic:  "في أي يوم وساعة نأخذك؟",
	},
	keyAskPassengers: {
		lexicon.English: "How many passengers will be travelling?",
		lexicon.Urdu:    "Kitne passengers honge?",
		lexicon.Arabic:  "كم عدد الركاب؟",
	},
	keyAskLuggage: {
		lexicon.English: "How many bags will you have?",
		lexicon.Urdu:    "Kitne bags honge?",
		lexicon.Arabic:  "كم حقيبة معكم؟",
	},
	keyAskName: {
		lexicon.English: "May I have your name, please?",
		lexicon.Urdu:    "Aap ka naam kya hai?",
		lexicon.Arabic:  "ما اسمك من فضلك؟",
	},
	keyAskContact: {
		lexicon.English: "What is the best phone number to reach you?",
		lexicon.Urdu:    "Aap ka phone number kya hai?",
		lexicon.Arabic:  "ما رقم هاتفك؟",
	},
	keyAskEmail: {
		lexicon.English: "Would you like the confirmation by email? Please tell me your email, or say skip.",
		lexicon.Urdu:    "Kya aap email par confirmation chahte hain? Apna email batayein, ya skip kahein.",
		lexicon.Arabic:  "هل تريد التأكيد بالبريد الإلكتروني؟ أخبرني بريدك أو قل تخطي.",
	},
	keyAskNotes: {
		lexicon.English: "Any special requests, like a child seat? Or say no.",
		lexicon.Urdu:    "Koi khaas farmaish, jaise child seat? Warna nahi kahein.",
		lexicon.Arabic:  "هل لديك طلبات خاصة مثل مقعد طفل؟ أو قل لا.",
	},
	keyConfirmDropoff: {
		lexicon.English: "Drop-off at %s, is that correct?",
		lexicon.Urdu:    "Drop-off %s, kya yeh theek hai?",
		lexicon.Arabic:  "التوصيل إلى %s، هل هذا صحيح؟",
	},
	keyConfirmPickup: {
		lexicon.English: "Pickup from %s, is that correct?",
		lexicon.Urdu:    "Pickup %s se, kya yeh theek hai?",
		lexicon.Arabic:  "الاستلام من %s، هل هذا صحيح؟",
	},
	keyConfirmFlight: {
		lexicon.English: "Flight %s, is that right?",
		lexicon.Urdu:    "Flight %s, theek hai?",
		lexicon.Arabic:  "الرحلة %s، صحيح؟",
	},
	keyConfirmDateTime: {
		lexicon.English: "Pickup on %s, is that right?",
		lexicon.Urdu:    "Pickup %s, theek hai?",
		lexicon.Arabic:  "الاستلام %s، صحيح؟",
	},
	keyConfirmPax: {
		lexicon.English: "%s passengers, correct?",
		lexicon.Urdu:    "%s passengers, theek hai?",
		lexicon.Arabic:  "%s ركاب، صحيح؟",
	},
	keyConfirmLuggage: {
		lexicon.English: "%s bags, correct?",
		lexicon.Urdu:    "%s bags, theek hai?",
		lexicon.Arabic:  "%s حقائب، صحيح؟",
	},
	keyConfirmName: {
		lexicon.English: "Thank you. Your name is %s, correct?",
		lexicon.Urdu:    "Shukriya. Aap ka naam %s hai, theek hai?",
		lexicon.Arabic:  "شكراً. اسمك %s، صحيح؟",
	},
	keyConfirmContact: {
		lexicon.English: "Your number is %s, correct?",
		lexicon.Urdu:    "Aap ka number %s hai, theek hai?",
		lexicon.Arabic:  "رقمك %s، صحيح؟",
	},
	keyConfirmEmail: {
		lexicon.English: "Your email is %s, correct?",
		lexicon.Urdu:    "Aap ka email %s hai, theek hai?",
		lexicon.Arabic:  "بريدك %s، صحيح؟",
	},
	keyPeriodConfirm: {
		lexicon.English: "Just to confirm, is that %s?",
		lexicon.Urdu:    "Confirm kar loon, kya yeh %s hai?",
		lexicon.Arabic:  "للتأكيد، هل هو %s؟",
	},
	keyPeriodAsk: {
		lexicon.English: "Is that in the morning or the evening?",
		lexicon.Urdu:    "Subah ya shaam?",
		lexicon.Arabic:  "صباحاً أم مساءً؟",
	},
	keyRetryLocation: {
		lexicon.English: "I need a more specific place, like a hotel, building or landmark.",
		lexicon.Urdu:    "Mujhe thodi aur wazeh jagah chahiye, jaise hotel, building ya landmark.",
		lexicon.Arabic:  "أحتاج مكاناً أدق، مثل فندق أو مبنى أو معلم.",
	},
	keyRetryGeneric: {
		lexicon.English: "Sorry, I didn't catch that.",
		lexicon.Urdu:    "Maaf kijiye, samajh nahi aaya.",
		lexicon.Arabic:  "عذراً، لم أفهم.",
	},
	keyRetryNumber: {
		lexicon.English: "Please tell me the number, for example two.",
		lexicon.Urdu:    "Barae meharbani number batayein, jaise do.",
		lexicon.Arabic:  "من فضلك أخبرني بالرقم، مثلاً اثنان.",
	},
	keyRetryEmail: {
		lexicon.English: "That email didn't sound right. Please spell it, or say skip.",
		lexicon.Urdu:    "Email theek nahi laga. Spell kar dein, ya skip kahein.",
		lexicon.Arabic:  "البريد غير واضح. تهجّاه من فضلك أو قل تخطي.",
	},
	keyRetryPhone: {
		lexicon.English: "Please say the phone number digit by digit.",
		lexicon.Urdu:    "Phone number ek ek digit kar ke batayein.",
		lexicon.Arabic:  "قل رقم الهاتف رقماً رقماً من فضلك.",
	},
	keyRetryFlight: {
		lexicon.English: "I need the airline code and number, like E K two zero three. Or say skip.",
		lexicon.Urdu:    "Airline code aur number batayein, jaise E K do sau teen. Ya skip kahein.",
		lexicon.Arabic:  "أحتاج رمز الشركة والرقم مثل EK 203، أو قل تخطي.",
	},
	keyForced: {
		lexicon.English: "I've noted %s. Our team will double-check it with you.",
		lexicon.Urdu:    "Maine %s note kar liya hai. Hamari team aap se confirm kar legi.",
		lexicon.Arabic:  "سجلت %s. سيتأكد فريقنا منه معك.",
	},
	keyQuote: {
		lexicon.English: "I recommend a %s for %s passengers and %s bags. The fare is %s dirhams. Shall I confirm the booking? You can also ask for an upgrade.",
		lexicon.Urdu:    "%[2]s passengers aur %[3]s bags ke liye %[1]s behtar rahegi. Kiraya %[4]s dirham hai. Booking confirm kar doon? Aap upgrade bhi maang sakte hain.",
		lexicon.Arabic:  "أقترح %s لعدد %s ركاب و%s حقائب. الأجرة %s درهم. هل أؤكد الحجز؟ يمكنك أيضاً طلب ترقية.",
	},
	keyConfirmAgain: {
		lexicon.English: "Shall I confirm the booking?",
		lexicon.Urdu:    "Booking confirm kar doon?",
		lexicon.Arabic:  "هل أؤكد الحجز؟",
	},
	keyUpgradeOptions: {
		lexicon.English: "Upgrade options: %s. Which one would you like? Or say go back to keep the %s.",
		lexicon.Urdu:    "Upgrade options: %s. Kaunsi chahiye? Ya wapas kahein taake %s rahe.",
		lexicon.Arabic:  "خيارات الترقية: %s. أيها تفضل؟ أو قل ارجع للإبقاء على %s.",
	},
	keyUpgradeNone: {
		lexicon.English: "The %s is already the best fit for your group. Shall I confirm the booking?",
		lexicon.Urdu:    "%s aap ke group ke liye behtareen hai. Booking confirm kar doon?",
		lexicon.Arabic:  "%s هي الأنسب لمجموعتك. هل أؤكد الحجز؟",
	},
	keyUpgradeRestored: {
		lexicon.English: "No problem, keeping the %s at %s dirhams. Shall I confirm the booking?",
		lexicon.Urdu:    "Koi baat nahi, %s hi rahegi, %s dirham. Booking confirm kar doon?",
		lexicon.Arabic:  "لا مشكلة، نبقي %s بسعر %s درهم. هل أؤكد الحجز؟",
	},
	keyUpgradeChosen: {
		lexicon.English: "The %s at %s dirhams. Shall I confirm the booking?",
		lexicon.Urdu:    "%s, %s dirham. Booking confirm kar doon?",
		lexicon.Arabic:  "%s بسعر %s درهم. هل أؤكد الحجز؟",
	},
	keyAmendAsk: {
		lexicon.English: "What would you like to change? Pickup, drop-off, time, passengers, bags or name?",
		lexicon.Urdu:    "Kya badalna hai? Pickup, drop-off, waqt, passengers, bags ya naam?",
		lexicon.Arabic:  "ماذا تريد أن تغير؟ الاستلام أو التوصيل أو الوقت أو الركاب أو الحقائب أو الاسم؟",
	},
	keyCapacity: {
		lexicon.English: "Your group is larger than our biggest vehicle. Our team will call you to arrange more than one car. Thank you!",
		lexicon.Urdu:    "Aap ka group hamari sab se bari gaari se bara hai. Hamari team aap ko call kar ke ek se zyada gaariyan arrange karegi. Shukriya!",
		lexicon.Arabic:  "مجموعتك أكبر من أكبر مركباتنا. سيتصل بك فريقنا لترتيب أكثر من سيارة. شكراً!",
	},
	keyTerminate: {
		lexicon.English: "I can't hear you. We'll call you back shortly. Goodbye.",
		lexicon.Urdu:    "Mujhe aap ki awaaz nahi aa rahi. Hum jald aap ko call karenge. Khuda hafiz.",
		lexicon.Arabic:  "لا أسمعك. سنعاود الاتصال بك قريباً. مع السلامة.",
	},
	keyFatal: {
		lexicon.English: "Sorry, we're having a technical problem. We'll call you back shortly.",
		lexicon.Urdu:    "Maaf kijiye, technical masla hai. Hum jald aap ko call karenge.",
		lexicon.Arabic:  "عذراً، لدينا مشكلة تقنية. سنعاود الاتصال بك قريباً.",
	},
	keyDoneConfirmed: {
		lexicon.English: "Your booking is confirmed. Your reference is %s. Thank you for choosing %s!",
		lexicon.Urdu:    "Aap ki booking confirm ho gayi. Reference %s hai. %s chunne ka shukriya!",
		lexicon.Arabic:  "تم تأكيد حجزك. رقم المرجع %s. شكراً لاختيارك %s!",
	},
	keyDonePending: {
		lexicon.English: "Your booking is noted. Your reference is %s. Our team will confirm it with you shortly. Thank you for choosing %s!",
		lexicon.Urdu:    "Aap ki booking note ho gayi. Reference %s hai. Hamari team jald confirm karegi. %s chunne ka shukriya!",
		lexicon.Arabic:  "تم تسجيل حجزك. رقم المرجع %s. سيؤكده فريقنا قريباً. شكراً لاختيارك %s!",
	},
	keyAlreadyDone: {
		lexicon.English: "Your booking is already complete. Thank you, goodbye!",
		lexicon.Urdu:    "Aap ki booking mukammal ho chuki hai. Shukriya, Khuda hafiz!",
		lexicon.Arabic:  "حجزك مكتمل بالفعل. شكراً، مع السلامة!",
	},
	keyFAQFallback: {
		lexicon.English: "Our team will be happy to help with that after your booking.",
		lexicon.Urdu:    "Booking ke baad hamari team is mein madad karegi.",
		lexicon.Arabic:  "سيسعد فريقنا بمساعدتك في ذلك بعد الحجز.",
	},
}

func render(key promptKey, lang lexicon.Language, args ...any) string {
	return pick(prompts[key], lang, args...)
}

var askKeys = map[session.Slot]promptKey{
	session.SlotDropoff:    keyAskDropoff,
	session.SlotPickup:     keyAskPickup,
	session.SlotDateTime:   keyAskDateTime,
	session.SlotPassengers: keyAskPassengers,
	session.SlotLuggage:    keyAskLuggage,
	session.SlotName:       keyAskName,
	session.SlotContact:    keyAskContact,
	session.SlotEmail:      keyAskEmail,
	session.SlotNotes:      keyAskNotes,
}

var confirmKeys = map[session.Slot]promptKey{
	session.SlotDropoff:    keyConfirmDropoff,
	session.SlotPickup:     keyConfirmPickup,
	session.SlotFlight:     keyConfirmFlight,
	session.SlotDateTime:   keyConfirmDateTime,
	session.SlotPassengers: keyConfirmPax,
	session.SlotLuggage:    keyConfirmLuggage,
	session.SlotName:       keyConfirmName,
	session.SlotContact:    keyConfirmContact,
	session.SlotEmail:      keyConfirmEmail,
}

var retryKeys = map[session.Slot]promptKey{
	session.SlotDropoff:    keyRetryLocation,
	session.SlotPickup:     keyRetryLocation,
	session.SlotFlight:     keyRetryFlight,
	session.SlotPassengers: keyRetryNumber,
	session.SlotLuggage:    keyRetryNumber,
	session.SlotContact:    keyRetryPhone,
	session.SlotEmail:      keyRetryEmail,
}

// askFor is the question that collects slot.
func askFor(s *session.Session, slot session.Slot) string {
	if slot == session.SlotFlight {
		if s.FlightDirection == flightArrival {
			return render(keyAskFlightArr, s.Language)
		}
		return render(keyAskFlightDep, s.Language)
	}
	return render(askKeys[slot], s.Language)
}

// confirmFor reads a candidate back for a yes/no.
func confirmFor(lang lexicon.Language, slot session.Slot, value string) string {
	if k, ok := confirmKeys[slot]; ok {
		return render(k, lang, value)
	}
	return value
}

// retryFor explains a rejected answer and asks again.
func retryFor(s *session.Session, slot session.Slot) string {
	k, ok := retryKeys[slot]
	if !ok {
		k = keyRetryGeneric
	}
	return render(k, s.Language) + " " + askFor(s, slot)
}

// FatalPrompt is spoken when a turn cannot be processed at all.
func FatalPrompt(lang lexicon.Language) string {
	return render(keyFatal, lang)
}
