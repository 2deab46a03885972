package lexicon

var defaultForms = map[Token]map[Language][]string{
	Yes: {
		English: {"yes", "yeah", "yep", "yup", "ya", "sure", "ok", "okay", "correct", "right", "that's right",
			"exactly", "confirm", "confirmed", "go ahead", "absolutely", "perfect", "alright", "sounds good",
			"of course", "please do", "definitely", "book it"},
		Urdu: {"haan", "han", "haanji", "ji", "ji haan", "jee", "theek", "theek hai", "thik hai", "bilkul",
			"sahi", "durust", "acha", "ہاں", "جی", "ٹھیک ہے", "بالکل", "درست"},
		Arabic: {"naam", "na'am", "aywa", "aiwa", "tamam", "tayeb", "akeed", "mazboot", "نعم", "أيوه", "ايوة",
			"تمام", "صح", "أكيد", "طيب", "موافق"},
	},
	No: {
		English: {"no", "nope", "nah", "wrong", "incorrect", "negative", "not right", "not correct", "no not"},
		Urdu:    {"nahi", "nahin", "nai", "galat", "نہیں", "غلط"},
		Arabic:  {"la", "laa", "mish", "khata", "لا", "خطأ", "مش"},
	},
	Skip: {
		English: {"skip", "none", "nothing", "no", "nope", "no need", "not needed", "no thanks", "no thank you",
			"nothing else", "that's all", "n/a", "no notes", "no email", "no special requests", "not required"},
		Urdu: {"nahi", "nahin", "bas", "kuch nahi", "nahi chahiye", "zaroorat nahi", "rehne do", "chhodo",
			"نہیں", "بس", "کچھ نہیں"},
		Arabic: {"la", "khalas", "bas", "mafi", "ma fi", "la shukran", "لا", "خلاص", "بس", "ما في", "لا شكرا"},
	},
	Correction: {
		English: {"change", "correction", "wrong", "no not", "not that", "actually", "i meant", "i mean",
			"instead", "mistake", "update", "nope", "nah"},
		Urdu:   {"galat", "badal", "badlo", "tabdeel", "correction", "غلط", "بدل", "تبدیل"},
		Arabic: {"khata", "ghayyer", "taghyeer", "tashih", "خطأ", "غير", "تصحيح", "تغيير"},
	},
	GeoMarker: {
		English: {"airport", "mall", "tower", "towers", "street", "st", "road", "rd", "avenue", "hotel",
			"terminal", "marina", "downtown", "city", "building", "bldg", "villa", "apartment", "apartments",
			"park", "beach", "station", "metro", "centre", "center", "residence", "plaza", "square", "district",
			"community", "gate", "bay", "island", "palm", "hills", "heights", "creek", "souq", "souk", "club",
			"hospital", "school", "university", "office", "resort", "village", "gardens", "lakes"},
		Urdu:   {"sarak", "gali", "imarat", "hawai adda", "ghar", "sadak"},
		Arabic: {"شارع", "مطار", "برج", "فندق", "مول", "مركز", "حي", "دوار", "جزيرة"},
	},
	Filler: {
		English: {"um", "umm", "uh", "uhh", "hmm", "er", "erm", "well", "so", "like", "the way", "is", "it's",
			"it is", "its", "am", "i am", "okay so", "basically", "please"},
		Urdu:   {"hai", "ho", "hun", "mera", "meri", "my", "mujhe", "woh", "yeh", "haan to", "to"},
		Arabic: {"من", "في", "على", "يعني", "طيب", "ya3ni", "yani"},
	},
	StopWord: {
		English: {"the", "a", "an", "of", "to", "at", "in", "on", "from", "near", "by", "and", "please", "me",
			"my", "i", "take", "pick", "picking", "drop", "dropping", "up", "off", "go", "going", "want", "need",
			"is", "am", "are", "it", "its", "be", "will", "would", "like", "ride", "car", "taxi", "limo", "from",
			"towards", "opposite", "next", "beside", "behind", "front", "um", "uh"},
		Urdu:   {"se", "tak", "mein", "main", "ka", "ki", "ke", "hai", "ko", "par", "jana", "jaana", "hum"},
		Arabic: {"min", "ila", "fi", "ala", "من", "الى", "إلى", "في", "على", "عند"},
	},
	Generic: {
		English: {"here", "there", "this", "that", "location", "place", "my place", "my location", "home",
			"house", "somewhere", "anywhere", "same place", "this location", "that place"},
		Urdu:   {"yahan", "wahan", "idhar", "udhar", "ghar", "یہاں", "وہاں", "گھر"},
		Arabic: {"huna", "hunak", "هنا", "هناك", "البيت"},
	},
	Ambiguous: {
		English: {"many", "lots", "lot", "a lot", "few", "a few", "couple", "a couple", "several", "some",
			"multiple", "bunch", "a bunch", "plenty", "various"},
		Urdu:   {"kai", "bohat", "bahut", "zyada", "thore", "thode", "کئی", "بہت", "زیادہ"},
		Arabic: {"kathir", "katheer", "shwaya", "ba'd", "عدة", "كثير", "بعض", "شوية"},
	},
	Morning: {
		English: {"am", "a.m.", "morning", "early", "dawn", "sunrise", "early morning"},
		Urdu:    {"subah", "subha", "fajr", "savere", "صبح"},
		Arabic:  {"sabah", "sabahan", "fajr", "صباح", "الصبح", "صباحا", "فجر"},
	},
	Evening: {
		English: {"pm", "p.m.", "evening", "night", "tonight", "afternoon", "noon", "late"},
		Urdu:    {"shaam", "sham", "raat", "dopahar", "شام", "رات"},
		Arabic:  {"masa", "masaa", "leil", "layl", "مساء", "مساءا", "ليل", "الليل", "الظهر"},
	},
	Upgrade: {
		English: {"upgrade", "luxury", "premium", "vip", "better car", "bigger car", "lexus", "mercedes",
			"gmc", "fancy", "executive", "something nicer", "first class"},
		Urdu:   {"bari gaari", "achi gaari", "behtar gaari", "luxury wali"},
		Arabic: {"fakhm", "fakhma", "فخم", "فخمة", "فاخرة"},
	},
	GoBack: {
		English: {"go back", "previous", "original", "the earlier one", "keep the original", "cancel upgrade",
			"never mind", "nevermind", "keep the first", "back to the previous", "the old one"},
		Urdu:   {"wapas", "pehle wali", "purani", "pichli", "واپس", "پہلے والی"},
		Arabic: {"arja", "rjoo", "al sabiq", "السابق", "ارجع", "الأولى"},
	},
	Airport: {
		English: {"airport", "dxb", "dwc", "terminal", "international airport", "flight", "al maktoum",
			"terminal 1", "terminal 2", "terminal 3", "arrivals", "departures"},
		Urdu:   {"hawai adda", "hawai jahaz", "ہوائی اڈہ", "ایئرپورٹ"},
		Arabic: {"matar", "مطار", "المطار"},
	},
	City: {
		English: {"dubai", "uae", "emirates", "united arab emirates", "abu dhabi", "sharjah", "ajman",
			"ras al khaimah", "fujairah", "umm al quwain", "al ain", "dubai city", "dubai uae", "the city"},
		Urdu:   {"dubai shehar", "دبئی", "متحدہ عرب امارات"},
		Arabic: {"دبي", "الإمارات", "الامارات", "أبوظبي", "ابوظبي", "الشارقة", "عجمان"},
	},
	TimeWord: {
		English: {"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday", "today",
			"tomorrow", "tonight", "o'clock", "oclock", "hour", "hours", "minutes", "mins", "noon", "midnight"},
		Urdu:   {"kal", "aaj", "parson", "peer", "somwar", "mangal", "budh", "jumeraat", "juma", "hafta", "itwar", "baje"},
		Arabic: {"ghadan", "bukra", "al yom", "el yom", "sa'a", "saa", "اليوم", "غدا", "بكرة", "الساعة", "الجمعة", "السبت", "الأحد"},
	},
	Question: {
		English: {"what", "how", "how much", "how long", "when", "which", "why", "is there", "do you", "does",
			"can i", "will the", "is it"},
		Urdu:   {"kya", "kitna", "kitne", "kaise", "kab", "kyun", "کیا", "کتنا", "کیسے", "کب"},
		Arabic: {"kam", "shu", "shou", "kaif", "mata", "hal", "هل", "كم", "كيف", "متى", "شو"},
	},
}
