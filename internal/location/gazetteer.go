package location

// Kind groups gazetteer entries.
type Kind string

const (
	KindAirport  Kind = "airport"
	KindMall     Kind = "mall"
	KindLandmark Kind = "landmark"
	KindHotel    Kind = "hotel"
	KindDistrict Kind = "district"
)

// Place is a named location callers commonly ask for.
type Place struct {
	Name    string
	Kind    Kind
	Aliases []string
}

// DubaiPlaces is the built-in gazetteer.
var DubaiPlaces = []Place{
	// Airports
	{"Dubai International Airport (DXB)", KindAirport, []string{"dubai airport", "dubai international airport", "dxb", "dxb airport", "dubai intl airport", "مطار دبي"}},
	{"Dubai International Airport Terminal 1", KindAirport, []string{"dxb terminal 1", "terminal 1", "terminal one"}},
	{"Dubai International Airport Terminal 2", KindAirport, []string{"dxb terminal 2", "terminal 2", "terminal two"}},
	{"Dubai International Airport Terminal 3", KindAirport, []string{"dxb terminal 3", "terminal 3", "terminal three", "emirates terminal"}},
	{"Al Maktoum International Airport (DWC)", KindAirport, []string{"dwc", "al maktoum airport", "dubai world central", "maktoum airport", "jebel ali airport"}},
	{"Sharjah International Airport", KindAirport, []string{"sharjah airport", "shj airport"}},
	{"Zayed International Airport", KindAirport, []string{"abu dhabi airport", "abu dhabi international airport", "auh airport"}},

	// Malls and markets
	{"Dubai Mall", KindMall, []string{"the dubai mall", "دبي مول"}},
	{"Mall of the Emirates", KindMall, []string{"mall of emirates"}},
	{"Dubai Marina Mall", KindMall, []string{"marina mall"}},
	{"Ibn Battuta Mall", KindMall, []string{"ibn battuta", "ibn batuta mall"}},
	{"Deira City Centre", KindMall, []string{"city centre deira", "deira city center"}},
	{"Mirdif City Centre", KindMall, []string{"city centre mirdif", "mirdif city center"}},
	{"Dubai Festival City Mall", KindMall, []string{"festival city mall"}},
	{"BurJuman", KindMall, []string{"burjuman mall", "burjuman centre", "bur juman"}},
	{"Wafi Mall", KindMall, []string{"wafi city", "wafi"}},
	{"Dubai Hills Mall", KindMall, nil},
	{"City Walk", KindMall, []string{"citywalk"}},
	{"The Beach JBR", KindMall, []string{"the beach mall"}},
	{"Nakheel Mall", KindMall, []string{"nakheel mall palm"}},
	{"Dragon Mart", KindMall, []string{"dragon mart international city"}},
	{"Dubai Outlet Mall", KindMall, []string{"outlet mall"}},
	{"Mercato Mall", KindMall, []string{"mercato"}},
	{"Al Ghurair Centre", KindMall, []string{"al ghurair mall", "ghurair centre"}},
	{"Times Square Center", KindMall, []string{"times square mall"}},
	{"Oasis Centre", KindMall, []string{"oasis mall"}},
	{"Arabian Centre", KindMall, []string{"arabian center mall"}},
	{"Souk Madinat Jumeirah", KindMall, []string{"madinat souk"}},
	{"Gold Souk", KindMall, []string{"deira gold souk", "gold souq"}},
	{"Spice Souk", KindMall, []string{"spice souq"}},
	{"Global Village", KindMall, []string{"global village dubai"}},
	{"Box Park", KindMall, []string{"boxpark"}},

	// Landmarks and attractions
	{"Burj Khalifa", KindLandmark, []string{"برج خليفة"}},
	{"Burj Al Arab", KindLandmark, []string{"برج العرب"}},
	{"Dubai Frame", KindLandmark, nil},
	{"Museum of the Future", KindLandmark, []string{"future museum"}},
	{"Dubai Opera", KindLandmark, nil},
	{"Ain Dubai", KindLandmark, []string{"dubai eye"}},
	{"Dubai Creek", KindLandmark, nil},
	{"Dubai Miracle Garden", KindLandmark, []string{"miracle garden"}},
	{"Dubai Butterfly Garden", KindLandmark, []string{"butterfly garden"}},
	{"Dubai Parks and Resorts", KindLandmark, []string{"dubai parks"}},
	{"IMG Worlds of Adventure", KindLandmark, []string{"img worlds"}},
	{"Expo City Dubai", KindLandmark, []string{"expo city", "expo 2020 site"}},
	{"Dubai World Trade Centre", KindLandmark, []string{"world trade centre", "world trade center", "dwtc"}},
	{"Dubai Aquarium", KindLandmark, nil},
	{"Al Fahidi Historical District", KindLandmark, []string{"al fahidi", "bastakiya"}},
	{"Jumeirah Mosque", KindLandmark, nil},
	{"Zabeel Park", KindLandmark, nil},
	{"Safa Park", KindLandmark, nil},
	{"Creek Park", KindLandmark, nil},
	{"Mushrif Park", KindLandmark, nil},
	{"Kite Beach", KindLandmark, nil},
	{"La Mer", KindLandmark, []string{"la mer beach"}},
	{"Jumeirah Public Beach", KindLandmark, []string{"jumeirah beach"}},
	{"Dubai Water Canal", KindLandmark, []string{"dubai canal"}},
	{"Dubai Safari Park", KindLandmark, []string{"safari park"}},
	{"Motiongate Dubai", KindLandmark, []string{"motiongate"}},
	{"Legoland Dubai", KindLandmark, []string{"legoland"}},
	{"Ski Dubai", KindLandmark, nil},
	{"Coca-Cola Arena", KindLandmark, []string{"coca cola arena"}},
	{"Dubai Autodrome", KindLandmark, nil},
	{"Meydan Racecourse", KindLandmark, []string{"meydan racecourse"}},
	{"Dubai Design District", KindLandmark, []string{"d3"}},
	{"Dubai Healthcare City", KindLandmark, []string{"healthcare city"}},
	{"Emirates Golf Club", KindLandmark, nil},
	{"Dubai International Financial Centre", KindLandmark, []string{"difc", "financial centre"}},
	{"Dubai Internet City", KindLandmark, []string{"internet city"}},
	{"Dubai Media City", KindLandmark, []string{"media city"}},
	{"Dubai Knowledge Park", KindLandmark, []string{"knowledge park", "knowledge village"}},
	{"Dubai Studio City", KindLandmark, []string{"studio city"}},
	{"Dubai Production City", KindLandmark, []string{"production city", "impz"}},
	{"Jebel Ali Free Zone", KindLandmark, []string{"jafza"}},
	{"Jebel Ali Port", KindLandmark, nil},
	{"Dubai Cruise Terminal", KindLandmark, []string{"port rashid", "cruise terminal"}},
	{"Union Metro Station", KindLandmark, []string{"union station"}},
	{"Emirates Towers", KindLandmark, []string{"jumeirah emirates towers"}},

	// Hotels
	{"Atlantis The Palm", KindHotel, []string{"atlantis", "atlantis hotel"}},
	{"Atlantis The Royal", KindHotel, []string{"the royal atlantis", "royal atlantis"}},
	{"Jumeirah Beach Hotel", KindHotel, nil},
	{"Armani Hotel Dubai", KindHotel, []string{"armani hotel"}},
	{"Address Downtown", KindHotel, []string{"address hotel downtown"}},
	{"Address Dubai Marina", KindHotel, []string{"address marina"}},
	{"One&Only Royal Mirage", KindHotel, []string{"royal mirage", "one and only royal mirage"}},
	{"Raffles Dubai", KindHotel, []string{"raffles hotel"}},
	{"Four Seasons Resort Dubai at Jumeirah Beach", KindHotel, []string{"four seasons jumeirah"}},
	{"The Ritz-Carlton Dubai", KindHotel, []string{"ritz carlton jbr", "ritz carlton dubai"}},
	{"JW Marriott Marquis", KindHotel, []string{"jw marriott marquis", "marriott marquis"}},
	{"Grand Hyatt Dubai", KindHotel, []string{"grand hyatt"}},
	{"Park Hyatt Dubai", KindHotel, []string{"park hyatt"}},
	{"Shangri-La Dubai", KindHotel, []string{"shangri la"}},
	{"Madinat Jumeirah", KindHotel, []string{"jumeirah al qasr", "mina a salam"}},
	{"Palazzo Versace Dubai", KindHotel, []string{"palazzo versace"}},
	{"Kempinski Hotel Mall of the Emirates", KindHotel, []string{"kempinski moe"}},
	{"Habtoor Palace", KindHotel, []string{"al habtoor palace"}},
	{"Le Meridien Dubai Airport", KindHotel, []string{"le meridien airport"}},
	{"Sofitel Dubai The Palm", KindHotel, []string{"sofitel palm"}},

	// Districts and communities
	{"Downtown Dubai", KindDistrict, []string{"downtown"}},
	{"Dubai Marina", KindDistrict, []string{"marina", "دبي مارينا"}},
	{"Jumeirah Beach Residence (JBR)", KindDistrict, []string{"jbr", "jumeirah beach residence"}},
	{"Jumeirah Lake Towers (JLT)", KindDistrict, []string{"jlt", "jumeirah lake towers", "jumeirah lakes towers"}},
	{"Palm Jumeirah", KindDistrict, []string{"the palm", "palm island", "نخلة جميرا"}},
	{"Business Bay", KindDistrict, []string{"الخليج التجاري"}},
	{"Deira", KindDistrict, []string{"ديرة"}},
	{"Bur Dubai", KindDistrict, []string{"بر دبي"}},
	{"Al Barsha", KindDistrict, []string{"barsha", "al barsha 1"}},
	{"Al Barsha South", KindDistrict, nil},
	{"Barsha Heights (TECOM)", KindDistrict, []string{"tecom", "barsha heights"}},
	{"Jumeirah", KindDistrict, []string{"jumeirah 1", "jumeirah 2", "jumeirah 3"}},
	{"Umm Suqeim", KindDistrict, nil},
	{"Al Sufouh", KindDistrict, nil},
	{"Al Quoz", KindDistrict, []string{"al quoz industrial"}},
	{"Al Karama", KindDistrict, []string{"karama"}},
	{"Oud Metha", KindDistrict, nil},
	{"Al Jaddaf", KindDistrict, []string{"jaddaf"}},
	{"Al Satwa", KindDistrict, []string{"satwa"}},
	{"Al Wasl", KindDistrict, []string{"wasl"}},
	{"Jumeirah Village Circle (JVC)", KindDistrict, []string{"jvc", "jumeirah village circle"}},
	{"Jumeirah Village Triangle (JVT)", KindDistrict, []string{"jvt", "jumeirah village triangle"}},
	{"Jumeirah Golf Estates", KindDistrict, nil},
	{"Dubai Sports City", KindDistrict, []string{"sports city"}},
	{"Motor City", KindDistrict, nil},
	{"Arabian Ranches", KindDistrict, nil},
	{"The Springs", KindDistrict, []string{"springs"}},
	{"The Meadows", KindDistrict, []string{"meadows"}},
	{"The Lakes", KindDistrict, nil},
	{"Emirates Hills", KindDistrict, nil},
	{"The Greens", KindDistrict, nil},
	{"The Views", KindDistrict, nil},
	{"Dubai Hills Estate", KindDistrict, []string{"dubai hills"}},
	{"Mohammed Bin Rashid City", KindDistrict, []string{"mbr city"}},
	{"Meydan", KindDistrict, nil},
	{"Nad Al Sheba", KindDistrict, nil},
	{"Mirdif", KindDistrict, []string{"mirdiff"}},
	{"Al Warqa", KindDistrict, nil},
	{"Al Rashidiya", KindDistrict, []string{"rashidiya"}},
	{"Al Qusais", KindDistrict, []string{"qusais"}},
	{"Al Nahda", KindDistrict, nil},
	{"Al Mamzar", KindDistrict, []string{"mamzar"}},
	{"Al Twar", KindDistrict, nil},
	{"Muhaisnah", KindDistrict, nil},
	{"Al Garhoud", KindDistrict, []string{"garhoud"}},
	{"Port Saeed", KindDistrict, nil},
	{"Al Rigga", KindDistrict, []string{"rigga"}},
	{"Al Muraqqabat", KindDistrict, nil},
	{"Naif", KindDistrict, nil},
	{"Al Ras", KindDistrict, nil},
	{"Hor Al Anz", KindDistrict, nil},
	{"Al Khawaneej", KindDistrict, nil},
	{"International City", KindDistrict, nil},
	{"Dubai Silicon Oasis", KindDistrict, []string{"silicon oasis", "dso"}},
	{"Discovery Gardens", KindDistrict, nil},
	{"Dubai Investments Park", KindDistrict, nil},
	{"Jebel Ali", KindDistrict, nil},
	{"Al Furjan", KindDistrict, nil},
	{"Town Square Dubai", KindDistrict, []string{"town square"}},
	{"Damac Hills", KindDistrict, nil},
	{"Dubai South", KindDistrict, nil},
	{"Al Mankhool", KindDistrict, []string{"mankhool"}},
	{"Bluewaters Island", KindDistrict, []string{"bluewaters"}},
	{"Dubai Creek Harbour", KindDistrict, []string{"creek harbour"}},
	{"Al Barari", KindDistrict, nil},
	{"Dubailand", KindDistrict, []string{"dubai land"}},
	{"Culture Village", KindDistrict, nil},
	{"Al Habtoor City", KindDistrict, nil},
	{"Emaar Beachfront", KindDistrict, nil},
	{"Dubai Harbour", KindDistrict, nil},
	{"Sobha Hartland", KindDistrict, nil},
	{"Dubai Festival City", KindDistrict, []string{"festival city"}},
}
