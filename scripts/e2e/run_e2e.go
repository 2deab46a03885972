// Package main drives scripted booking conversations against a running API
// through POST /api/turns and checks the replies and the stored session.
//
// Scenarios cover:
//   - Happy-path airport transfer in one long first message
//   - Slot-by-slot booking with a correction
//   - Greeting-only opener
//   - Urdu and Arabic openers
//   - Unknown location retries
//   - Silence handling
//
// Usage:
//
//	API_BASE_URL=... ADMIN_JWT_SECRET=... go run scripts/e2e/run_e2e.go [scenario-name]
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	apiBase    string
	adminToken string
	client     = &http.Client{Timeout: 30 * time.Second}
)

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed int
	failed int
	name   string
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...interface{}) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

type turnResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Step      string `json:"step"`
	Status    string `json:"status"`
	Language  string `json:"language"`
	Done      bool   `json:"done"`
	Reference string `json:"reference"`
}

// conversation is one scripted session.
type conversation struct {
	t  *T
	id string
}

func newConversation(t *T) *conversation {
	return &conversation{t: t, id: "e2e-" + uuid.NewString()[:8]}
}

func (c *conversation) say(text string) turnResponse {
	body, _ := json.Marshal(map[string]string{"session_id": c.id, "channel": "api", "text": text})
	resp, err := client.Post(apiBase+"/api/turns", "application/json", bytes.NewReader(body))
	if err != nil {
		c.t.fatalf("POST /api/turns: %v", err)
		return turnResponse{}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.t.fatalf("POST /api/turns returned %d: %s", resp.StatusCode, raw)
		return turnResponse{}
	}
	var out turnResponse
	_ = json.Unmarshal(raw, &out)
	fmt.Printf("    > %s\n    < %s [%s]\n", text, out.Reply, out.Step)
	return out
}

func (c *conversation) session() map[string]any {
	if adminToken == "" {
		return nil
	}
	req, _ := http.NewRequest(http.MethodGet, apiBase+"/admin/sessions/"+c.id, nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := client.Do(req)
	if err != nil {
		c.t.fatalf("GET session: %v", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return out
}

func contains(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

func happyPath(t *T) {
	c := newConversation(t)
	r := c.say("Hi, I need a car from Dubai Marina to DXB Terminal 3 tomorrow at 6 am, 2 passengers and 2 bags")
	t.check("asks for the next missing detail", r.Reply != "" && !r.Done)
	r = c.say("My name is Ahmed Khan")
	r = c.say("0501234567")
	t.check("moves on after contact", r.Step != "contact_number")
	for i := 0; i < 4 && !r.Done; i++ {
		r = c.say("yes")
	}
	t.check("conversation finished", r.Done)
	t.check("booking reference given", r.Reference != "" || contains(r.Reply, "reference"))
}

func slotBySlot(t *T) {
	c := newConversation(t)
	r := c.say("Hello")
	t.check("greets", r.Reply != "")
	r = c.say("Burj Khalifa")
	t.check("asks for pickup", r.Step == "pickup")
	c.say("Mall of the Emirates")
	c.say("tomorrow 9 pm")
	c.say("actually 10 pm")
	s := c.session()
	if s != nil {
		t.check("session stored", s["id"] == c.id)
	}
}

func greetingOnly(t *T) {
	c := newConversation(t)
	r := c.say("Salam")
	t.check("greeting only gets the greeting", r.Reply != "" && r.Step == "dropoff")
}

func urduOpener(t *T) {
	c := newConversation(t)
	body, _ := json.Marshal(map[string]string{"session_id": c.id, "channel": "api", "language": "ur"})
	resp, err := client.Post(apiBase+"/api/sessions", "application/json", bytes.NewReader(body))
	if err != nil {
		t.fatalf("POST /api/sessions: %v", err)
		return
	}
	defer resp.Body.Close()
	var r turnResponse
	_ = json.NewDecoder(resp.Body).Decode(&r)
	t.check("urdu session", r.Language == "ur")
}

func arabicOpener(t *T) {
	c := newConversation(t)
	r := c.say("مرحبا، أحتاج سيارة إلى المطار")
	t.check("replies in arabic", r.Language == "ar")
}

func unknownLocation(t *T) {
	c := newConversation(t)
	c.say("Hi")
	r := c.say("Zzyzx Plaza 99")
	t.check("asks again for an unknown place", r.Step == "dropoff")
	r = c.say("Zzyzx Plaza 99")
	r = c.say("Zzyzx Plaza 99")
	t.check("stops asking after retries", r.Step != "dropoff" || r.Done)
}

func silence(t *T) {
	c := newConversation(t)
	c.say("Hi")
	r := c.say("")
	t.check("prompts after silence", r.Reply != "")
}

func main() {
	apiBase = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	if apiBase == "" {
		apiBase = "http://localhost:8080"
	}
	if secret := os.Getenv("ADMIN_JWT_SECRET"); secret != "" {
		claims := jwt.MapClaims{"role": "ops", "exp": time.Now().Add(time.Hour).Unix()}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			fmt.Printf("sign admin token: %v\n", err)
			os.Exit(1)
		}
		adminToken = signed
	}

	scenarios := []scenario{
		{"happy-path", happyPath},
		{"slot-by-slot", slotBySlot},
		{"greeting-only", greetingOnly},
		{"urdu", urduOpener},
		{"arabic", arabicOpener},
		{"unknown-location", unknownLocation},
		{"silence", silence},
	}

	filter := ""
	if len(os.Args) > 1 {
		filter = os.Args[1]
	}

	totalPassed, totalFailed := 0, 0
	for _, sc := range scenarios {
		if filter != "" && sc.Name != filter {
			continue
		}
		fmt.Printf("\n=== %s ===\n", sc.Name)
		t := &T{name: sc.Name}
		sc.Fn(t)
		totalPassed += t.passed
		totalFailed += t.failed
	}

	fmt.Printf("\n%d passed, %d failed\n", totalPassed, totalFailed)
	if totalFailed > 0 {
		os.Exit(1)
	}
}
