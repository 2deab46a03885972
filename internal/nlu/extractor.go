package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/starskyline/bareerah/internal/extcall"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/location"
	"github.com/starskyline/bareerah/internal/observability/metrics"
	"github.com/starskyline/bareerah/internal/session"
	"github.com/starskyline/bareerah/pkg/logging"
)

const dependencyNLU = "nlu"

// Intent is the model's reading of what the caller is doing this turn.
type Intent string

const (
	IntentProvide    Intent = "provide"
	IntentConfirm    Intent = "confirm"
	IntentDeny       Intent = "deny"
	IntentCorrection Intent = "correction"
	IntentQuestion   Intent = "question"
	IntentUpgrade    Intent = "upgrade"
)

// Request carries one utterance plus the state the model must respect.
type Request struct {
	Utterance string
	FlowStep  session.Step
	Locked    map[session.Slot]string
	Missing   []session.Slot
	Language  lexicon.Language
}

// Result is what the extractor understood. Slots holds only values the
// model or the fallback actually found.
type Result struct {
	Slots      map[session.Slot]string
	Confidence map[session.Slot]float64
	Response   string
	NextStep   session.Step
	Intent     Intent
	// Degraded is set when the model call failed and only deterministic
	// fallbacks contributed.
	Degraded bool
}

// Config tunes the extractor.
type Config struct {
	Timeout        time.Duration
	MaxTokens      int32
	CompanyName    string
	FuzzyThreshold float64
}

// Extractor wraps an LLMClient. It never returns an error to callers.
type Extractor struct {
	client  LLMClient
	gaz     *location.Gazetteer
	cfg     Config
	logger  *logging.Logger
	metrics *metrics.ConversationMetrics
}

// NewExtractor builds an Extractor. A nil client leaves only the gazetteer
// fallback, which is how the service runs without model credentials.
func NewExtractor(client LLMClient, gaz *location.Gazetteer, cfg Config, m *metrics.ConversationMetrics, logger *logging.Logger) *Extractor {
	if gaz == nil {
		gaz = location.DefaultGazetteer()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 4 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 400
	}
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = 0.5
	}
	if strings.TrimSpace(cfg.CompanyName) == "" {
		cfg.CompanyName = "Star Skyline Limousine"
	}
	return &Extractor{client: client, gaz: gaz, cfg: cfg, logger: logger, metrics: m}
}

var repeatPrompts = map[lexicon.Language]string{
	lexicon.English: "Sorry, I couldn't understand that. Could you please repeat?",
	lexicon.Urdu:    "Maaf kijiye, main samajh nahi saki. Kya aap dobara bata sakte hain?",
	lexicon.Arabic:  "عذراً، لم أفهم. هل يمكنك التكرار من فضلك؟",
}

// RepeatPrompt is the generic re-ask used when nothing could be understood.
func RepeatPrompt(lang lexicon.Language) string {
	if p, ok := repeatPrompts[lang]; ok {
		return p
	}
	return repeatPrompts[lexicon.English]
}

// Extract asks the model for slot values. On timeout or a malformed reply it
// returns an empty result with the repeat prompt and the step unchanged.
func (e *Extractor) Extract(ctx context.Context, req Request) Result {
	res, err := e.callModel(ctx, req)
	if err != nil {
		e.logger.Warn("nlu extraction degraded", "error", err, "kind", extcall.KindOf(err).String(), "flow_step", req.FlowStep)
		res = safeDefault(req)
	}
	e.locationFallback(req, &res)
	return res
}

func safeDefault(req Request) Result {
	return Result{
		Slots:      map[session.Slot]string{},
		Confidence: map[session.Slot]float64{},
		Response:   RepeatPrompt(req.Language),
		NextStep:   req.FlowStep,
		Degraded:   true,
	}
}

func (e *Extractor) callModel(ctx context.Context, req Request) (Result, error) {
	if e.client == nil {
		return Result{}, extcall.Unavailable(dependencyNLU, errors.New("no model configured"))
	}
	if strings.TrimSpace(req.Utterance) == "" {
		return Result{}, extcall.Invalid(dependencyNLU, errors.New("empty utterance"))
	}

	start := time.Now()
	resp, err := extcall.Do(ctx, dependencyNLU, e.cfg.Timeout, func(ctx context.Context) (LLMResponse, error) {
		return e.client.Complete(ctx, LLMRequest{
			System:      []string{e.systemPrompt(req)},
			Messages:    []ChatMessage{{Role: ChatRoleUser, Content: req.Utterance}},
			MaxTokens:   e.cfg.MaxTokens,
			Temperature: 0,
			JSONMode:    true,
		})
	})
	e.metrics.ObserveExternalCall(dependencyNLU, err, start)
	if err != nil {
		return Result{}, err
	}
	return parseResult(resp.Text, req)
}

type modelReply struct {
	Extracted  map[string]any     `json:"extracted"`
	Confidence map[string]float64 `json:"confidence"`
	Response   string             `json:"response"`
	NextStep   string             `json:"next_step"`
	Intent     string             `json:"intent"`
}

var knownSlots = map[session.Slot]struct{}{
	session.SlotDropoff: {}, session.SlotPickup: {}, session.SlotFlight: {}, session.SlotDateTime: {},
	session.SlotPassengers: {}, session.SlotLuggage: {}, session.SlotName: {}, session.SlotContact: {},
	session.SlotEmail: {}, session.SlotNotes: {},
}

func parseResult(text string, req Request) (Result, error) {
	content := strings.TrimSpace(text)
	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx < 0 || endIdx <= startIdx {
		return Result{}, extcall.Invalid(dependencyNLU, errors.New("reply contained no json object"))
	}
	var reply modelReply
	if err := json.Unmarshal([]byte(content[startIdx:endIdx+1]), &reply); err != nil {
		return Result{}, extcall.Invalid(dependencyNLU, fmt.Errorf("decode reply: %w", err))
	}

	res := Result{
		Slots:      make(map[session.Slot]string),
		Confidence: make(map[session.Slot]float64),
		Response:   strings.TrimSpace(reply.Response),
		NextStep:   req.FlowStep,
		Intent:     Intent(strings.ToLower(strings.TrimSpace(reply.Intent))),
	}
	for key, raw := range reply.Extracted {
		slot := session.Slot(strings.ToLower(strings.TrimSpace(key)))
		if _, ok := knownSlots[slot]; !ok {
			continue
		}
		value := stringify(raw)
		if value == "" {
			continue
		}
		// A locked value echoed back is not new information.
		if locked, ok := req.Locked[slot]; ok && strings.EqualFold(locked, value) {
			continue
		}
		res.Slots[slot] = value
		conf, ok := reply.Confidence[string(slot)]
		if !ok {
			conf = 0.8
		}
		res.Confidence[slot] = clamp01(conf)
	}
	if step := session.Step(strings.TrimSpace(reply.NextStep)); validStep(step) {
		res.NextStep = step
	}
	if res.Response == "" {
		res.Response = RepeatPrompt(req.Language)
	}
	return res, nil
}

// locationFallback fills pickup and dropoff from the gazetteer when the
// model produced nothing for them. A "from A to B" utterance can fill both;
// otherwise only the slot being asked for is tried.
func (e *Extractor) locationFallback(req Request, res *Result) {
	if from, to, ok := SplitRoute(req.Utterance); ok {
		e.fillLocation(req, res, session.SlotPickup, from)
		e.fillLocation(req, res, session.SlotDropoff, to)
		return
	}
	slot := req.FlowStep.Slot()
	if slot != session.SlotPickup && slot != session.SlotDropoff {
		return
	}
	e.fillLocation(req, res, slot, req.Utterance)
}

func (e *Extractor) fillLocation(req Request, res *Result, slot session.Slot, text string) {
	if _, ok := res.Slots[slot]; ok {
		return
	}
	if _, ok := req.Locked[slot]; ok {
		return
	}
	place, src, ok := e.gaz.Match(text, e.cfg.FuzzyThreshold)
	if !ok {
		return
	}
	res.Slots[slot] = place.Name
	conf := 0.9
	if src == location.SourceFuzzy {
		conf = 0.8
	}
	res.Confidence[slot] = conf
	e.logger.Debug("location filled from gazetteer", "slot", slot, "place", place.Name, "source", src)
}

func (e *Extractor) systemPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are Bareerah, the booking assistant for %s in Dubai. ", e.cfg.CompanyName)
	b.WriteString("Extract booking details from the caller's latest message. ")
	b.WriteString("Input may be English, Urdu (Roman or script) or Arabic, and may contain speech recognition errors.\n\n")

	b.WriteString("ALREADY COLLECTED (never ask for these again; only report one if the caller explicitly corrects it):\n")
	if len(req.Locked) == 0 {
		b.WriteString("- none\n")
	}
	keys := make([]string, 0, len(req.Locked))
	for slot := range req.Locked {
		keys = append(keys, string(slot))
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, req.Locked[session.Slot(k)])
	}

	b.WriteString("\nSTILL MISSING, in the order they will be asked:\n")
	if len(req.Missing) == 0 {
		b.WriteString("- none\n")
	}
	for _, slot := range req.Missing {
		fmt.Fprintf(&b, "- %s\n", slot)
	}

	fmt.Fprintf(&b, "\nThe current question is about: %s\n", req.FlowStep)
	fmt.Fprintf(&b, "Caller language: %s\n\n", req.Language)
	b.WriteString(`Rules:
- Only extract values the caller actually said. Do not invent or complete addresses.
- passengers and luggage are integers.
- datetime keeps the caller's wording plus any explicit am/pm.
- contact_number is digits only with an optional leading +.
- intent is one of provide, confirm, deny, correction, question, upgrade.

Reply with JSON only:
{"extracted": {"<slot>": "<value>"}, "confidence": {"<slot>": 0.0-1.0}, "response": "<short reply in the caller's language>", "next_step": "<step>", "intent": "<intent>"}`)
	return b.String()
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
			return ""
		}
		return s
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func validStep(step session.Step) bool {
	switch step {
	case session.StepDropoff, session.StepPickup, session.StepFlightInfo, session.StepDateTime,
		session.StepTimePeriod, session.StepPassengers, session.StepLuggage, session.StepName,
		session.StepContact, session.StepEmail, session.StepNotes, session.StepVehicle,
		session.StepUpgrade, session.StepConfirm, session.StepComplete:
		return true
	}
	return false
}
