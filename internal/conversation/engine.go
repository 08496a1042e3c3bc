package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/maxai/calendar-assistant/internal/observability/metrics"
	"github.com/maxai/calendar-assistant/internal/temporal"
	"github.com/maxai/calendar-assistant/pkg/logging"
)

// Request is one inbound chat turn, already reduced to the conversation
// key and the caller's bearer token.
type Request struct {
	Key         string
	Message     string
	AccessToken string
}

// Result is the conversational reply. Business failures ("event not
// found", extraction failure) are regular results, not errors; the
// engine never propagates them to the transport layer.
type Result struct {
	Message string
}

// Service is the engine contract the HTTP layer depends on.
type Service interface {
	HandleMessage(ctx context.Context, req Request) (Result, error)
}

// Engine is the dialogue state machine. It owns all conversation state,
// decides the next required field, and drives each conversation to
// dispatch or graceful failure. Turns for the same key are serialized by
// the state store; distinct keys do not interfere.
type Engine struct {
	classifier *Classifier
	extractor  *SlotExtractor
	store      StateStore
	dispatcher *Dispatcher
	chat       LLMClient
	logger     *logging.Logger
	metrics    *metrics.ChatMetrics

	defaultDurationMins int
	now                 func() time.Time
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithDefaultDuration sets the fallback meeting length in minutes used
// when duration text cannot be parsed.
func WithDefaultDuration(mins int) EngineOption {
	return func(e *Engine) {
		if mins > 0 {
			e.defaultDurationMins = mins
		}
	}
}

// WithMetrics attaches chat metrics.
func WithMetrics(m *metrics.ChatMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine wires the dialogue state machine.
func NewEngine(classifier *Classifier, extractor *SlotExtractor, store StateStore, dispatcher *Dispatcher, chat LLMClient, logger *logging.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		classifier:          classifier,
		extractor:           extractor,
		store:               store,
		dispatcher:          dispatcher,
		chat:                chat,
		logger:              logger,
		defaultDurationMins: 60,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleMessage runs one turn of the conversation. The returned error is
// reserved for infrastructure faults; every business outcome is text.
func (e *Engine) HandleMessage(ctx context.Context, req Request) (Result, error) {
	unlock := e.store.LockKey(req.Key)
	defer unlock()

	_, pending := e.store.Get(req.Key)
	intent := e.classifier.Classify(req.Message, pending)

	e.logger.With("key", req.Key[:min(len(req.Key), 12)]).Info("chat turn",
		"intent", string(intent),
		"pending", pending,
	)

	var text string
	switch intent {
	case IntentFollowup:
		text = e.handleFollowup(ctx, req)
	case IntentCreate:
		text = e.handleCreate(ctx, req)
	case IntentQuery:
		text = e.handleQuery(ctx, req)
	case IntentDelete:
		text = e.handleDelete(ctx, req)
	default:
		text = e.handleChitchat(ctx, req)
	}

	return Result{Message: text}, nil
}

// handleCreate is the Idle -> Collecting (or straight to Dispatched)
// transition for a new scheduling request.
func (e *Engine) handleCreate(ctx context.Context, req Request) string {
	now := e.now()

	ex, err := e.extractor.ExtractFull(ctx, req.Message, now)
	if err != nil {
		e.logger.Error("full extraction failed", "error", err)
		e.observeTurn(IntentCreate, "failed")
		e.store.Delete(req.Key)
		return FormatStartOver("I couldn't understand the meeting details.")
	}

	st := &State{
		PendingIntent: IntentCreate,
		Draft:         ex.Draft,
		MissingFields: ex.Draft.Missing(),
		Aux:           map[string]string{},
	}
	if ex.PendingAttendee {
		// Attendee confirmation takes priority over structural fields.
		st.PushFrontField(FieldAttendeeEmail)
	}

	if len(st.MissingFields) == 0 {
		// All fields present on the first turn: skip Collecting entirely.
		return e.dispatchCreate(ctx, req, st)
	}

	e.store.Put(req.Key, st)
	e.observeTurn(IntentCreate, "asked")
	return Question(st.NextField())
}

// handleFollowup merges one answer into the pending draft and either asks
// the next question or dispatches. Any caught failure clears state
// unconditionally; there is no partial retention across error boundaries.
func (e *Engine) handleFollowup(ctx context.Context, req Request) string {
	st, ok := e.store.Get(req.Key)
	if !ok || st == nil {
		// Pending state vanished between classify and here; treat the
		// message as a fresh utterance.
		return e.handleChitchat(ctx, req)
	}

	now := e.now()
	field := st.NextField()

	ex, err := e.extractor.ExtractField(ctx, field, req.Message, now)
	if err != nil {
		e.logger.Error("followup extraction failed", "field", string(field), "error", err)
		e.observeTurn(IntentFollowup, "failed")
		e.store.Delete(req.Key)
		return FormatStartOver("I couldn't read that answer.")
	}

	if field == FieldAttendeeEmail {
		if len(ex.Draft.Attendees) == 0 {
			// Still no address; the question stands.
			e.observeTurn(IntentFollowup, "asked")
			return Question(FieldAttendeeEmail)
		}
		st.Draft.Merge(ex.Draft)
		st.PopField()
	} else {
		if !draftHasField(ex.Draft, field) {
			e.observeTurn(IntentFollowup, "asked")
			return "Sorry, I didn't catch that. " + Question(field)
		}
		st.Draft.Merge(ex.Draft)
		st.PopField()
	}

	// The answer may have satisfied later fields too (e.g. "3pm for one
	// hour" fills start and duration at once).
	st.MissingFields = pruneSatisfied(st)

	if ex.PendingAttendee {
		st.PushFrontField(FieldAttendeeEmail)
	}

	if len(st.MissingFields) > 0 {
		e.store.Put(req.Key, st)
		e.observeTurn(IntentFollowup, "asked")
		return Question(st.NextField())
	}

	return e.dispatchCreate(ctx, req, st)
}

// dispatchCreate is the Ready -> Dispatched transition: derive the end
// time if needed, invoke the provider, and drop state for the key whether
// the dispatch succeeded or not. Failures tell the user to start over.
func (e *Engine) dispatchCreate(ctx context.Context, req Request, st *State) string {
	defer e.store.Delete(req.Key)

	if st.Draft.EndTime == "" && st.Draft.Duration != "" && st.Draft.StartTime != "" {
		mins := temporal.DurationMinutes(st.Draft.Duration, e.defaultDurationMins)
		end, err := temporal.AddMinutes(st.Draft.StartTime, mins)
		if err != nil {
			e.logger.Error("end time derivation failed", "error", err)
			e.observeTurn(IntentCreate, "failed")
			return FormatStartOver("I couldn't work out the meeting end time.")
		}
		st.Draft.EndTime = end
	}

	created, err := e.dispatcher.Create(ctx, req.AccessToken, st.Draft)
	if err != nil {
		e.logger.Error("calendar create failed", "error", err)
		e.observeTurn(IntentCreate, "failed")
		e.observeDispatch("create", "error")
		return FormatStartOver("I couldn't create the event.")
	}

	e.observeTurn(IntentCreate, "completed")
	e.observeDispatch("create", "ok")
	return FormatCreated(created)
}

// handleQuery lists events in the requested (or default) window.
func (e *Engine) handleQuery(ctx context.Context, req Request) string {
	now := e.now()
	from, to := queryWindow(req.Message, now, e.dispatcher.Location())

	events, from, to, err := e.dispatcher.Query(ctx, req.AccessToken, from, to, now)
	if err != nil {
		e.logger.Error("calendar query failed", "error", err)
		e.observeTurn(IntentQuery, "failed")
		e.observeDispatch("query", "error")
		return "I couldn't reach your calendar just now. Please try again."
	}

	e.observeTurn(IntentQuery, "completed")
	e.observeDispatch("query", "ok")
	return FormatEventList(events, from, to, e.dispatcher.Location())
}

// handleDelete resolves the deletion target and removes the first match.
func (e *Engine) handleDelete(ctx context.Context, req Request) string {
	now := e.now()

	target, err := e.extractor.ExtractDeleteTarget(ctx, req.Message, now)
	if err != nil {
		e.logger.Error("delete extraction failed", "error", err)
		e.observeTurn(IntentDelete, "failed")
		return "I couldn't tell which event you want to cancel. Could you give me its name?"
	}

	deleted, err := e.dispatcher.Delete(ctx, req.AccessToken, target, now)
	switch {
	case errors.Is(err, ErrEventNotFound):
		e.observeTurn(IntentDelete, "not_found")
		return "I couldn't find an event matching \"" + target.Title + "\" on your calendar."
	case err != nil:
		e.logger.Error("calendar delete failed", "error", err)
		e.observeTurn(IntentDelete, "failed")
		e.observeDispatch("delete", "error")
		return "I couldn't reach your calendar just now. Please try again."
	}

	e.observeTurn(IntentDelete, "completed")
	e.observeDispatch("delete", "ok")
	return FormatDeleted(deleted, e.dispatcher.Location())
}

// handleChitchat answers non-calendar messages with the assistant persona.
func (e *Engine) handleChitchat(ctx context.Context, req Request) string {
	resp, err := e.chat.Complete(ctx, LLMRequest{
		System:    chitchatSystem,
		Prompt:    req.Message,
		MaxTokens: 256,
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		if err != nil {
			e.logger.Error("chitchat completion failed", "error", err)
		}
		e.observeTurn(IntentChitchat, "failed")
		return "I can help with that! I'll need to know the date, time, and name of the meeting."
	}
	e.observeTurn(IntentChitchat, "completed")
	return resp.Text
}

func (e *Engine) observeTurn(intent IntentKind, outcome string) {
	e.metrics.ObserveTurn(string(intent), outcome)
}

func (e *Engine) observeDispatch(action, status string) {
	e.metrics.ObserveDispatch(action, status)
}

// draftHasField reports whether the extraction produced a value for the
// field that was asked about. Duration counts as an end-time answer.
func draftHasField(d EventDraft, field FieldName) bool {
	switch field {
	case FieldTitle:
		return d.Title != ""
	case FieldDate:
		return d.Date != ""
	case FieldStartTime:
		return d.StartTime != ""
	case FieldEndTime:
		return d.EndTime != "" || d.Duration != ""
	case FieldAttendeeEmail:
		return len(d.Attendees) > 0
	default:
		return false
	}
}

// pruneSatisfied drops queue entries the draft now satisfies, preserving
// the remaining question order. The attendee interrupt is only ever
// cleared by an explicit answer, never pruned.
func pruneSatisfied(st *State) []FieldName {
	remaining := st.MissingFields[:0:0]
	for _, f := range st.MissingFields {
		if f == FieldAttendeeEmail || !draftHasField(st.Draft, f) {
			remaining = append(remaining, f)
		}
	}
	return remaining
}

// queryWindow scans a query message for a resolvable day expression and
// narrows the window to that single day. Unrecognized phrasing keeps the
// default window.
func queryWindow(message string, now time.Time, tz *time.Location) (time.Time, time.Time) {
	msg := strings.ToLower(message)
	msg = strings.NewReplacer("?", "", "!", "", ",", "", ".", "").Replace(msg)
	words := strings.Fields(msg)

	var candidates []string
	for i, w := range words {
		candidates = append(candidates, w)
		if i+1 < len(words) {
			candidates = append(candidates, w+" "+words[i+1])
		}
	}
	// Bigrams first so "next monday" wins over the bare weekday.
	for _, c := range candidates {
		if len(strings.Fields(c)) == 2 {
			if from, to, ok := dayWindow(c, now, tz); ok {
				return from, to
			}
		}
	}
	for _, c := range candidates {
		if from, to, ok := dayWindow(c, now, tz); ok {
			return from, to
		}
	}
	return time.Time{}, time.Time{}
}

func dayWindow(expr string, now time.Time, tz *time.Location) (time.Time, time.Time, bool) {
	// "today" alone would always match; that is fine, it means today.
	date, err := temporal.ResolveDate(expr, now)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	day, err := time.ParseInLocation("2006-01-02", date, tz)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return day, day.AddDate(0, 0, 1), true
}
