package conversation

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/maxai/calendar-assistant/internal/temporal"
)

// emailPattern is the attendee email grammar. Anything failing it is
// dropped from the draft, never merged.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// looseEmailPattern finds an email anywhere inside free text.
var looseEmailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// Extraction is the outcome of one extraction round-trip.
type Extraction struct {
	Draft EventDraft
	// PendingAttendee is set when the message referenced an attendee by
	// bare name, so the engine can ask for the address specifically
	// instead of silently losing the attendee.
	PendingAttendee bool
}

// SlotExtractor turns free text into EventDraft fields via the LLM,
// scoped to exactly the fields still needed.
type SlotExtractor struct {
	llm LLMClient
}

// NewSlotExtractor builds an extractor around the given LLM client.
func NewSlotExtractor(llm LLMClient) *SlotExtractor {
	return &SlotExtractor{llm: llm}
}

// ExtractFull performs whole-message extraction for the first turn of a
// create conversation.
func (e *SlotExtractor) ExtractFull(ctx context.Context, message string, now time.Time) (Extraction, error) {
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Prompt:    fullExtractionPrompt(message, now),
		MaxTokens: 512,
	})
	if err != nil {
		return Extraction{}, err
	}
	return e.parseDraft(resp.Text, now)
}

// ExtractField performs single-field extraction for a follow-up turn.
// Date and time answers are first tried against the temporal resolver
// directly; the LLM is only consulted when the cheap path fails.
func (e *SlotExtractor) ExtractField(ctx context.Context, field FieldName, message string, now time.Time) (Extraction, error) {
	switch field {
	case FieldAttendeeEmail:
		email := looseEmailPattern.FindString(message)
		if email == "" {
			return Extraction{PendingAttendee: true}, nil
		}
		return Extraction{Draft: EventDraft{Attendees: []string{strings.ToLower(email)}}}, nil
	case FieldDate:
		if date, err := temporal.ResolveDate(message, now); err == nil {
			return Extraction{Draft: EventDraft{Date: date}}, nil
		}
	case FieldStartTime:
		if hhmm, err := temporal.ResolveTime(message); err == nil {
			return Extraction{Draft: EventDraft{StartTime: hhmm}}, nil
		}
	case FieldEndTime:
		if hhmm, err := temporal.ResolveTime(message); err == nil {
			return Extraction{Draft: EventDraft{EndTime: hhmm}}, nil
		}
	case FieldTitle:
		// Short replies to "what should I call it?" are taken verbatim.
		if title := strings.TrimSpace(message); title != "" && len(strings.Fields(title)) <= 6 {
			return Extraction{Draft: EventDraft{Title: title}}, nil
		}
	}

	resp, err := e.llm.Complete(ctx, LLMRequest{
		Prompt:    singleFieldPrompt(field, message, now),
		MaxTokens: 128,
	})
	if err != nil {
		return Extraction{}, err
	}
	return e.parseDraft(resp.Text, now)
}

// DeleteTarget identifies the event a deletion request refers to.
type DeleteTarget struct {
	Title string
	Date  string // optional ISO date
}

// ExtractDeleteTarget pulls the target title and optional date from a
// deletion request.
func (e *SlotExtractor) ExtractDeleteTarget(ctx context.Context, message string, now time.Time) (DeleteTarget, error) {
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Prompt:    deleteExtractionPrompt(message, now),
		MaxTokens: 128,
	})
	if err != nil {
		return DeleteTarget{}, err
	}

	raw, ok := extractJSON(resp.Text)
	if !ok {
		return DeleteTarget{}, &ExtractionFailedError{Raw: resp.Text}
	}

	var payload struct {
		Name string `json:"name"`
		Date string `json:"date"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return DeleteTarget{}, &ExtractionFailedError{Raw: resp.Text}
	}

	target := DeleteTarget{Title: strings.TrimSpace(payload.Name)}
	if payload.Date != "" {
		if date, err := temporal.ResolveDate(payload.Date, now); err == nil {
			target.Date = date
		}
	}
	return target, nil
}

// parseDraft recovers a draft from raw LLM output, failing closed on
// anything that is not a single well-formed JSON object.
func (e *SlotExtractor) parseDraft(text string, now time.Time) (Extraction, error) {
	raw, ok := extractJSON(text)
	if !ok {
		return Extraction{}, &ExtractionFailedError{Raw: text}
	}

	var draft EventDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return Extraction{}, &ExtractionFailedError{Raw: text}
	}

	result := Extraction{Draft: draft}
	result.Draft.Attendees, result.PendingAttendee = validateAttendees(draft.Attendees)
	normalizeDraft(&result.Draft, now)
	return result, nil
}

// validateAttendees keeps only entries matching the email grammar. Bare
// names are rejected and reported as pending.
func validateAttendees(entries []string) ([]string, bool) {
	var valid []string
	pending := false
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if emailPattern.MatchString(entry) {
			valid = append(valid, strings.ToLower(entry))
		} else {
			pending = true
		}
	}
	return valid, pending
}

// normalizeDraft repairs fields the LLM returned in a relative or
// 12-hour form despite the prompt instructions.
func normalizeDraft(d *EventDraft, now time.Time) {
	if d.Date != "" {
		if date, err := temporal.ResolveDate(d.Date, now); err == nil {
			d.Date = date
		}
	}
	if d.StartTime != "" {
		if hhmm, err := temporal.ResolveTime(d.StartTime); err == nil {
			d.StartTime = hhmm
		}
	}
	if d.EndTime != "" {
		if hhmm, err := temporal.ResolveTime(d.EndTime); err == nil {
			d.EndTime = hhmm
		}
	}
}

// extractJSON locates the single JSON object inside raw LLM output,
// tolerating surrounding narrative and code-fence markers.
func extractJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
