// Package conversation implements the multi-turn slot-filling dialogue
// engine: intent classification, LLM slot extraction, per-conversation
// missing-field tracking, and dispatch against the calendar collaborator.
package conversation

// IntentKind labels what the user is trying to do.
type IntentKind string

const (
	IntentCreate   IntentKind = "create"
	IntentQuery    IntentKind = "query"
	IntentDelete   IntentKind = "delete"
	IntentFollowup IntentKind = "followup"
	IntentChitchat IntentKind = "chitchat"
)

// FieldName identifies a slot the engine may still need to fill.
type FieldName string

const (
	FieldTitle         FieldName = "event_title"
	FieldDate          FieldName = "date"
	FieldStartTime     FieldName = "start_time"
	FieldEndTime       FieldName = "end_time"
	FieldAttendeeEmail FieldName = "attendee_email"
)

// EventDraft is the structured event under construction. JSON tags match
// the extraction schema the LLM is asked to produce.
type EventDraft struct {
	Title       string   `json:"name,omitempty"`
	Date        string   `json:"date,omitempty"`       // ISO-8601
	StartTime   string   `json:"start_time,omitempty"` // 24h HH:MM
	EndTime     string   `json:"end_time,omitempty"`   // 24h HH:MM
	Duration    string   `json:"duration,omitempty"`
	Attendees   []string `json:"attendees,omitempty"` // validated emails only
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// Merge copies non-empty fields from other into d. Attendees are
// appended, skipping duplicates.
func (d *EventDraft) Merge(other EventDraft) {
	if other.Title != "" {
		d.Title = other.Title
	}
	if other.Date != "" {
		d.Date = other.Date
	}
	if other.StartTime != "" {
		d.StartTime = other.StartTime
	}
	if other.EndTime != "" {
		d.EndTime = other.EndTime
	}
	if other.Duration != "" {
		d.Duration = other.Duration
	}
	if other.Location != "" {
		d.Location = other.Location
	}
	if other.Description != "" {
		d.Description = other.Description
	}
	if other.Notes != "" {
		d.Notes = other.Notes
	}
	for _, a := range other.Attendees {
		if !containsString(d.Attendees, a) {
			d.Attendees = append(d.Attendees, a)
		}
	}
}

// Missing returns the structural fields still required before the draft
// can be dispatched, in the fixed question order. End time counts as
// present when a duration is known, since it can be derived.
func (d EventDraft) Missing() []FieldName {
	var missing []FieldName
	if d.Title == "" {
		missing = append(missing, FieldTitle)
	}
	if d.Date == "" {
		missing = append(missing, FieldDate)
	}
	if d.StartTime == "" {
		missing = append(missing, FieldStartTime)
	}
	if d.EndTime == "" && d.Duration == "" {
		missing = append(missing, FieldEndTime)
	}
	return missing
}

// State is the per-conversation record owned by the engine. One instance
// per conversation key, held only in memory for the process lifetime.
type State struct {
	PendingIntent IntentKind
	Draft         EventDraft
	MissingFields []FieldName
	Aux           map[string]string
}

// NextField returns the field to ask about next, or "" when complete.
func (s *State) NextField() FieldName {
	if s == nil || len(s.MissingFields) == 0 {
		return ""
	}
	return s.MissingFields[0]
}

// PopField removes the front of MissingFields.
func (s *State) PopField() {
	if s != nil && len(s.MissingFields) > 0 {
		s.MissingFields = s.MissingFields[1:]
	}
}

// PushFrontField inserts field at the front of MissingFields unless it is
// already there. Used for the attendee-email interrupt, which takes
// priority over remaining structural fields.
func (s *State) PushFrontField(field FieldName) {
	if s == nil {
		return
	}
	if len(s.MissingFields) > 0 && s.MissingFields[0] == field {
		return
	}
	rest := make([]FieldName, 0, len(s.MissingFields))
	for _, f := range s.MissingFields {
		if f != field {
			rest = append(rest, f)
		}
	}
	s.MissingFields = append([]FieldName{field}, rest...)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
