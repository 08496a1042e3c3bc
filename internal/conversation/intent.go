package conversation

import "strings"

// Classifier maps a raw utterance to an IntentKind using phrase tables
// checked in a fixed precedence order. Query phrasing is checked before
// create phrasing on purpose: "check my meetings" must not read as a
// scheduling request even though it mentions a meeting noun.
type Classifier struct {
	queryPhrases  []string
	deletePhrases []string
	createVerbs   []string
	eventNouns    []string
}

// NewClassifier returns a classifier with the default phrase tables.
func NewClassifier() *Classifier {
	return &Classifier{
		queryPhrases: []string{
			"what's on", "what is on", "whats on",
			"do i have", "am i free", "free on", "free at",
			"availability", "available",
			"list my", "show my", "check my", "view my",
			"what meetings", "what events", "what appointments",
			"my schedule", "my calendar", "my agenda", "upcoming",
		},
		deletePhrases: []string{
			"delete", "remove", "cancel",
		},
		createVerbs: []string{
			"schedule", "book", "create", "add", "set up", "setup", "plan",
		},
		eventNouns: []string{
			"meeting", "event", "appointment", "call", "session", "sync",
			"interview", "lunch", "dinner", "catch up", "catchup", "1:1",
		},
	}
}

// WithPhrases overrides the phrase tables; nil slices keep the defaults.
// The precedence order itself is fixed.
func (c *Classifier) WithPhrases(query, del, verbs, nouns []string) *Classifier {
	if query != nil {
		c.queryPhrases = query
	}
	if del != nil {
		c.deletePhrases = del
	}
	if verbs != nil {
		c.createVerbs = verbs
	}
	if nouns != nil {
		c.eventNouns = nouns
	}
	return c
}

// Classify evaluates the precedence tiers in order; the first match wins.
// A pending conversation always classifies as followup.
func (c *Classifier) Classify(message string, hasPendingState bool) IntentKind {
	if hasPendingState {
		return IntentFollowup
	}

	msg := strings.ToLower(message)

	if containsAny(msg, c.queryPhrases) {
		return IntentQuery
	}
	if containsAny(msg, c.deletePhrases) {
		return IntentDelete
	}
	if containsAny(msg, c.createVerbs) && containsAny(msg, c.eventNouns) {
		return IntentCreate
	}
	return IntentChitchat
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
