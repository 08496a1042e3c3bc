package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/maxai/calendar-assistant/internal/calendar"
)

// Formatting is purely functional: same input, same text, no I/O.

// FormatCreated renders a creation confirmation.
func FormatCreated(ev *calendar.Event) string {
	if ev.HTMLLink != "" {
		return fmt.Sprintf("Event created successfully! View it here: %s", ev.HTMLLink)
	}
	return fmt.Sprintf("Event %q created successfully!", ev.Title)
}

// FormatDeleted renders a deletion confirmation.
func FormatDeleted(ev *calendar.Event, tz *time.Location) string {
	return fmt.Sprintf("Done! I've cancelled %q on %s.", ev.Title, ev.Start.In(tz).Format("Monday, January 2"))
}

// FormatEventList renders a query result. An empty list is a valid
// outcome, rendered as "no events".
func FormatEventList(events []calendar.Event, from, to time.Time, tz *time.Location) string {
	window := fmt.Sprintf("between %s and %s",
		from.In(tz).Format("Jan 2"), to.In(tz).Format("Jan 2"))

	if len(events) == 0 {
		return fmt.Sprintf("You have no events %s.", window)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's what you have %s:\n", window)
	for _, ev := range events {
		title := ev.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "- %s: %s, %s to %s\n",
			title,
			ev.Start.In(tz).Format("Mon Jan 2"),
			ev.Start.In(tz).Format("3:04 PM"),
			ev.End.In(tz).Format("3:04 PM"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Question returns the follow-up question for a missing field. The
// attendee email question is a fixed literal: it is the entire contract
// of the attendee interrupt.
func Question(field FieldName) string {
	switch field {
	case FieldTitle:
		return "What should I call the meeting?"
	case FieldDate:
		return "What date is the meeting?"
	case FieldStartTime:
		return "What time does the meeting start?"
	case FieldEndTime:
		return "What time does the meeting end (or how long should it run)?"
	case FieldAttendeeEmail:
		return "What's the email address for the attendee you'd like to invite?"
	default:
		return fmt.Sprintf("Could you tell me the %s?", strings.ReplaceAll(string(field), "_", " "))
	}
}

// FormatStartOver is the reply after a caught failure clears state.
func FormatStartOver(reason string) string {
	if reason == "" {
		reason = "Something went wrong on my end."
	}
	return reason + " Let's start over. What would you like to schedule?"
}
