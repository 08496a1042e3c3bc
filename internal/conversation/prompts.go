package conversation

import (
	"fmt"
	"strings"
	"time"
)

const chitchatSystem = `You are a helpful assistant that can help with scheduling meetings.
Respond in a friendly and helpful manner. If the user asks about scheduling a meeting,
work, a networking session, or any scheduling related questions, respond with a message
that says: "I can help with that! I'll need to know the date, time, and name of the meeting."`

// fullExtractionPrompt asks for every schedulable field at once. Used on
// the first turn of a create conversation.
func fullExtractionPrompt(message string, now time.Time) string {
	currentDate := now.Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
	year := now.Year()

	return fmt.Sprintf(`Parse the following user message to extract scheduling information:
%s

CURRENT DATE: %s
CURRENT YEAR: %d

Return JSON with the following fields:
- name: The name of the meeting
- date: The date of the meeting in YYYY-MM-DD format
- start_time: The start time in 24-hour HH:MM format
- end_time: The end time in 24-hour HH:MM format
- duration: The duration as stated (e.g., "1 hour"), if no end time was given
- attendees: A list of attendee email addresses (optional; include names only if no email was given)
- location: The location of the meeting (optional)
- description: The description of the meeting (optional)
- notes: Any additional notes or instructions (optional)

Omit any field that is not present in the message. Do not invent values.

IMPORTANT DATE CONVERSION RULES:
- "today" means %s
- "tomorrow" means %s
- "8/14" means %d-08-14 (use %d as the year)
- "this Friday" means the next Friday on or after %s
- "next Monday" means Monday of next week
- Always use %d as the base year unless another year is explicitly stated

EXAMPLES:
- "8/14 at 2pm" has date "%d-08-14" and start_time "14:00"
- "tomorrow at 3pm" has date "%s" and start_time "15:00"

Respond with a single JSON object and nothing else.`,
		message, currentDate, year, currentDate, tomorrow, year, year, currentDate, year, year, tomorrow)
}

// singleFieldPrompt asks for exactly one field, keeping the output schema
// small on follow-up turns.
func singleFieldPrompt(field FieldName, message string, now time.Time) string {
	currentDate := now.Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")

	descriptions := map[FieldName]string{
		FieldTitle:     `"name": the meeting name as a short string`,
		FieldDate:      `"date": the date in YYYY-MM-DD format`,
		FieldStartTime: `"start_time": the start time in 24-hour HH:MM format`,
		FieldEndTime:   `"end_time": the end time in 24-hour HH:MM format (or "duration" as stated, e.g. "1 hour")`,
	}

	return fmt.Sprintf(`The user was asked for the %s of a meeting and replied:
%s

CURRENT DATE: %s (tomorrow is %s)

Return JSON containing only %s.
Omit the field entirely if the reply does not contain it. Do not invent values.
Respond with a single JSON object and nothing else.`,
		fieldLabel(field), message, currentDate, tomorrow, descriptions[field])
}

// deleteExtractionPrompt pulls the target title (and optional date) out of
// a deletion request.
func deleteExtractionPrompt(message string, now time.Time) string {
	return fmt.Sprintf(`The user wants to cancel a calendar event. Their message:
%s

CURRENT DATE: %s

Return JSON with:
- name: the title of the event to cancel
- date: the date of the event in YYYY-MM-DD format, only if the message states one

Omit any field not present in the message. Respond with a single JSON object and nothing else.`,
		message, now.Format("2006-01-02"))
}

func fieldLabel(field FieldName) string {
	switch field {
	case FieldTitle:
		return "name"
	case FieldDate:
		return "date"
	case FieldStartTime:
		return "start time"
	case FieldEndTime:
		return "end time"
	case FieldAttendeeEmail:
		return "attendee email address"
	default:
		return strings.ReplaceAll(string(field), "_", " ")
	}
}
