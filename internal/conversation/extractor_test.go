package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractorNow() time.Time {
	return time.Date(2025, 8, 7, 10, 0, 0, 0, time.UTC) // a Thursday
}

func TestExtractFull(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"```json\n" + `{"name": "Team Sync", "date": "2025-08-08", "start_time": "2:00 PM", "end_time": "15:00", "attendees": ["ana@example.com", "Bob"]}` + "\n```",
	}}
	ex := NewSlotExtractor(llm)

	got, err := ex.ExtractFull(context.Background(), "schedule team sync tomorrow at 2pm", extractorNow())
	require.NoError(t, err)

	assert.Equal(t, "Team Sync", got.Draft.Title)
	assert.Equal(t, "2025-08-08", got.Draft.Date)
	assert.Equal(t, "14:00", got.Draft.StartTime, "12-hour model output is normalized")
	assert.Equal(t, "15:00", got.Draft.EndTime)
	assert.Equal(t, []string{"ana@example.com"}, got.Draft.Attendees, "bare names are dropped")
	assert.True(t, got.PendingAttendee)
}

func TestExtractFullNormalizesRelativeDate(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"name": "Standup", "date": "tomorrow", "start_time": "09:00"}`,
	}}
	ex := NewSlotExtractor(llm)

	got, err := ex.ExtractFull(context.Background(), "standup meeting tomorrow at 9", extractorNow())
	require.NoError(t, err)
	assert.Equal(t, "2025-08-08", got.Draft.Date)
}

func TestExtractFullFailsClosed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no json at all", "Happy to help! What time works for you?"},
		{"malformed json", `{"name": "Sync", "date": `},
		{"empty reply", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &scriptedLLM{replies: []string{tt.reply}}
			ex := NewSlotExtractor(llm)

			_, err := ex.ExtractFull(context.Background(), "schedule a meeting", extractorNow())
			var extractionErr *ExtractionFailedError
			require.ErrorAs(t, err, &extractionErr)
		})
	}
}

func TestExtractFullPropagatesLLMError(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("deadline exceeded")}
	ex := NewSlotExtractor(llm)

	_, err := ex.ExtractFull(context.Background(), "schedule a meeting", extractorNow())
	assert.Error(t, err)
}

func TestExtractFieldCheapPaths(t *testing.T) {
	// None of these may touch the model.
	llm := &scriptedLLM{}
	ex := NewSlotExtractor(llm)
	ctx := context.Background()

	got, err := ex.ExtractField(ctx, FieldDate, "next friday", extractorNow())
	require.NoError(t, err)
	assert.Equal(t, "2025-08-15", got.Draft.Date)

	got, err = ex.ExtractField(ctx, FieldStartTime, "2:30 pm", extractorNow())
	require.NoError(t, err)
	assert.Equal(t, "14:30", got.Draft.StartTime)

	got, err = ex.ExtractField(ctx, FieldTitle, "Quarterly Planning", extractorNow())
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Planning", got.Draft.Title)

	got, err = ex.ExtractField(ctx, FieldAttendeeEmail, "sure, reach her at Ana.Lopez@Example.com please", extractorNow())
	require.NoError(t, err)
	assert.Equal(t, []string{"ana.lopez@example.com"}, got.Draft.Attendees)

	got, err = ex.ExtractField(ctx, FieldAttendeeEmail, "her name is Ana", extractorNow())
	require.NoError(t, err)
	assert.Empty(t, got.Draft.Attendees)
	assert.True(t, got.PendingAttendee)

	assert.Empty(t, llm.calls)
}

func TestExtractFieldFallsBackToLLM(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`{"date": "2025-08-11"}`}}
	ex := NewSlotExtractor(llm)

	got, err := ex.ExtractField(context.Background(), FieldDate, "the Monday after my trip ends", extractorNow())
	require.NoError(t, err)
	assert.Equal(t, "2025-08-11", got.Draft.Date)
	require.Len(t, llm.calls, 1)
}

func TestExtractDeleteTarget(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`{"name": "Dentist", "date": "tomorrow"}`}}
	ex := NewSlotExtractor(llm)

	got, err := ex.ExtractDeleteTarget(context.Background(), "cancel my dentist appointment tomorrow", extractorNow())
	require.NoError(t, err)
	assert.Equal(t, "Dentist", got.Title)
	assert.Equal(t, "2025-08-08", got.Date)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`, true},
		{"surrounded by prose", `Here you go: {"a": 1} Let me know!`, `{"a": 1}`, true},
		{"no braces", "no structured data here", "", false},
		{"only closing brace", "oops }", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
