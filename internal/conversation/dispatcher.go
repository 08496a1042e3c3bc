package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maxai/calendar-assistant/internal/calendar"
)

// DispatcherConfig tunes the action layer's windows and defaults.
type DispatcherConfig struct {
	Timezone         string // IANA name for created events
	QueryWindowDays  int
	DeleteWindowDays int
	Timeout          time.Duration // per-operation provider deadline, 0 means none
}

// Dispatcher executes fully-resolved intents against the calendar
// collaborator and maps provider errors back into the engine's taxonomy.
type Dispatcher struct {
	newClient calendar.Factory
	tz        *time.Location
	tzName    string
	cfg       DispatcherConfig
}

// NewDispatcher builds a dispatcher around a calendar client factory.
func NewDispatcher(factory calendar.Factory, cfg DispatcherConfig) *Dispatcher {
	if cfg.Timezone == "" {
		cfg.Timezone = "America/Los_Angeles"
	}
	if cfg.QueryWindowDays <= 0 {
		cfg.QueryWindowDays = 7
	}
	if cfg.DeleteWindowDays <= 0 {
		cfg.DeleteWindowDays = 30
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Dispatcher{
		newClient: factory,
		tz:        loc,
		tzName:    cfg.Timezone,
		cfg:       cfg,
	}
}

// Location returns the timezone created events are placed in.
func (d *Dispatcher) Location() *time.Location { return d.tz }

func (d *Dispatcher) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.cfg.Timeout)
}

// Create inserts the drafted event. The draft must carry a resolved date,
// start time, and end time; a missing title defaults to "Meeting".
func (d *Dispatcher) Create(ctx context.Context, accessToken string, draft EventDraft) (*calendar.Event, error) {
	title := draft.Title
	if title == "" {
		title = "Meeting"
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", draft.Date+" "+draft.StartTime, d.tz)
	if err != nil {
		return nil, fmt.Errorf("conversation: unresolved event start %q %q: %w", draft.Date, draft.StartTime, err)
	}
	end, err := time.ParseInLocation("2006-01-02 15:04", draft.Date+" "+draft.EndTime, d.tz)
	if err != nil {
		return nil, fmt.Errorf("conversation: unresolved event end %q %q: %w", draft.Date, draft.EndTime, err)
	}
	if !end.After(start) {
		// End wrapped past midnight (e.g. 23:30 + 1 hour).
		end = end.AddDate(0, 0, 1)
	}

	ctx, cancel := d.opContext(ctx)
	defer cancel()

	client, err := d.newClient(ctx, accessToken)
	if err != nil {
		return nil, &ProviderError{Op: "create", Err: err}
	}

	created, err := client.InsertEvent(ctx, calendar.EventInput{
		Title:       title,
		Description: draft.Description,
		Location:    draft.Location,
		Start:       start,
		End:         end,
		Timezone:    d.tzName,
		Attendees:   draft.Attendees,
	})
	if err != nil {
		return nil, &ProviderError{Op: "create", Err: err}
	}
	return created, nil
}

// Query lists events in [from, to]. A zero window defaults to now through
// +QueryWindowDays. An empty result is a valid, non-error outcome.
func (d *Dispatcher) Query(ctx context.Context, accessToken string, from, to time.Time, now time.Time) ([]calendar.Event, time.Time, time.Time, error) {
	if from.IsZero() {
		from = now
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, d.cfg.QueryWindowDays)
	}

	ctx, cancel := d.opContext(ctx)
	defer cancel()

	client, err := d.newClient(ctx, accessToken)
	if err != nil {
		return nil, from, to, &ProviderError{Op: "query", Err: err}
	}

	events, err := client.ListEvents(ctx, from, to)
	if err != nil {
		return nil, from, to, &ProviderError{Op: "query", Err: err}
	}
	return events, from, to, nil
}

// Delete removes the first chronological event matching the target. The
// search window is fixed at +/- DeleteWindowDays around now. Title
// matching is a case-insensitive substring match in either direction,
// which is deliberately loose and can false-positive on short titles.
func (d *Dispatcher) Delete(ctx context.Context, accessToken string, target DeleteTarget, now time.Time) (*calendar.Event, error) {
	if strings.TrimSpace(target.Title) == "" {
		return nil, ErrEventNotFound
	}

	ctx, cancel := d.opContext(ctx)
	defer cancel()

	client, err := d.newClient(ctx, accessToken)
	if err != nil {
		return nil, &ProviderError{Op: "delete", Err: err}
	}

	from := now.AddDate(0, 0, -d.cfg.DeleteWindowDays)
	to := now.AddDate(0, 0, d.cfg.DeleteWindowDays)
	events, err := client.ListEvents(ctx, from, to)
	if err != nil {
		return nil, &ProviderError{Op: "delete", Err: err}
	}

	match := findDeleteMatch(events, target, d.tz)
	if match == nil {
		return nil, ErrEventNotFound
	}

	if err := client.DeleteEvent(ctx, match.ID); err != nil {
		return nil, &ProviderError{Op: "delete", Err: err}
	}
	return match, nil
}

// findDeleteMatch returns the chronologically first event whose title
// contains the query title or vice versa, restricted to an exact date
// match when the target names a date. Events are assumed ordered by
// start time, as the provider lists them.
func findDeleteMatch(events []calendar.Event, target DeleteTarget, tz *time.Location) *calendar.Event {
	query := strings.ToLower(strings.TrimSpace(target.Title))
	for i := range events {
		candidate := strings.ToLower(events[i].Title)
		if candidate == "" {
			continue
		}
		if !strings.Contains(candidate, query) && !strings.Contains(query, candidate) {
			continue
		}
		if target.Date != "" && events[i].Start.In(tz).Format("2006-01-02") != target.Date {
			continue
		}
		return &events[i]
	}
	return nil
}
