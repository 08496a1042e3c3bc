// Package calendar wraps the Google Calendar API behind the narrow
// collaborator contract the conversation engine depends on. Clients are
// built per request from a caller-supplied bearer access token; the
// package never acquires or refreshes tokens.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Event is the provider-neutral view of a calendar event.
type Event struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	HTMLLink string
}

// EventInput describes an event to create.
type EventInput struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Timezone    string
	Attendees   []string // email addresses only
}

// API is the calendar collaborator contract.
type API interface {
	InsertEvent(ctx context.Context, in EventInput) (*Event, error)
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Factory builds an API bound to the supplied bearer token.
type Factory func(ctx context.Context, accessToken string) (API, error)

// Client talks to a single Google calendar on behalf of one token.
type Client struct {
	service    *gcal.Service
	calendarID string
}

// NewClient constructs a Google Calendar client from a bearer access token.
func NewClient(ctx context.Context, accessToken, calendarID string) (*Client, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, errors.New("calendar: access token is required")
	}
	if calendarID == "" {
		calendarID = "primary"
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to create service: %w", err)
	}

	return &Client{service: service, calendarID: calendarID}, nil
}

// NewFactory returns a Factory producing clients for the given calendar.
func NewFactory(calendarID string) Factory {
	return func(ctx context.Context, accessToken string) (API, error) {
		return NewClient(ctx, accessToken, calendarID)
	}
}

// InsertEvent creates the event and returns its ID and HTML link.
func (c *Client) InsertEvent(ctx context.Context, in EventInput) (*Event, error) {
	event := &gcal.Event{
		Summary:     in.Title,
		Description: in.Description,
		Location:    in.Location,
		Start: &gcal.EventDateTime{
			DateTime: in.Start.Format(time.RFC3339),
			TimeZone: in.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: in.End.Format(time.RFC3339),
			TimeZone: in.Timezone,
		},
	}
	for _, email := range in.Attendees {
		event.Attendees = append(event.Attendees, &gcal.EventAttendee{Email: email})
	}

	created, err := c.service.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to create event: %w", err)
	}

	return &Event{
		ID:       created.Id,
		Title:    created.Summary,
		Start:    in.Start,
		End:      in.End,
		HTMLLink: created.HtmlLink,
	}, nil
}

// ListEvents returns single events in [timeMin, timeMax] ordered by start time.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]Event, error) {
	resp, err := c.service.Events.List(c.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: failed to list events: %w", err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, Event{
			ID:       item.Id,
			Title:    item.Summary,
			Start:    parseEventTime(item.Start),
			End:      parseEventTime(item.End),
			HTMLLink: item.HtmlLink,
		})
	}
	return events, nil
}

// DeleteEvent removes the event with the given ID.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.service.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("calendar: failed to delete event: %w", err)
	}
	return nil
}

// parseEventTime handles both timed events (DateTime) and all-day events (Date).
func parseEventTime(edt *gcal.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
