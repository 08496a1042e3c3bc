// Package temporal resolves relative date and time expressions against a
// reference instant, producing ISO-8601 dates and 24-hour clock times.
package temporal

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrAmbiguous is returned when an expression cannot be mapped to a
// concrete date or time deterministically. Callers must not guess.
var ErrAmbiguous = errors.New("temporal: ambiguous expression")

const (
	// DateLayout is the ISO-8601 date format produced by ResolveDate.
	DateLayout = "2006-01-02"
	// TimeLayout is the 24-hour clock format produced by ResolveTime.
	TimeLayout = "15:04"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var (
	slashDateRE = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{4}))?$`)
	clockRE     = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?$`)
)

// ResolveDate converts a date expression into an ISO-8601 date.
//
// Policy for "this <weekday>": the occurrence in the current week when the
// day has not passed yet (same day resolves to today), otherwise the next
// occurrence. "next <weekday>" always lands in the week after the current
// one. Slash dates ("8/14") are month/day in the current year unless that
// date is already past, in which case the next year is used.
func ResolveDate(expr string, now time.Time) (string, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return "", ErrAmbiguous
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch s {
	case "today", "tonight":
		return today.Format(DateLayout), nil
	case "tomorrow":
		return today.AddDate(0, 0, 1).Format(DateLayout), nil
	case "day after tomorrow", "the day after tomorrow":
		return today.AddDate(0, 0, 2).Format(DateLayout), nil
	}

	if name, ok := strings.CutPrefix(s, "next "); ok {
		if wd, ok := weekdays[name]; ok {
			delta := int(wd-today.Weekday()+7) % 7
			return today.AddDate(0, 0, delta+7).Format(DateLayout), nil
		}
		return "", ErrAmbiguous
	}

	name := s
	if trimmed, ok := strings.CutPrefix(s, "this "); ok {
		name = trimmed
	}
	if wd, ok := weekdays[name]; ok {
		delta := int(wd-today.Weekday()+7) % 7
		return today.AddDate(0, 0, delta).Format(DateLayout), nil
	}

	if m := slashDateRE.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return "", ErrAmbiguous
		}
		year := today.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		candidate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		if candidate.Day() != day || candidate.Month() != time.Month(month) {
			return "", ErrAmbiguous
		}
		// No explicit year and the date already passed: roll to next year.
		if m[3] == "" && candidate.Before(today) {
			candidate = time.Date(year+1, time.Month(month), day, 0, 0, 0, 0, now.Location())
		}
		return candidate.Format(DateLayout), nil
	}

	if t, err := time.ParseInLocation(DateLayout, s, now.Location()); err == nil {
		return t.Format(DateLayout), nil
	}

	return "", ErrAmbiguous
}

// ResolveTime converts a clock expression ("3pm", "2:30 PM", "noon",
// "midnight", "14:30") into 24-hour HH:MM.
func ResolveTime(expr string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return "", ErrAmbiguous
	}

	switch s {
	case "noon", "midday", "12 noon":
		return "12:00", nil
	case "midnight":
		return "00:00", nil
	}

	m := clockRE.FindStringSubmatch(s)
	if m == nil {
		return "", ErrAmbiguous
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return "", ErrAmbiguous
	}

	meridiem := strings.ReplaceAll(m[3], ".", "")
	switch meridiem {
	case "am":
		if hour < 1 || hour > 12 {
			return "", ErrAmbiguous
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return "", ErrAmbiguous
		}
		if hour != 12 {
			hour += 12
		}
	default:
		// No meridiem: only unambiguous 24-hour clock values are accepted.
		if m[2] == "" || hour > 23 {
			return "", ErrAmbiguous
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

var (
	hoursRE   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`)
	minutesRE = regexp.MustCompile(`(\d+)\s*(?:minutes?|mins?|m)\b`)
)

// DurationMinutes parses duration text like "1 hour", "90 minutes" or
// "1 hour 30 minutes" into minutes. Unrecognized text yields fallback.
func DurationMinutes(text string, fallback int) int {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return fallback
	}

	total := 0
	if m := hoursRE.FindStringSubmatch(s); m != nil {
		if hours, err := strconv.ParseFloat(m[1], 64); err == nil {
			total += int(hours * 60)
		}
	}
	if m := minutesRE.FindStringSubmatch(s); m != nil {
		if mins, err := strconv.Atoi(m[1]); err == nil {
			total += mins
		}
	}

	if total <= 0 {
		return fallback
	}
	return total
}

// AddMinutes shifts a 24-hour HH:MM time forward, wrapping at midnight.
func AddMinutes(hhmm string, minutes int) (string, error) {
	t, err := time.Parse(TimeLayout, hhmm)
	if err != nil {
		return "", fmt.Errorf("temporal: invalid time %q: %w", hhmm, err)
	}
	return t.Add(time.Duration(minutes) * time.Minute).Format(TimeLayout), nil
}
