// Package timeparse converts loosely structured (date, time, timezone)
// triples into absolute UTC instants. It is a best-effort resolver, not
// a validator: malformed input degrades to defaults instead of failing,
// so reminder creation is never blocked on ambiguous text.
package timeparse

import (
	"strconv"
	"strings"
	"time"
)

// Defaults applied when a token cannot be parsed.
const (
	DefaultHour   = 9
	DefaultMinute = 0
)

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
}

// Resolver resolves reminder date/time tokens against a user timezone.
type Resolver struct {
	defaultZone string
	now         func() time.Time
}

// NewResolver creates a Resolver falling back to defaultZone when the
// user timezone is missing or unknown.
func NewResolver(defaultZone string) *Resolver {
	return &Resolver{
		defaultZone: defaultZone,
		now:         time.Now,
	}
}

// Resolve interprets dateToken and timeToken in the user's timezone and
// returns the corresponding UTC instant. "hoje"/"today" and
// "amanhã"/"tomorrow" are recognized before general date parsing;
// anything unparseable means today. A missing or invalid time means
// 09:00 local.
func (r *Resolver) Resolve(dateToken, timeToken, timezone string) time.Time {
	loc := r.location(timezone)
	now := r.now().In(loc)

	day := resolveDate(dateToken, now)
	hour, minute := resolveClock(timeToken)

	local := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	return local.UTC()
}

func (r *Resolver) location(timezone string) *time.Location {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(r.defaultZone); err == nil {
		return loc
	}
	return time.UTC
}

func resolveDate(token string, now time.Time) time.Time {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "hoje", "today":
		return now
	case "amanhã", "amanha", "tomorrow":
		return now.AddDate(0, 0, 1)
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, strings.TrimSpace(token), now.Location()); err == nil {
			return parsed
		}
	}

	// Unparseable date degrades to today.
	return now
}

func resolveClock(token string) (hour, minute int) {
	token = strings.TrimSpace(token)
	if token == "" {
		return DefaultHour, DefaultMinute
	}

	parts := strings.SplitN(token, ":", 2)
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return DefaultHour, DefaultMinute
	}

	m := 0
	if len(parts) == 2 {
		m, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return DefaultHour, DefaultMinute
		}
	}

	if h < 0 || h > 23 || m < 0 || m > 59 {
		return DefaultHour, DefaultMinute
	}

	return h, m
}
