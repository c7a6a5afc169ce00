package diary

import (
	"fmt"
	"strings"
	"time"
)

// ViewMode selects which entries a view displays.
type ViewMode int

const (
	// ModeFullHistory shows every entry in store order.
	ModeFullHistory ViewMode = iota
	// ModeSingleDate shows the entries written on one calendar date.
	ModeSingleDate
	// ModeRecent shows the entries of the last RecentDays calendar days.
	ModeRecent
)

// RecentDays is the window of ModeRecent, today included.
const RecentDays = 7

func (m ViewMode) String() string {
	switch m {
	case ModeSingleDate:
		return "date"
	case ModeRecent:
		return "recent"
	default:
		return "history"
	}
}

// ParseViewMode maps the query-string form of a mode. Empty means full history.
func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "history", "full", "full_history":
		return ModeFullHistory, nil
	case "date", "single_date":
		return ModeSingleDate, nil
	case "recent", "week":
		return ModeRecent, nil
	default:
		return ModeFullHistory, fmt.Errorf("unknown view mode %q", s)
	}
}

// SelectView returns the entries to render for mode and selectedDate.
//
// In ModeSingleDate, an entry matches when its CreatedAt falls on the same
// year, month and day as selectedDate, both read in selectedDate's location.
// In ModeRecent, selectedDate is today and an entry matches when its calendar
// date is no earlier than RecentDays-1 days before it.
// A nil selectedDate falls back to the full history. The input slice is
// never modified; the result is always a fresh, non-nil slice.
func SelectView(entries []Entry, mode ViewMode, selectedDate *time.Time) []Entry {
	if mode == ModeFullHistory || selectedDate == nil {
		out := make([]Entry, len(entries))
		copy(out, entries)
		return out
	}
	if mode == ModeRecent {
		return selectSince(entries, *selectedDate, RecentDays)
	}

	loc := selectedDate.Location()
	y, m, d := selectedDate.Date()
	out := make([]Entry, 0)
	for _, e := range entries {
		ey, em, ed := e.CreatedAt.In(loc).Date()
		if ey == y && em == m && ed == d {
			out = append(out, e)
		}
	}
	return out
}

func selectSince(entries []Entry, today time.Time, days int) []Entry {
	loc := today.Location()
	cutoff := dateOnly(today, loc).AddDate(0, 0, -(days - 1))
	out := make([]Entry, 0)
	for _, e := range entries {
		if !dateOnly(e.CreatedAt, loc).Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// LikedOnly returns the liked entries, preserving order.
func LikedOnly(entries []Entry) []Entry {
	out := make([]Entry, 0)
	for _, e := range entries {
		if e.Liked {
			out = append(out, e)
		}
	}
	return out
}
