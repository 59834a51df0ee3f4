// Package filter derives the visible subset of a list view from the full
// in-memory record set. It is a pure function of (records, criteria) and is
// re-applied wholesale on every change; nothing here is incremental.
package filter

import (
	"strings"
	"time"
)

// All is the sentinel equality value meaning "no constraint for this field".
const All = "All"

// Criteria is the combined search text, equality constraints and date range
// a list view currently applies. It is rebuilt on every user interaction and
// never persisted.
type Criteria struct {
	Search   string
	Equals   map[string]string
	DateFrom string // inclusive lower bound, YYYY-MM-DD, empty = unbounded
	DateTo   string // inclusive upper bound, YYYY-MM-DD, empty = unbounded
}

// Schema tells the engine how to read a record type: which fields the text
// search scans, how equality fields are looked up, and which timestamp the
// date range compares against (as received, no timezone conversion).
type Schema[T any] struct {
	SearchFields func(T) []string
	Field        func(T, string) string
	Timestamp    func(T) string
}

// Apply narrows records through three stages in fixed order: text search,
// equality constraints (AND across fields), then the date range. Each stage
// only ever narrows the previous stage's output. The input slice is not
// modified and the result is never nil.
func Apply[T any](records []T, c Criteria, s Schema[T]) []T {
	out := make([]T, 0, len(records))

	query := strings.ToLower(strings.TrimSpace(c.Search))
	fromOK, from := dayStart(c.DateFrom)
	toOK, to := dayEnd(c.DateTo)

	for _, rec := range records {
		if query != "" && !matchesSearch(rec, query, s) {
			continue
		}
		if !matchesEquals(rec, c.Equals, s) {
			continue
		}
		if (fromOK || toOK) && !matchesRange(rec, fromOK, from, toOK, to, s) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matchesSearch[T any](rec T, query string, s Schema[T]) bool {
	if s.SearchFields == nil {
		return false
	}
	for _, f := range s.SearchFields(rec) {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func matchesEquals[T any](rec T, equals map[string]string, s Schema[T]) bool {
	for field, want := range equals {
		if want == "" || want == All {
			continue
		}
		if s.Field == nil || s.Field(rec, field) != want {
			return false
		}
	}
	return true
}

// matchesRange compares the record's own timestamp representation against the
// inclusive bounds. Records whose timestamp cannot be parsed are excluded
// whenever a bound is active.
func matchesRange[T any](rec T, fromOK bool, from time.Time, toOK bool, to time.Time, s Schema[T]) bool {
	if s.Timestamp == nil {
		return false
	}
	ts, ok := parseTimestamp(s.Timestamp(rec))
	if !ok {
		return false
	}
	if fromOK && ts.Before(from) {
		return false
	}
	if toOK && ts.After(to) {
		return false
	}
	return true
}

// timestampLayouts covers the representations the backend emits. All are
// parsed in UTC so no timezone conversion shifts the date component.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

func parseTimestamp(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dayStart returns 00:00:00.000 of the given calendar date.
func dayStart(date string) (bool, time.Time) {
	if date == "" {
		return false, time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return false, time.Time{}
	}
	return true, t
}

// dayEnd returns 23:59:59.999 of the given calendar date.
func dayEnd(date string) (bool, time.Time) {
	ok, t := dayStart(date)
	if !ok {
		return false, time.Time{}
	}
	return true, t.Add(24*time.Hour - time.Millisecond)
}
