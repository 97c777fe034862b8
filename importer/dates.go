package importer

import (
	"strconv"
	"strings"
	"time"
)

// DateEncoding is one way a source file may spell a date.
type DateEncoding int

const (
	// EncodingISO is YYYY-MM-DD, accepted unchanged.
	EncodingISO DateEncoding = iota
	// EncodingTwoDigitYear is YY-MM-DD; YY >= 70 is 19YY, otherwise 20YY.
	EncodingTwoDigitYear
	// EncodingDayOffset is a day count from 1970-01-01 UTC.
	EncodingDayOffset
	// EncodingGeneric tries a handful of common calendar layouts.
	EncodingGeneric
)

const (
	isoLayout    = "2006-01-02"
	centuryPivot = 70
	maxDayOffset = 36525 // ~100 years
	minYear      = 1     // PostgreSQL DATE has no year 0
)

var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

var genericLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
}

// DatePolicy is the ordered list of encodings an entity accepts.
type DatePolicy []DateEncoding

var (
	// RegistrationDates: registration tables use ISO and dashed two-digit years.
	RegistrationDates = DatePolicy{EncodingISO, EncodingTwoDigitYear, EncodingGeneric}
	// ActivityDates: clickstream and submission logs use day offsets.
	ActivityDates = DatePolicy{EncodingISO, EncodingDayOffset, EncodingGeneric}
	// AssessmentDates accepts every encoding; the patterns do not overlap.
	AssessmentDates = DatePolicy{EncodingISO, EncodingTwoDigitYear, EncodingDayOffset, EncodingGeneric}
)

// Resolve returns text as an ISO date, trying each encoding in order.
func (p DatePolicy) Resolve(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", false
	}
	for _, enc := range p {
		var (
			out string
			ok  bool
		)
		switch enc {
		case EncodingISO:
			out, ok = parseISO(s)
		case EncodingTwoDigitYear:
			out, ok = parseTwoDigitYear(s)
		case EncodingDayOffset:
			out, ok = parseDayOffset(s)
		case EncodingGeneric:
			out, ok = parseGeneric(s)
		}
		if ok && storable(out) {
			return out, true
		}
	}
	return "", false
}

// storable reports whether an ISO date has a year the DATE column accepts.
func storable(iso string) bool {
	t, err := time.Parse(isoLayout, iso)
	return err == nil && t.Year() >= minYear
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// dashed reports whether s is digit groups of the given widths joined by '-'.
func dashed(s string, widths ...int) bool {
	parts := strings.Split(s, "-")
	if len(parts) != len(widths) {
		return false
	}
	for i, p := range parts {
		if len(p) != widths[i] || !isDigits(p) {
			return false
		}
	}
	return true
}

func parseISO(s string) (string, bool) {
	if !dashed(s, 4, 2, 2) {
		return "", false
	}
	if _, err := time.Parse(isoLayout, s); err != nil {
		return "", false
	}
	return s, true
}

func parseTwoDigitYear(s string) (string, bool) {
	if !dashed(s, 2, 2, 2) {
		return "", false
	}
	yy, _ := strconv.Atoi(s[:2])
	year := 2000 + yy
	if yy >= centuryPivot {
		year = 1900 + yy
	}
	iso := strconv.Itoa(year) + s[2:]
	if _, err := time.Parse(isoLayout, iso); err != nil {
		return "", false
	}
	return iso, true
}

func parseDayOffset(s string) (string, bool) {
	if !isDigits(s) {
		return "", false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n >= maxDayOffset {
		return "", false
	}
	return epoch.AddDate(0, 0, n).Format(isoLayout), true
}

func parseGeneric(s string) (string, bool) {
	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoLayout), true
		}
	}
	return "", false
}
