package importer

import (
	"math"
	"strconv"
	"strings"
)

// The As* helpers never fail: unparsable or blank input reports ok == false.

// AsInteger parses a base-10 integer.
func AsInteger(text string) (int64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// AsFloat parses a finite decimal number.
func AsFloat(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// AsTrimmedString trims surrounding whitespace; an empty result is absent.
func AsTrimmedString(text string) (string, bool) {
	s := strings.TrimSpace(text)
	return s, s != ""
}

// AsDate resolves text to an ISO date using the given policy.
func AsDate(text string, policy DatePolicy) (string, bool) {
	return policy.Resolve(text)
}
