package importer

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// autoAcceptConfidence is the similarity above which a misspelled header is
// mapped without complaint. Below it the column counts as missing.
const autoAcceptConfidence = 0.8

// ColumnMatch is a candidate header for an expected source column.
type ColumnMatch struct {
	SourceColumn      string
	DestinationColumn string
	Confidence        float64
}

// columnMapping maps an expected source column to the header that carries it.
type columnMapping map[string]string

// apply rewrites row so every expected column is keyed by its canonical name.
func (m columnMapping) apply(row RawRow) RawRow {
	for canonical, actual := range m {
		if canonical == actual {
			continue
		}
		if v, ok := row[actual]; ok {
			row[canonical] = v
		}
	}
	return row
}

func (m columnMapping) renamed() bool {
	for canonical, actual := range m {
		if canonical != actual {
			return true
		}
	}
	return false
}

// mapHeaders resolves the expected columns against headers. Required columns
// that cannot be matched fail the run with HEADER_INVALID; the message names
// the closest header when there is one.
func mapHeaders(headers, required, optional []string) (columnMapping, error) {
	mapping := make(columnMapping, len(required)+len(optional))
	var missing []string

	for _, col := range required {
		if i := getColumnIndex(headers, col); i != -1 {
			mapping[col] = headers[i]
			continue
		}
		matches := findBestColumnMatch(col, headers)
		if len(matches) > 0 && matches[0].Confidence > autoAcceptConfidence {
			mapping[col] = matches[0].SourceColumn
			log.Printf("Automatically mapped '%s' to '%s' (%.2f%% confidence)",
				col, matches[0].SourceColumn, matches[0].Confidence*100)
			continue
		}
		if len(matches) > 0 {
			missing = append(missing, fmt.Sprintf("%s (did you mean %q?)", col, matches[0].SourceColumn))
			continue
		}
		missing = append(missing, col)
	}

	for _, col := range optional {
		if i := getColumnIndex(headers, col); i != -1 {
			mapping[col] = headers[i]
		}
	}

	if len(missing) > 0 {
		return nil, newError(CodeHeaderInvalid,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}
	return mapping, nil
}

// findBestColumnMatch ranks headers by similarity to column.
func findBestColumnMatch(column string, headers []string) []ColumnMatch {
	matches := make([]ColumnMatch, 0)
	want := normalizeHeader(column)

	for _, header := range headers {
		got := normalizeHeader(header)
		maxLen := max(len(want), len(got))
		if maxLen == 0 {
			continue
		}
		confidence := 1.0 - float64(levenshteinDistance(want, got))/float64(maxLen)
		if confidence > 0.6 {
			matches = append(matches, ColumnMatch{
				SourceColumn:      header,
				DestinationColumn: column,
				Confidence:        confidence,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, " ", "")
}

// getColumnIndex finds columnName in headers ignoring case, spaces and
// underscores. It returns -1 when absent.
func getColumnIndex(headers []string, columnName string) int {
	for i, header := range headers {
		if header == columnName {
			return i
		}
	}
	want := normalizeHeader(columnName)
	for i, header := range headers {
		if normalizeHeader(header) == want {
			return i
		}
	}
	return -1
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			if s1[i-1] == s2[j-1] {
				matrix[i][j] = matrix[i-1][j-1]
			} else {
				matrix[i][j] = min(
					matrix[i-1][j]+1,   // deletion
					matrix[i][j-1]+1,   // insertion
					matrix[i-1][j-1]+1, // substitution
				)
			}
		}
	}

	return matrix[len(s1)][len(s2)]
}
