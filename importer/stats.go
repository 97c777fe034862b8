package importer

import (
	"log"
	"sort"
)

// Stats are the running counts of one import run.
type Stats struct {
	Read       int // data lines read
	Accepted   int // records that passed normalization and dedup
	Rejected   int // rows dropped by normalization
	Duplicates int // rows dropped by the in-run dedup filter
	Inserted   int64
	Skipped    int64 // accepted rows the store already held
	Batches    int
	Reasons    map[Reason]int
}

func (s *Stats) addRejection(r Reason) {
	if s.Reasons == nil {
		s.Reasons = make(map[Reason]int)
	}
	s.Reasons[r]++
	if r == ReasonDuplicate {
		s.Duplicates++
		return
	}
	s.Rejected++
}

func (s Stats) clone() Stats {
	out := s
	if s.Reasons != nil {
		out.Reasons = make(map[Reason]int, len(s.Reasons))
		for k, v := range s.Reasons {
			out.Reasons[k] = v
		}
	}
	return out
}

// LogSummary writes the counts in the importer's log format.
func (s Stats) LogSummary(prefix string) {
	log.Printf("%s: read %d, accepted %d, rejected %d, duplicates %d, inserted %d, skipped %d",
		prefix, s.Read, s.Accepted, s.Rejected, s.Duplicates, s.Inserted, s.Skipped)

	reasons := make([]string, 0, len(s.Reasons))
	for r := range s.Reasons {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		log.Printf("%s:   - %s: %d", prefix, r, s.Reasons[Reason(r)])
	}
}
