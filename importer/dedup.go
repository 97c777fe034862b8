package importer

import (
	"strings"

	"github.com/nonsonwune/lmsconnector/models"
)

// KeySeparator joins natural key fields. Key text fields containing it are
// rejected during normalization, so joined keys cannot collide.
const KeySeparator = "\x1f"

// DedupKey builds the composite natural key of rec.
func DedupKey(rec models.Record) string {
	return strings.Join(rec.Key(), KeySeparator)
}

// Deduper drops repeats of a natural key within one import run. It is owned
// by a single run and is not safe for concurrent use.
type Deduper struct {
	seen       map[string]struct{}
	duplicates int
}

func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Accept reports whether rec is the first record with its key in this run.
func (d *Deduper) Accept(rec models.Record) bool {
	key := DedupKey(rec)
	if _, ok := d.seen[key]; ok {
		d.duplicates++
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Duplicates returns how many records Accept has refused.
func (d *Deduper) Duplicates() int { return d.duplicates }
