package models

import (
	"fmt"
	"sort"
	"strings"
)

// Entity identifies one kind of dataset extract and the table it loads into.
type Entity string

const (
	EntityStudent              Entity = "student"
	EntityCourse               Entity = "course"
	EntityRegistration         Entity = "registration"
	EntityVleInfo              Entity = "vle_info"
	EntityAssessment           Entity = "assessment"
	EntityVleActivity          Entity = "vle_activity"
	EntityAssessmentSubmission Entity = "assessment_submission"
)

// Strategy is the load path an entity uses.
type Strategy string

const (
	// StrategyBatch loads bounded multi-row INSERT statements.
	StrategyBatch Strategy = "batch"
	// StrategyBulk streams the whole run through a server-side COPY.
	StrategyBulk Strategy = "bulk"
)

// Schema describes the persisted layout of an entity.
type Schema struct {
	Entity   Entity
	Table    string
	Columns  []string // insert order, matches Record.Values
	Key      []string // natural key columns, a subset of Columns
	Strategy Strategy
}

// KeyIndexes returns the positions of the natural key columns within Columns.
func (s Schema) KeyIndexes() []int {
	idx := make([]int, 0, len(s.Key))
	for _, k := range s.Key {
		for i, c := range s.Columns {
			if c == k {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}

var schemas = map[Entity]Schema{
	EntityStudent: {
		Entity: EntityStudent,
		Table:  "students",
		Columns: []string{
			"student_id", "code_module", "code_presentation", "gender", "region",
			"highest_education", "imd_band", "age_band", "num_of_prev_attempts",
			"studied_credits", "disability", "final_result",
		},
		Key:      []string{"student_id", "code_module", "code_presentation"},
		Strategy: StrategyBatch,
	},
	EntityCourse: {
		Entity:   EntityCourse,
		Table:    "courses",
		Columns:  []string{"code_module", "code_presentation", "module_presentation_length"},
		Key:      []string{"code_module", "code_presentation"},
		Strategy: StrategyBatch,
	},
	EntityRegistration: {
		Entity: EntityRegistration,
		Table:  "registrations",
		Columns: []string{
			"student_id", "code_module", "code_presentation",
			"date_registration", "date_unregistration",
		},
		Key:      []string{"student_id", "code_module", "code_presentation"},
		Strategy: StrategyBatch,
	},
	EntityVleInfo: {
		Entity: EntityVleInfo,
		Table:  "vle_info",
		Columns: []string{
			"id_site", "code_module", "code_presentation", "activity_type", "week_from", "week_to",
		},
		Key:      []string{"id_site", "code_module", "code_presentation"},
		Strategy: StrategyBatch,
	},
	EntityAssessment: {
		Entity: EntityAssessment,
		Table:  "assessments",
		Columns: []string{
			"code_module", "code_presentation", "id_assessment", "assessment_type",
			"assessment_date", "weight",
		},
		Key:      []string{"code_module", "id_assessment"},
		Strategy: StrategyBatch,
	},
	EntityVleActivity: {
		Entity: EntityVleActivity,
		Table:  "learning_logs",
		Columns: []string{
			"code_module", "code_presentation", "student_id", "id_site", "activity_date", "sum_click",
		},
		Key:      []string{"code_module", "code_presentation", "student_id", "id_site", "activity_date"},
		Strategy: StrategyBulk,
	},
	EntityAssessmentSubmission: {
		Entity: EntityAssessmentSubmission,
		Table:  "student_assessments",
		Columns: []string{
			"id_assessment", "student_id", "date_submitted", "is_banked", "score",
		},
		Key:      []string{"id_assessment", "student_id"},
		Strategy: StrategyBulk,
	},
}

// aliases maps the upload route names and table names onto entities.
var aliases = map[string]Entity{
	"student-info":        EntityStudent,
	"students":            EntityStudent,
	"studentinfo":         EntityStudent,
	"courses":             EntityCourse,
	"registrations":       EntityRegistration,
	"vle-info":            EntityVleInfo,
	"vle":                 EntityVleInfo,
	"assessments":         EntityAssessment,
	"student-vle":         EntityVleActivity,
	"studentvle":          EntityVleActivity,
	"learning-logs":       EntityVleActivity,
	"learning_logs":       EntityVleActivity,
	"student-assessment":  EntityAssessmentSubmission,
	"studentassessment":   EntityAssessmentSubmission,
	"student_assessments": EntityAssessmentSubmission,
}

// Lookup returns the schema registered for e.
func Lookup(e Entity) (Schema, bool) {
	s, ok := schemas[e]
	return s, ok
}

// LookupTable returns the schema whose table is named table.
func LookupTable(table string) (Schema, bool) {
	for _, s := range schemas {
		if s.Table == table {
			return s, true
		}
	}
	return Schema{}, false
}

// ParseEntity resolves an entity selector. Canonical names, upload route
// names and table names are all accepted, case-insensitively.
func ParseEntity(s string) (Entity, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if _, ok := schemas[Entity(name)]; ok {
		return Entity(name), nil
	}
	if e, ok := aliases[name]; ok {
		return e, nil
	}
	if e, ok := aliases[strings.ReplaceAll(name, "_", "-")]; ok {
		return e, nil
	}
	return "", fmt.Errorf("unknown entity type: %q", s)
}

// Aliases returns the alternative selectors for e, sorted.
func Aliases(e Entity) []string {
	var out []string
	for name, target := range aliases {
		if target == e {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Entities lists every registered entity in a stable order.
func Entities() []Entity {
	out := make([]Entity, 0, len(schemas))
	for e := range schemas {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Record is one normalized row ready for loading.
type Record interface {
	Entity() Entity
	// Key returns the natural key fields in text form, in Schema.Key order.
	Key() []string
	// Values returns the column values in Schema.Columns order.
	Values() []any
}

// New returns an empty record of the entity's concrete type, suitable for
// scanning a row into.
func New(e Entity) (Record, error) {
	switch e {
	case EntityStudent:
		return &Student{}, nil
	case EntityCourse:
		return &Course{}, nil
	case EntityRegistration:
		return &Registration{}, nil
	case EntityVleInfo:
		return &VleInfo{}, nil
	case EntityAssessment:
		return &Assessment{}, nil
	case EntityVleActivity:
		return &VleActivity{}, nil
	case EntityAssessmentSubmission:
		return &AssessmentSubmission{}, nil
	}
	return nil, fmt.Errorf("unknown entity type: %q", e)
}
