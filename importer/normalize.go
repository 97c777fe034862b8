package importer

import (
	"database/sql"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/nonsonwune/lmsconnector/models"
)

// Reason tags why a row was not loaded.
type Reason string

const (
	ReasonMissingKey Reason = "missing-key-field"
	ReasonBadDate    Reason = "unparsable-date"
	ReasonBadNumber  Reason = "unparsable-number"
	ReasonDuplicate  Reason = "duplicate"
)

// Rejection is a row that was counted but not loaded.
type Rejection struct {
	Line   int    `csv:"line"`
	Reason Reason `csv:"reason"`
	Field  string `csv:"field,omitempty"`
	Raw    string `csv:"raw"`
	Row    RawRow `csv:"-"`
}

// Normalizer maps one raw row to exactly one of a record or a rejection.
type Normalizer func(RawRow) (models.Record, *Rejection)

type entityMapping struct {
	normalize Normalizer
	// required lists the source columns the header must carry.
	required []string
	// optional columns are mapped when present and read as NULL otherwise.
	optional []string
}

var mappings = map[models.Entity]entityMapping{
	models.EntityStudent: {
		normalize: normalizeStudent,
		required:  []string{"id_student", "code_module", "code_presentation"},
		optional:  []string{"gender", "region", "highest_education", "imd_band", "age_band",
			"num_of_prev_attempts", "studied_credits", "disability", "final_result"},
	},
	models.EntityCourse: {
		normalize: normalizeCourse,
		required:  []string{"code_module", "code_presentation"},
		optional:  []string{"module_presentation_length"},
	},
	models.EntityRegistration: {
		normalize: normalizeRegistration,
		required:  []string{"id_student", "code_module", "code_presentation"},
		optional:  []string{"date_registration", "date_unregistration"},
	},
	models.EntityVleInfo: {
		normalize: normalizeVleInfo,
		required:  []string{"id_site", "code_module", "code_presentation"},
		optional:  []string{"activity_type", "week_from", "week_to"},
	},
	models.EntityAssessment: {
		normalize: normalizeAssessment,
		required:  []string{"code_module", "id_assessment"},
		optional:  []string{"code_presentation", "assessment_type", "date", "weight"},
	},
	models.EntityVleActivity: {
		normalize: normalizeVleActivity,
		required:  []string{"code_module", "code_presentation", "id_student", "id_site", "date"},
		optional:  []string{"sum_click"},
	},
	models.EntityAssessmentSubmission: {
		normalize: normalizeAssessmentSubmission,
		required:  []string{"id_assessment", "id_student"},
		optional:  []string{"date_submitted", "is_banked", "score"},
	},
}

// NormalizerFor returns the normalizer registered for e.
func NormalizerFor(e models.Entity) (Normalizer, bool) {
	m, ok := mappings[e]
	return m.normalize, ok
}

// Column limits of the entity tables. Optional values outside them read as
// NULL; key values outside them reject the row.
const (
	codeWidth  = 45 // module and presentation codes, free-text labels
	bandWidth  = 16
	flagWidth  = 3
	placeWidth = 64
)

type intRange struct{ min, max int64 }

var (
	int4Range = intRange{math.MinInt32, math.MaxInt32}
	int2Range = intRange{math.MinInt16, math.MaxInt16}
)

func (r intRange) contains(n int64) bool { return n >= r.min && n <= r.max }

// fits reports whether s has at most width characters.
func fits(s string, width int) bool {
	return utf8.RuneCountInString(s) <= width
}

// fields reads typed values out of a row, remembering the first key failure.
type fields struct {
	row RawRow
	rej *Rejection
}

func (f *fields) reject(reason Reason, col string) {
	if f.rej == nil {
		f.rej = &Rejection{Reason: reason, Field: col, Row: f.row}
	}
}

func (f *fields) blank(col string) bool {
	return strings.TrimSpace(f.row[col]) == ""
}

func (f *fields) keyInt(col string) int64 {
	if f.blank(col) {
		f.reject(ReasonMissingKey, col)
		return 0
	}
	n, ok := AsInteger(f.row[col])
	if !ok {
		f.reject(ReasonBadNumber, col)
	}
	return n
}

// keyText rejects values containing the dedup key separator, or too long
// for a code column, as unusable.
func (f *fields) keyText(col string) string {
	s, ok := AsTrimmedString(f.row[col])
	if !ok || strings.Contains(s, KeySeparator) || !fits(s, codeWidth) {
		f.reject(ReasonMissingKey, col)
	}
	return s
}

func (f *fields) keyDate(col string, policy DatePolicy) string {
	if f.blank(col) {
		f.reject(ReasonMissingKey, col)
		return ""
	}
	d, ok := AsDate(f.row[col], policy)
	if !ok {
		f.reject(ReasonBadDate, col)
	}
	return d
}

func (f *fields) text(col string, width int) sql.NullString {
	s, ok := AsTrimmedString(f.row[col])
	if !ok || !fits(s, width) {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func (f *fields) integer(col string) sql.NullInt64 {
	return f.bounded(col, int4Range)
}

func (f *fields) smallint(col string) sql.NullInt64 {
	return f.bounded(col, int2Range)
}

func (f *fields) bounded(col string, r intRange) sql.NullInt64 {
	n, ok := AsInteger(f.row[col])
	if !ok || !r.contains(n) {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

func (f *fields) float(col string) sql.NullFloat64 {
	n, ok := AsFloat(f.row[col])
	return sql.NullFloat64{Float64: n, Valid: ok}
}

func (f *fields) date(col string, policy DatePolicy) sql.NullString {
	d, ok := AsDate(f.row[col], policy)
	return sql.NullString{String: d, Valid: ok}
}

func (f *fields) result(rec models.Record) (models.Record, *Rejection) {
	if f.rej != nil {
		return nil, f.rej
	}
	return rec, nil
}

func normalizeStudent(row RawRow) (models.Record, *Rejection) {
	f := fields{row: row}
	return f.result(&models.Student{
		StudentID:         f.keyInt("id_student"),
		CodeModule:        f.keyText("code_module"),
		CodePresentation:  f.keyText("code_presentation"),
		Gender:            f.text("gender", flagWidth),
		Region:            f.text("region", placeWidth),
		HighestEducation:  f.text("highest_education", placeWidth),
		IMDBand:           f.text("imd_band", bandWidth),
		AgeBand:           f.text("age_band", bandWidth),
		NumOfPrevAttempts: f.integer("num_of_prev_attempts"),
		StudiedCredits:    f.integer("studied_credits"),
		Disability:        f.text("disability", flagWidth),
		FinalResult:       f.text("final_result", codeWidth),
	})
}

func normalizeCourse(row RawRow) (models.Record, *Rejection) {
	f := fields{row: row}
	return f.result(&models.Course{
		CodeModule:               f.keyText("code_module"),
		CodePresentation:         f.keyText("code_presentation"),
		ModulePresentationLength: f.integer("module_presentation_length"),
	})
}

func normalizeRegistration(row RawRow) (models.Record, *Rejection) {
	f := fields{row: row}
	return f.result(&models.Registration{
		StudentID:          f.keyInt("id_student"),
		CodeModule:         f.keyText("code_module"),
		CodePresentation:   f.keyText("code_presentation"),
		DateRegistration:   f.date("date_registration", RegistrationDates),
		DateUnregistration: f.date("date_unregistration", RegistrationDates),
	})
}

func normalizeVleInfo(row RawRow) (models.Record, *Rejection) {
	f := fields{row: row}
	return f.result(&models.VleInfo{
		SiteID:           f.keyInt("id_site"),
		CodeModule:       f.keyText("code_module"),
		CodePresentation: f.keyText("code_presentation"),
		ActivityType:     f.text("activity_type", codeWidth),
		WeekFrom:         f.integer("week_from"),
		WeekTo:           f.integer("week_to"),
	})
}

func normalizeAssessment(row RawRow) (models.Record, *Rejection) {
	f := fields{row: row}
	return f.result(&models.Assessment{
		CodeModule:       f.keyText("code_module"),
		CodePresentation: f.text("code_presentation", codeWidth),
		AssessmentID:     f.keyInt("id_assessment"),
		AssessmentType:   f.text("assessment_type", codeWidth),
		AssessmentDate:   f.date("date", AssessmentDates),
		Weight:           f.float("weight"),
	})
}

func normalizeVleActivity(row RawRow) (models.Record, *Rejection) {
	f := fields{row: row}
	return f.result(&models.VleActivity{
		CodeModule:       f.keyText("code_module"),
		CodePresentation: f.keyText("code_presentation"),
		StudentID:        f.keyInt("id_student"),
		SiteID:           f.keyInt("id_site"),
		ActivityDate:     f.keyDate("date", ActivityDates),
		SumClick:         f.integer("sum_click"),
	})
}

func normalizeAssessmentSubmission(row RawRow) (models.Record, *Rejection) {
	f := fields{row: row}
	return f.result(&models.AssessmentSubmission{
		AssessmentID:  f.keyInt("id_assessment"),
		StudentID:     f.keyInt("id_student"),
		DateSubmitted: f.date("date_submitted", ActivityDates),
		IsBanked:      f.smallint("is_banked"),
		Score:         f.float("score"),
	})
}
