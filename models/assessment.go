package models

import (
	"database/sql"
	"strconv"
)

// Assessment represents the assessments table
type Assessment struct {
	CodeModule       string          `db:"code_module" json:"code_module"`
	CodePresentation sql.NullString  `db:"code_presentation" json:"code_presentation,omitempty"`
	AssessmentID     int64           `db:"id_assessment" json:"id_assessment"`
	AssessmentType   sql.NullString  `db:"assessment_type" json:"assessment_type,omitempty"`
	AssessmentDate   sql.NullString  `db:"assessment_date" json:"assessment_date,omitempty"`
	Weight           sql.NullFloat64 `db:"weight" json:"weight,omitempty"`
}

func (a *Assessment) Entity() Entity { return EntityAssessment }

func (a *Assessment) Key() []string {
	return []string{a.CodeModule, strconv.FormatInt(a.AssessmentID, 10)}
}

func (a *Assessment) Values() []any {
	return []any{a.CodeModule, a.CodePresentation, a.AssessmentID, a.AssessmentType, a.AssessmentDate, a.Weight}
}
