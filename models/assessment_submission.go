package models

import (
	"database/sql"
	"strconv"
)

// AssessmentSubmission represents the student_assessments table
type AssessmentSubmission struct {
	AssessmentID  int64           `db:"id_assessment" json:"id_assessment"`
	StudentID     int64           `db:"student_id" json:"student_id"`
	DateSubmitted sql.NullString  `db:"date_submitted" json:"date_submitted,omitempty"`
	IsBanked      sql.NullInt64   `db:"is_banked" json:"is_banked,omitempty"`
	Score         sql.NullFloat64 `db:"score" json:"score,omitempty"`
}

func (a *AssessmentSubmission) Entity() Entity { return EntityAssessmentSubmission }

func (a *AssessmentSubmission) Key() []string {
	return []string{strconv.FormatInt(a.AssessmentID, 10), strconv.FormatInt(a.StudentID, 10)}
}

func (a *AssessmentSubmission) Values() []any {
	return []any{a.AssessmentID, a.StudentID, a.DateSubmitted, a.IsBanked, a.Score}
}
