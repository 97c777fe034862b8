package models

import (
	"database/sql"
	"strconv"
)

// Student represents the students table
type Student struct {
	StudentID         int64          `db:"student_id" json:"student_id"`
	CodeModule        string         `db:"code_module" json:"code_module"`
	CodePresentation  string         `db:"code_presentation" json:"code_presentation"`
	Gender            sql.NullString `db:"gender" json:"gender,omitempty"`
	Region            sql.NullString `db:"region" json:"region,omitempty"`
	HighestEducation  sql.NullString `db:"highest_education" json:"highest_education,omitempty"`
	IMDBand           sql.NullString `db:"imd_band" json:"imd_band,omitempty"`
	AgeBand           sql.NullString `db:"age_band" json:"age_band,omitempty"`
	NumOfPrevAttempts sql.NullInt64  `db:"num_of_prev_attempts" json:"num_of_prev_attempts,omitempty"`
	StudiedCredits    sql.NullInt64  `db:"studied_credits" json:"studied_credits,omitempty"`
	Disability        sql.NullString `db:"disability" json:"disability,omitempty"`
	FinalResult       sql.NullString `db:"final_result" json:"final_result,omitempty"`
}

func (s *Student) Entity() Entity { return EntityStudent }

func (s *Student) Key() []string {
	return []string{strconv.FormatInt(s.StudentID, 10), s.CodeModule, s.CodePresentation}
}

func (s *Student) Values() []any {
	return []any{
		s.StudentID, s.CodeModule, s.CodePresentation, s.Gender, s.Region,
		s.HighestEducation, s.IMDBand, s.AgeBand, s.NumOfPrevAttempts,
		s.StudiedCredits, s.Disability, s.FinalResult,
	}
}
