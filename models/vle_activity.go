package models

import (
	"database/sql"
	"strconv"
)

// VleActivity represents the learning_logs table: one student's clicks on
// one VLE site on one day.
type VleActivity struct {
	CodeModule       string        `db:"code_module" json:"code_module"`
	CodePresentation string        `db:"code_presentation" json:"code_presentation"`
	StudentID        int64         `db:"student_id" json:"student_id"`
	SiteID           int64         `db:"id_site" json:"id_site"`
	ActivityDate     string        `db:"activity_date" json:"activity_date"`
	SumClick         sql.NullInt64 `db:"sum_click" json:"sum_click,omitempty"`
}

func (v *VleActivity) Entity() Entity { return EntityVleActivity }

func (v *VleActivity) Key() []string {
	return []string{
		v.CodeModule,
		v.CodePresentation,
		strconv.FormatInt(v.StudentID, 10),
		strconv.FormatInt(v.SiteID, 10),
		v.ActivityDate,
	}
}

func (v *VleActivity) Values() []any {
	return []any{v.CodeModule, v.CodePresentation, v.StudentID, v.SiteID, v.ActivityDate, v.SumClick}
}
