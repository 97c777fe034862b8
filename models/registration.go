package models

import (
	"database/sql"
	"strconv"
)

// Registration represents the registrations table. Dates are ISO YYYY-MM-DD.
type Registration struct {
	StudentID          int64          `db:"student_id" json:"student_id"`
	CodeModule         string         `db:"code_module" json:"code_module"`
	CodePresentation   string         `db:"code_presentation" json:"code_presentation"`
	DateRegistration   sql.NullString `db:"date_registration" json:"date_registration,omitempty"`
	DateUnregistration sql.NullString `db:"date_unregistration" json:"date_unregistration,omitempty"`
}

func (r *Registration) Entity() Entity { return EntityRegistration }

func (r *Registration) Key() []string {
	return []string{strconv.FormatInt(r.StudentID, 10), r.CodeModule, r.CodePresentation}
}

func (r *Registration) Values() []any {
	return []any{r.StudentID, r.CodeModule, r.CodePresentation, r.DateRegistration, r.DateUnregistration}
}
