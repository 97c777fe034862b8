package models

import "database/sql"

// Course represents the courses table
type Course struct {
	CodeModule               string        `db:"code_module" json:"code_module"`
	CodePresentation         string        `db:"code_presentation" json:"code_presentation"`
	ModulePresentationLength sql.NullInt64 `db:"module_presentation_length" json:"module_presentation_length,omitempty"`
}

func (c *Course) Entity() Entity { return EntityCourse }

func (c *Course) Key() []string { return []string{c.CodeModule, c.CodePresentation} }

func (c *Course) Values() []any {
	return []any{c.CodeModule, c.CodePresentation, c.ModulePresentationLength}
}
