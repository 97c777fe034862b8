package models

import (
	"database/sql"
	"strconv"
)

// VleInfo represents the vle_info table
type VleInfo struct {
	SiteID           int64          `db:"id_site" json:"id_site"`
	CodeModule       string         `db:"code_module" json:"code_module"`
	CodePresentation string         `db:"code_presentation" json:"code_presentation"`
	ActivityType     sql.NullString `db:"activity_type" json:"activity_type,omitempty"`
	WeekFrom         sql.NullInt64  `db:"week_from" json:"week_from,omitempty"`
	WeekTo           sql.NullInt64  `db:"week_to" json:"week_to,omitempty"`
}

func (v *VleInfo) Entity() Entity { return EntityVleInfo }

func (v *VleInfo) Key() []string {
	return []string{strconv.FormatInt(v.SiteID, 10), v.CodeModule, v.CodePresentation}
}

func (v *VleInfo) Values() []any {
	return []any{v.SiteID, v.CodeModule, v.CodePresentation, v.ActivityType, v.WeekFrom, v.WeekTo}
}
