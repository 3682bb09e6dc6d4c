package models

import "time"

// Group is a named set of people who depart and are monitored together.
// A group departure fans out into one Departure row per member sharing the
// group id; there is no single "group departure" record.
type Group struct {
	ID                int64     `json:"id"`
	GroupName         string    `json:"group_name"`
	Members           []string  `json:"members"`
	ResponsiblePerson string    `json:"responsible_person"`
	CreatedAt         time.Time `json:"created_at"`
}

// HasMember reports whether name is in the member list.
func (g Group) HasMember(name string) bool {
	for _, m := range g.Members {
		if m == name {
			return true
		}
	}
	return false
}
