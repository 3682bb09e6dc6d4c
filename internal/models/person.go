package models

import "time"

// Person is an entry in the personnel manifest. Name is the unique key.
// Contact fields are copied onto departures at creation time, so editing a
// person later does not rewrite history.
type Person struct {
	Name            string    `json:"name"`
	Phone           string    `json:"phone,omitempty"`
	Supervisor      string    `json:"supervisor,omitempty"`
	SupervisorPhone string    `json:"supervisor_phone,omitempty"`
	Company         string    `json:"company,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
