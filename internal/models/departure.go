package models

import (
	"time"

	"github.com/jmpboard/jmp-tracker-backend/pkg/geo"
)

// Departure records one person leaving camp. It is the central entity of the
// tracker: created by logging a departure, optionally extended, and closed by
// exactly one return.
//
// A departure is active while ActualReturn is nil. Overdue is never persisted
// as an authoritative value; it is derived from ExpectedReturn at read time
// (see services.StatusEngine).
type Departure struct {
	ID          int64     `json:"id"`
	PersonName  string    `json:"person_name"`
	Destination string    `json:"destination"`
	DepartedAt  time.Time `json:"departed_at"`

	// ExpectedReturn is mutable only through the extend operation.
	ExpectedReturn time.Time `json:"expected_return"`

	// ActualReturn is set exactly once by the return operation.
	// nil means the person is still out.
	ActualReturn *time.Time `json:"actual_return,omitempty"`

	// Contact snapshot copied from the personnel manifest at departure time.
	Phone      string `json:"phone,omitempty"`
	Supervisor string `json:"supervisor,omitempty"`
	Company    string `json:"company,omitempty"`

	// ExtensionsCount increments by one per successful extend.
	ExtensionsCount int `json:"extensions_count"`

	// GroupID links departures created together as a group. Zero means an
	// individual departure.
	GroupID int64 `json:"group_id,omitempty"`

	// LastLocation is the most recent GPS fix, if any was shared.
	LastLocation *geo.Location `json:"last_location,omitempty"`
}

// Active reports whether the person is still out of camp.
func (d Departure) Active() bool {
	return d.ActualReturn == nil
}

// Extension is an append-only audit record of one extend operation.
// It is never mutated or deleted; the authoritative expected return time
// lives on the Departure itself.
type Extension struct {
	ID            int64         `json:"id"`
	DepartureID   int64         `json:"departure_id"`
	HoursExtended int           `json:"hours_extended"`
	ExtendedAt    time.Time     `json:"extended_at"`
	Location      *geo.Location `json:"gps_location,omitempty"`
}
