package models

// DepartureStatus is the transient read-time classification of an active
// departure. It is computed, never persisted.
type DepartureStatus string

const (
	StatusOverdue DepartureStatus = "overdue"
	StatusDueSoon DepartureStatus = "due_soon"
	StatusOnTime  DepartureStatus = "on_time"
)

// ActiveDeparture is a departure with its derived status fields, as served to
// the dashboard and arrivals surfaces. TimeRemainingHours is signed; negative
// means overdue by that many hours.
type ActiveDeparture struct {
	Departure
	TimeRemainingHours float64         `json:"time_remaining_hours"`
	IsOverdue          bool            `json:"is_overdue"`
	Status             DepartureStatus `json:"status"`
}

// GroupStatus is the aggregated view of one group's active departures.
// The worst-case member dominates: the group is overdue if any active member
// is overdue, and its effective time remaining is the minimum over members.
type GroupStatus struct {
	GroupID            int64             `json:"group_id"`
	GroupName          string            `json:"group_name"`
	ResponsiblePerson  string            `json:"responsible_person"`
	Members            []ActiveDeparture `json:"members"`
	TimeRemainingHours float64           `json:"time_remaining_hours"`
	IsOverdue          bool              `json:"is_overdue"`
	Status             DepartureStatus   `json:"status"`
}
