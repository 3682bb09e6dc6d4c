package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmpboard/jmp-tracker-backend/internal/database"
)

// Statistics is the management-page overview computed over all departures.
type Statistics struct {
	TotalDepartures  int `json:"total_departures"`
	CompletedTrips   int `json:"completed_trips"`
	CurrentlyOut     int `json:"currently_out"`
	OverdueNow       int `json:"overdue_now"`
	OverdueIncidents int `json:"overdue_incidents"` // completed trips that came back late

	AvgExtensions    float64 `json:"avg_extensions"`
	AvgTripHours     float64 `json:"avg_trip_hours"`
	LongestTripHours float64 `json:"longest_trip_hours"`

	PopularDestinations []DestinationCount `json:"popular_destinations"`
	CompanyCounts       []CompanyCount     `json:"company_counts"`
}

// DestinationCount is one entry of the popular-destinations ranking.
type DestinationCount struct {
	Destination string `json:"destination"`
	Count       int    `json:"count"`
}

// CompanyCount is the number of departures logged per company.
type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

// topDestinations caps the popular-destinations ranking.
const topDestinations = 10

// StatsService computes the statistics tab of the management page.
type StatsService struct {
	departures *database.DepartureRepository
	engine     *StatusEngine
	now        func() time.Time
}

// NewStatsService creates a new StatsService.
func NewStatsService(departures *database.DepartureRepository, engine *StatusEngine) *StatsService {
	return &StatsService{departures: departures, engine: engine, now: time.Now}
}

// Compute scans all departures once and derives every metric from the same
// snapshot and the same instant.
func (s *StatsService) Compute(ctx context.Context) (Statistics, error) {
	all, err := s.departures.ListAll(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("statistics: %w", err)
	}

	now := s.now()
	stats := Statistics{TotalDepartures: len(all)}

	destinations := make(map[string]int)
	companies := make(map[string]int)
	var totalExtensions, completedWithDuration int
	var totalTripHours float64

	for _, d := range all {
		totalExtensions += d.ExtensionsCount
		destinations[d.Destination]++
		if d.Company != "" {
			companies[d.Company]++
		}

		if d.Active() {
			stats.CurrentlyOut++
			if s.engine.TimeRemainingHours(d, now) <= 0 {
				stats.OverdueNow++
			}
			continue
		}

		stats.CompletedTrips++
		// Same boundary as live classification: returning exactly at the
		// expected time already counts as overdue.
		if !d.ActualReturn.Before(d.ExpectedReturn) {
			stats.OverdueIncidents++
		}
		hours := d.ActualReturn.Sub(d.DepartedAt).Hours()
		if hours >= 0 {
			totalTripHours += hours
			completedWithDuration++
			if hours > stats.LongestTripHours {
				stats.LongestTripHours = hours
			}
		}
	}

	if len(all) > 0 {
		stats.AvgExtensions = float64(totalExtensions) / float64(len(all))
	}
	if completedWithDuration > 0 {
		stats.AvgTripHours = totalTripHours / float64(completedWithDuration)
	}

	stats.PopularDestinations = rankDestinations(destinations)
	stats.CompanyCounts = rankCompanies(companies)
	return stats, nil
}

func rankDestinations(counts map[string]int) []DestinationCount {
	out := make([]DestinationCount, 0, len(counts))
	for dest, n := range counts {
		out = append(out, DestinationCount{Destination: dest, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Destination < out[j].Destination
	})
	if len(out) > topDestinations {
		out = out[:topDestinations]
	}
	return out
}

func rankCompanies(counts map[string]int) []CompanyCount {
	out := make([]CompanyCount, 0, len(counts))
	for company, n := range counts {
		out = append(out, CompanyCount{Company: company, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Company < out[j].Company
	})
	return out
}
