// AngelaMos | 2026
// stats.go

package inquiry

import (
	"time"
)

type Stats struct {
	Total           int `json:"total"`
	ThisMonth       int `json:"this_month"`
	UniqueCountries int `json:"unique_countries"`
	Pending         int `json:"pending"`
	Resolved        int `json:"resolved"`
}

// ComputeStats derives the dashboard counters from a snapshot. "This month"
// is the calendar month of now as seen in loc. Countries are counted as
// stored, without case folding.
func ComputeStats(items []Inquiry, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.UTC
	}

	localNow := now.In(loc)
	year, month := localNow.Year(), localNow.Month()

	countries := make(map[string]struct{}, len(items))
	stats := Stats{Total: len(items)}

	for i := range items {
		item := &items[i]

		submitted := item.SubmittedAt.In(loc)
		if submitted.Year() == year && submitted.Month() == month {
			stats.ThisMonth++
		}

		countries[item.Country] = struct{}{}

		switch item.Status {
		case StatusResolved:
			stats.Resolved++
		default:
			stats.Pending++
		}
	}

	stats.UniqueCountries = len(countries)
	return stats
}
