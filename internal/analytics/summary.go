// Package analytics derives dashboard aggregates from a snapshot of one day's
// activities. All functions are pure and safe to recompute on every render.
package analytics

import (
	"math"

	"example.com/timetracker/internal/domain"
)

// CategoryTotal pairs a category with its summed minutes.
type CategoryTotal struct {
	Category string
	Minutes  int
}

// TimelineEntry is one row of the day timeline, in ledger insertion order.
type TimelineEntry struct {
	Name        string
	DurationMin int
	Category    string
}

// Dashboard is the aggregate view handed to the presentation layers.
type Dashboard struct {
	TotalMinutes       int
	RemainingMinutes   int
	TotalHours         float64
	ActivityCount      int
	TopCategory        string
	TopCategoryMinutes int
	CategoryTotals     []CategoryTotal
	Timeline           []TimelineEntry
}

// CategoryTotals sums durations per category. Activities without a category
// fold into the "Other" bucket. The result is ordered by first occurrence in
// the snapshot so downstream tie-breaks are deterministic.
func CategoryTotals(activities []domain.Activity) []CategoryTotal {
	totals := make(map[string]int, len(activities))
	order := make([]string, 0, len(activities))

	for _, a := range activities {
		category := a.Category
		if category == "" {
			category = domain.CategoryOther
		}
		if _, seen := totals[category]; !seen {
			order = append(order, category)
		}
		totals[category] += a.DurationMin
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, category := range order {
		out = append(out, CategoryTotal{Category: category, Minutes: totals[category]})
	}
	return out
}

// TopCategory returns the category with the largest summed duration and that
// sum. Ties are broken by first occurrence. An empty snapshot yields ("", 0).
func TopCategory(activities []domain.Activity) (string, int) {
	top := ""
	topMinutes := 0
	for _, ct := range CategoryTotals(activities) {
		if ct.Minutes > topMinutes {
			top = ct.Category
			topMinutes = ct.Minutes
		}
	}
	return top, topMinutes
}

// Timeline projects the snapshot into (name, duration, category) rows in
// insertion order. No re-sorting is applied.
func Timeline(activities []domain.Activity) []TimelineEntry {
	out := make([]TimelineEntry, 0, len(activities))
	for _, a := range activities {
		category := a.Category
		if category == "" {
			category = domain.CategoryOther
		}
		out = append(out, TimelineEntry{Name: a.Name, DurationMin: a.DurationMin, Category: category})
	}
	return out
}

// BuildDashboard computes the full dashboard for a snapshot. An empty snapshot
// produces an explicitly empty dashboard, not an error.
func BuildDashboard(activities []domain.Activity) Dashboard {
	total := domain.TotalMinutes(activities)
	top, topMinutes := TopCategory(activities)

	return Dashboard{
		TotalMinutes:       total,
		RemainingMinutes:   domain.DayCapMinutes - total,
		TotalHours:         roundHours(total),
		ActivityCount:      len(activities),
		TopCategory:        top,
		TopCategoryMinutes: topMinutes,
		CategoryTotals:     CategoryTotals(activities),
		Timeline:           Timeline(activities),
	}
}

// roundHours converts minutes to hours with one decimal, matching the
// dashboard display format.
func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*10) / 10
}
