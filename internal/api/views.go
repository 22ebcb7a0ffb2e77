package api

import (
	"errors"
	"strings"

	"example.com/timetracker/internal/analytics"
	"example.com/timetracker/internal/domain"
	"example.com/timetracker/internal/ledger"
)

// AddActivityRequest is the payload for POST /v1/activities.
type AddActivityRequest struct {
	Date        string `json:"date,omitempty"` // defaults to the session's current day
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	DurationMin int    `json:"duration_min"`
}

// Validate ensures request correctness. The ledger re-checks these plus the
// daily cap before any I/O.
func (r AddActivityRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.DurationMin <= 0 {
		return errors.New("duration_min must be > 0")
	}
	return nil
}

// UpdateActivityRequest is the payload for PATCH /v1/activities/{id}.
type UpdateActivityRequest struct {
	Date        string `json:"date,omitempty"`
	Name        string `json:"name"`
	DurationMin int    `json:"duration_min"`
}

// Validate ensures request correctness.
func (r UpdateActivityRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.DurationMin <= 0 {
		return errors.New("duration_min must be > 0")
	}
	return nil
}

// ActivityView exposes one ledger entry.
type ActivityView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	DurationMin int    `json:"duration_min"`
	CreatedAt   int64  `json:"created_at"`
}

// DayView packages the ledger state for one day.
type DayView struct {
	UserID           string         `json:"user_id"`
	Date             string         `json:"date"`
	Provisional      bool           `json:"provisional"`
	Activities       []ActivityView `json:"activities"`
	TotalMinutes     int            `json:"total_minutes"`
	RemainingMinutes int            `json:"remaining_minutes"`
}

// CategoryTotalView is one slice of the category breakdown.
type CategoryTotalView struct {
	Category string `json:"category"`
	Minutes  int    `json:"minutes"`
}

// TimelineEntryView is one timeline row.
type TimelineEntryView struct {
	Name        string `json:"name"`
	DurationMin int    `json:"duration_min"`
	Category    string `json:"category"`
}

// DashboardView is the analyse-intent response.
type DashboardView struct {
	UserID             string              `json:"user_id"`
	Date               string              `json:"date"`
	Provisional        bool                `json:"provisional"`
	TotalMinutes       int                 `json:"total_minutes"`
	RemainingMinutes   int                 `json:"remaining_minutes"`
	TotalHours         float64             `json:"total_hours"`
	ActivityCount      int                 `json:"activity_count"`
	TopCategory        string              `json:"top_category,omitempty"`
	TopCategoryMinutes int                 `json:"top_category_minutes,omitempty"`
	CategoryTotals     []CategoryTotalView `json:"category_totals"`
	Timeline           []TimelineEntryView `json:"timeline"`
}

func toActivityView(a domain.Activity) ActivityView {
	return ActivityView{
		ID:          a.ID,
		Name:        a.Name,
		Category:    a.Category,
		DurationMin: a.DurationMin,
		CreatedAt:   a.CreatedAt,
	}
}

func toDayView(led *ledger.Ledger, provisional bool) DayView {
	scope := led.Scope()
	snapshot := led.Snapshot()

	views := make([]ActivityView, 0, len(snapshot))
	for _, a := range snapshot {
		views = append(views, toActivityView(a))
	}

	total := domain.TotalMinutes(snapshot)
	return DayView{
		UserID:           scope.UserID,
		Date:             scope.Day,
		Provisional:      provisional,
		Activities:       views,
		TotalMinutes:     total,
		RemainingMinutes: domain.DayCapMinutes - total,
	}
}

func toDashboardView(scope domain.Scope, provisional bool, d analytics.Dashboard) DashboardView {
	totals := make([]CategoryTotalView, 0, len(d.CategoryTotals))
	for _, ct := range d.CategoryTotals {
		totals = append(totals, CategoryTotalView{Category: ct.Category, Minutes: ct.Minutes})
	}
	timeline := make([]TimelineEntryView, 0, len(d.Timeline))
	for _, entry := range d.Timeline {
		timeline = append(timeline, TimelineEntryView{
			Name:        entry.Name,
			DurationMin: entry.DurationMin,
			Category:    entry.Category,
		})
	}

	return DashboardView{
		UserID:             scope.UserID,
		Date:               scope.Day,
		Provisional:        provisional,
		TotalMinutes:       d.TotalMinutes,
		RemainingMinutes:   d.RemainingMinutes,
		TotalHours:         d.TotalHours,
		ActivityCount:      d.ActivityCount,
		TopCategory:        d.TopCategory,
		TopCategoryMinutes: d.TopCategoryMinutes,
		CategoryTotals:     totals,
		Timeline:           timeline,
	}
}
