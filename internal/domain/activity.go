// Package domain defines the core model for the daily activity ledger.
package domain

import (
	"strings"
	"time"
)

// DayCapMinutes is the hard ceiling for the summed duration of one day's
// activities. A calendar day has 1440 minutes; no mutation may push a scope
// past it.
const DayCapMinutes = 1440

// DayLayout is the canonical date format for a ledger scope.
const DayLayout = "2006-01-02"

// CategoryOther is the bucket uncategorised activities fold into.
const CategoryOther = "Other"

// Categories lists the canonical activity categories offered by the
// presentation layers. The ledger itself accepts any non-empty string.
var Categories = []string{"Work", "Rest", "Exercise", "Learning", "Leisure", CategoryOther}

// Activity is one named entry in a day's ledger. The ID is assigned by the
// remote store on create and is unique within a scope.
type Activity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	DurationMin int    `json:"duration_min"`
	CreatedAt   int64  `json:"created_at"` // epoch milliseconds
}

// ActivityUpdate carries the editable fields of an activity.
type ActivityUpdate struct {
	Name        string
	DurationMin int
}

// Scope identifies one user's activity list for one calendar day.
type Scope struct {
	UserID string
	Day    string // YYYY-MM-DD
}

// IsZero reports whether the scope is unset.
func (s Scope) IsZero() bool {
	return s.UserID == "" && s.Day == ""
}

// Complete reports whether both scope components are set. Loads and mutations
// require a complete scope.
func (s Scope) Complete() bool {
	return s.UserID != "" && s.Day != ""
}

func (s Scope) String() string {
	return s.UserID + "/" + s.Day
}

// ValidDay reports whether day is a real calendar date in DayLayout form.
func ValidDay(day string) bool {
	parsed, err := time.Parse(DayLayout, day)
	return err == nil && parsed.Format(DayLayout) == day
}

// TotalMinutes sums the durations of a snapshot.
func TotalMinutes(activities []Activity) int {
	total := 0
	for _, a := range activities {
		total += a.DurationMin
	}
	return total
}

// NormalizeName trims user-supplied activity names.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}
