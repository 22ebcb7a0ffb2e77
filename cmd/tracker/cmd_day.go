package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"example.com/timetracker/internal/analytics"
)

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "List the selected day's activities and totals",
	Args:  cobra.NoArgs,
	RunE:  runDay,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the derived dashboard for the selected day",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func runDay(cmd *cobra.Command, args []string) error {
	led, closeLedger, err := newLedger(cmd.Context())
	if err != nil && !errors.Is(err, errProvisional) {
		return err
	}
	defer closeLedger()
	if errors.Is(err, errProvisional) {
		fmt.Println("note: remote unavailable, showing cached data")
	}

	snapshot := led.Snapshot()
	fmt.Printf("%s: %d activities\n", led.Scope().Day, len(snapshot))
	for _, a := range snapshot {
		fmt.Printf("  %-12s %-24s %-10s %4d min\n", a.ID, a.Name, displayCategory(a.Category), a.DurationMin)
	}
	fmt.Printf("total %d min, remaining %d min\n", led.TotalMinutes(), led.RemainingMinutes())
	return nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	led, closeLedger, err := newLedger(cmd.Context())
	if err != nil && !errors.Is(err, errProvisional) {
		return err
	}
	defer closeLedger()
	if errors.Is(err, errProvisional) {
		fmt.Println("note: remote unavailable, showing cached data")
	}

	dashboard := analytics.BuildDashboard(led.Snapshot())

	fmt.Printf("dashboard for %s\n", led.Scope().Day)
	fmt.Printf("  total:      %.1f h (%d min, %d activities)\n",
		dashboard.TotalHours, dashboard.TotalMinutes, dashboard.ActivityCount)
	fmt.Printf("  remaining:  %d min\n", dashboard.RemainingMinutes)
	if dashboard.TopCategory != "" {
		fmt.Printf("  top:        %s (%d min)\n", dashboard.TopCategory, dashboard.TopCategoryMinutes)
	}
	if len(dashboard.CategoryTotals) > 0 {
		fmt.Println("  categories:")
		for _, ct := range dashboard.CategoryTotals {
			fmt.Printf("    %-10s %4d min\n", ct.Category, ct.Minutes)
		}
	}
	if len(dashboard.Timeline) > 0 {
		fmt.Println("  timeline:")
		for _, entry := range dashboard.Timeline {
			fmt.Printf("    %-24s %4d min (%s)\n", entry.Name, entry.DurationMin, entry.Category)
		}
	}
	return nil
}
