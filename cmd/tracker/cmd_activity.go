package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"example.com/timetracker/internal/domain"
)

var (
	flagCategory string
	flagDuration int
	flagNewName  string
)

var addCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Record an activity for the selected day",
	Example: `  tracker add "Sleep" --category Rest --duration 480
  tracker add "Standup" --category Work --duration 15 --date 2026-08-28`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change an activity's name or duration",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var rmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete an activity from the selected day",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	addCmd.Flags().StringVar(&flagCategory, "category", "", "activity category, one of: "+strings.Join(domain.Categories, ", "))
	addCmd.Flags().IntVar(&flagDuration, "duration", 0, "duration in minutes")
	_ = addCmd.MarkFlagRequired("duration")

	editCmd.Flags().StringVar(&flagNewName, "name", "", "new activity name (default unchanged)")
	editCmd.Flags().IntVar(&flagDuration, "duration", 0, "new duration in minutes (default unchanged)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	led, closeLedger, err := newLedger(cmd.Context())
	if err != nil {
		// Mutations need the authoritative state; cached data is not enough.
		if errors.Is(err, errProvisional) {
			closeLedger()
			return errors.New("remote store unavailable, cannot add")
		}
		return err
	}
	defer closeLedger()

	activity, err := led.Add(cmd.Context(), args[0], flagCategory, flagDuration)
	if err != nil {
		return err
	}

	fmt.Printf("added %s (%s, %d min) on %s\n",
		activity.Name, displayCategory(activity.Category), activity.DurationMin, led.Scope().Day)
	fmt.Printf("day total %d min, %d min remaining\n", led.TotalMinutes(), led.RemainingMinutes())
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	led, closeLedger, err := newLedger(cmd.Context())
	if err != nil {
		if errors.Is(err, errProvisional) {
			closeLedger()
			return errors.New("remote store unavailable, cannot edit")
		}
		return err
	}
	defer closeLedger()

	id := args[0]
	name := flagNewName
	duration := flagDuration
	if name == "" || duration == 0 {
		current, ok := findActivity(led.Snapshot(), id)
		if !ok {
			return domain.ErrActivityNotFound
		}
		if name == "" {
			name = current.Name
		}
		if duration == 0 {
			duration = current.DurationMin
		}
	}

	activity, err := led.Update(cmd.Context(), id, name, duration)
	if err != nil {
		return err
	}

	fmt.Printf("updated %s: %s, %d min\n", activity.ID, activity.Name, activity.DurationMin)
	fmt.Printf("day total %d min, %d min remaining\n", led.TotalMinutes(), led.RemainingMinutes())
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	led, closeLedger, err := newLedger(cmd.Context())
	if err != nil {
		if errors.Is(err, errProvisional) {
			closeLedger()
			return errors.New("remote store unavailable, cannot delete")
		}
		return err
	}
	defer closeLedger()

	if err := led.Remove(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Printf("deleted %s from %s\n", args[0], led.Scope().Day)
	fmt.Printf("day total %d min, %d min remaining\n", led.TotalMinutes(), led.RemainingMinutes())
	return nil
}

func findActivity(activities []domain.Activity, id string) (domain.Activity, bool) {
	for _, a := range activities {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Activity{}, false
}

func displayCategory(category string) string {
	if category == "" {
		return domain.CategoryOther
	}
	return category
}
