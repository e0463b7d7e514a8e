package main

import (
	"fmt"
	"time"

	"syncwell/internal/model"

	"github.com/spf13/cobra"
)

var wellnessCmd = &cobra.Command{
	Use:   "wellness",
	Short: "Track daily wellness",
}

var wellnessLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Log wellness values for a day",
	Long: "Log wellness values for a day. Values accumulate into the day's\n" +
		"single entry; water and steps add, the rest overwrite.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dateStr, _ := cmd.Flags().GetString("date")
		water, _ := cmd.Flags().GetInt("water")
		sleep, _ := cmd.Flags().GetFloat64("sleep")
		steps, _ := cmd.Flags().GetInt("steps")
		mood, _ := cmd.Flags().GetInt("mood")
		energy, _ := cmd.Flags().GetInt("energy")
		notes, _ := cmd.Flags().GetString("notes")
		bedStr, _ := cmd.Flags().GetString("bed")
		wakeStr, _ := cmd.Flags().GetString("wake")

		if mood != 0 && (mood < 1 || mood > 5) {
			return fmt.Errorf("mood must be between 1 and 5")
		}
		if energy != 0 && (energy < 1 || energy > 5) {
			return fmt.Errorf("energy must be between 1 and 5")
		}

		day := time.Now()
		if dateStr != "" {
			var err error
			day, err = parseInstant(dateStr)
			if err != nil {
				return err
			}
		}

		var bed, wake time.Time
		if bedStr != "" {
			var err error
			bed, err = parseClock(bedStr)
			if err != nil {
				return err
			}
		}
		if wakeStr != "" {
			var err error
			wake, err = parseClock(wakeStr)
			if err != nil {
				return err
			}
		}

		a, err := newApp(cmd, "WellnessLog")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := requireSignIn(a); err != nil {
			return err
		}
		if err := a.Persist(cmd.Context()); err != nil {
			return err
		}

		entry, err := a.Wellness().LogForDay(cmd.Context(), day, func(e *model.WellnessEntry) {
			e.WaterIntakeOz += water
			e.StepCount += steps
			if sleep > 0 {
				e.SleepHours = sleep
			}
			if mood != 0 {
				e.MoodRating = mood
			}
			if energy != 0 {
				e.EnergyLevel = energy
			}
			if notes != "" {
				e.Notes = notes
			}
			if !bed.IsZero() {
				e.BedTime = bed
			}
			if !wake.IsZero() {
				e.WakeTime = wake
			}
		})
		if err != nil {
			a.Fail()
			return fmt.Errorf("logging wellness: %w", err)
		}

		fmt.Printf("Logged %s: water %d/%doz, sleep %.1f/%.1fh, steps %d/%d\n",
			entry.Date, entry.WaterIntakeOz, entry.WaterGoalOz,
			entry.SleepHours, entry.SleepGoalHours, entry.StepCount, entry.StepGoal)
		return nil
	},
}

var wellnessListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent wellness entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		a, err := newApp(cmd, "WellnessList")
		if err != nil {
			return err
		}
		defer a.Close()

		ownerID, signedIn := a.Owner().CurrentOwnerID()
		if !signedIn {
			fmt.Println("Not signed in.")
			return nil
		}

		now := time.Now()
		entries, err := a.Wellness().EntriesForRange(cmd.Context(), ownerID,
			now.AddDate(0, 0, -days), now)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No wellness entries.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  water %3d/%doz  sleep %4.1f/%.1fh  steps %5d/%d  mood %d  energy %d\n",
				e.Date, e.WaterIntakeOz, e.WaterGoalOz, e.SleepHours, e.SleepGoalHours,
				e.StepCount, e.StepGoal, e.MoodRating, e.EnergyLevel)
		}
		return nil
	},
}

var wellnessStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show wellness averages over a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		a, err := newApp(cmd, "WellnessStats")
		if err != nil {
			return err
		}
		defer a.Close()

		ownerID, signedIn := a.Owner().CurrentOwnerID()
		if !signedIn {
			fmt.Println("Not signed in.")
			return nil
		}

		now := time.Now()
		summary, err := a.Wellness().SummaryForPeriod(cmd.Context(), ownerID,
			now.AddDate(0, 0, -days), now)
		if err != nil {
			return err
		}

		if summary.Entries == 0 {
			fmt.Printf("No entries in the last %d days.\n", days)
			return nil
		}

		fmt.Printf("Last %d days (%d entries):\n", days, summary.Entries)
		fmt.Printf("  Avg mood:   %.1f\n", summary.AvgMood)
		fmt.Printf("  Avg sleep:  %.1fh\n", summary.AvgSleep)
		fmt.Printf("  Avg energy: %.1f\n", summary.AvgEnergy)
		return nil
	},
}

func init() {
	wellnessLogCmd.Flags().String("date", "", "Day to log for (\"2006-01-02\", default today)")
	wellnessLogCmd.Flags().Int("water", 0, "Water intake to add, in ounces")
	wellnessLogCmd.Flags().Float64("sleep", 0, "Hours slept")
	wellnessLogCmd.Flags().Int("steps", 0, "Steps to add")
	wellnessLogCmd.Flags().Int("mood", 0, "Mood rating 1-5")
	wellnessLogCmd.Flags().Int("energy", 0, "Energy level 1-5")
	wellnessLogCmd.Flags().String("notes", "", "Free-form notes")
	wellnessLogCmd.Flags().String("bed", "", "Bed time (\"15:04\")")
	wellnessLogCmd.Flags().String("wake", "", "Wake time (\"15:04\")")

	wellnessListCmd.Flags().IntP("days", "d", 7, "Days to look back")
	wellnessStatsCmd.Flags().IntP("days", "d", 7, "Days to look back")

	wellnessCmd.AddCommand(wellnessLogCmd)
	wellnessCmd.AddCommand(wellnessListCmd)
	wellnessCmd.AddCommand(wellnessStatsCmd)
}
