package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"syncwell/internal/app"
	"syncwell/internal/model"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var medCmd = &cobra.Command{
	Use:   "med",
	Short: "Manage medicines",
}

var medAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a medicine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dosage, _ := cmd.Flags().GetString("dosage")
		timeStr, _ := cmd.Flags().GetString("time")
		withFood, _ := cmd.Flags().GetBool("with-food")
		duration, _ := cmd.Flags().GetInt("duration")
		startStr, _ := cmd.Flags().GetString("start")
		notes, _ := cmd.Flags().GetString("notes")

		var scheduled time.Time
		if timeStr != "" {
			var err error
			scheduled, err = parseClock(timeStr)
			if err != nil {
				return err
			}
		}

		start := time.Now()
		if startStr != "" {
			var err error
			start, err = parseInstant(startStr)
			if err != nil {
				return err
			}
		}

		a, err := newApp(cmd, "MedAdd")
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

		m := &model.Medicine{
			ID:           uuid.New().String(),
			Name:         args[0],
			Dosage:       dosage,
			Time:         scheduled,
			WithFood:     withFood,
			DurationDays: duration,
			StartDate:    start,
			Notes:        notes,
		}

		if err := a.Medicines().Upsert(cmd.Context(), m); err != nil {
			a.Fail()
			return fmt.Errorf("adding medicine: %w", err)
		}

		fmt.Printf("Added medicine %s (%s)\n", shortID(m.ID), m.Category)
		return nil
	},
}

var medListCmd = &cobra.Command{
	Use:   "list",
	Short: "List medicines",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "MedList")
		if err != nil {
			return err
		}
		defer a.Close()

		ownerID, signedIn := a.Owner().CurrentOwnerID()
		if !signedIn {
			fmt.Println("Not signed in.")
			return nil
		}

		meds, err := a.Medicines().List(cmd.Context(), ownerID)
		if err != nil {
			return err
		}

		if len(meds) == 0 {
			fmt.Println("No medicines.")
			return nil
		}

		for _, m := range meds {
			printMedicine(m)
		}
		return nil
	},
}

var medDueCmd = &cobra.Command{
	Use:   "due",
	Short: "List medicines scheduled up to now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "MedDue")
		if err != nil {
			return err
		}
		defer a.Close()

		ownerID, signedIn := a.Owner().CurrentOwnerID()
		if !signedIn {
			fmt.Println("Not signed in.")
			return nil
		}

		meds, err := a.Medicines().DueBefore(cmd.Context(), ownerID, time.Now())
		if err != nil {
			return err
		}

		if len(meds) == 0 {
			fmt.Println("Nothing due.")
			return nil
		}

		for _, m := range meds {
			printMedicine(m)
		}
		return nil
	},
}

var medTakenCmd = &cobra.Command{
	Use:   "taken ID",
	Short: "Record that a medicine was taken",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "MedTaken")
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := findMedicine(cmd.Context(), a, args[0])
		if err != nil {
			return err
		}
		if err := a.Persist(cmd.Context()); err != nil {
			return err
		}

		if err := a.Medicines().MarkTaken(cmd.Context(), m, time.Now()); err != nil {
			a.Fail()
			return fmt.Errorf("recording medicine taken: %w", err)
		}

		fmt.Printf("Recorded %s taken\n", m.Name)
		return nil
	},
}

var medRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a medicine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "MedRemove")
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := findMedicine(cmd.Context(), a, args[0])
		if err != nil {
			return err
		}
		if err := a.Persist(cmd.Context()); err != nil {
			return err
		}

		if err := a.Medicines().Delete(cmd.Context(), m); err != nil {
			a.Fail()
			return fmt.Errorf("deleting medicine: %w", err)
		}

		fmt.Printf("Medicine %s deleted\n", shortID(m.ID))
		return nil
	},
}

func printMedicine(m *model.Medicine) {
	when := "unscheduled"
	if !m.Time.IsZero() {
		when = m.Time.Format("15:04")
	}
	food := ""
	if m.WithFood {
		food = "  with food"
	}
	taken := ""
	if !m.LastTaken.IsZero() {
		taken = "  last taken " + m.LastTaken.Format("2006-01-02 15:04")
	}
	fmt.Printf("%s  %-20s  %-10s  %s  %-11s%s%s\n",
		shortID(m.ID), m.Name, m.Dosage, when, m.Category, food, taken)
}

// findMedicine resolves a full or prefix medicine ID among the owner's
// medicines.
func findMedicine(ctx context.Context, a *app.App, id string) (*model.Medicine, error) {
	ownerID, signedIn := a.Owner().CurrentOwnerID()
	if !signedIn {
		return nil, fmt.Errorf("not signed in")
	}

	meds, err := a.Medicines().List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var match *model.Medicine
	for _, m := range meds {
		if m.ID == id {
			return m, nil
		}
		if strings.HasPrefix(m.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("medicine id %q is ambiguous", id)
			}
			match = m
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no medicine with id %q", id)
	}
	return match, nil
}

// parseClock accepts "15:04" and anchors it on today's date in local time.
func parseClock(s string) (time.Time, error) {
	clock, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want \"15:04\")", s)
	}
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(),
		clock.Hour(), clock.Minute(), 0, 0, time.Local), nil
}

func init() {
	medAddCmd.Flags().String("dosage", "", "Dosage instructions (e.g. \"200mg\")")
	medAddCmd.Flags().String("time", "", "Scheduled time of day (\"15:04\")")
	medAddCmd.Flags().Bool("with-food", false, "Take with food")
	medAddCmd.Flags().Int("duration", 0, "Course length in days (0 for ongoing)")
	medAddCmd.Flags().String("start", "", "Course start date (\"2006-01-02\")")
	medAddCmd.Flags().String("notes", "", "Free-form notes")

	medCmd.AddCommand(medAddCmd)
	medCmd.AddCommand(medListCmd)
	medCmd.AddCommand(medDueCmd)
	medCmd.AddCommand(medTakenCmd)
	medCmd.AddCommand(medRmCmd)
}
