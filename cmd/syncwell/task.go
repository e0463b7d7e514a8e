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

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("desc")
		notes, _ := cmd.Flags().GetString("notes")
		deadlineStr, _ := cmd.Flags().GetString("deadline")
		important, _ := cmd.Flags().GetBool("important")
		remind, _ := cmd.Flags().GetBool("remind")
		remindDays, _ := cmd.Flags().GetInt("remind-days")
		remindMode, _ := cmd.Flags().GetString("remind-mode")

		var deadline time.Time
		if deadlineStr != "" {
			var err error
			deadline, err = parseInstant(deadlineStr)
			if err != nil {
				return err
			}
		}

		mode := model.ReminderMode(strings.ToUpper(remindMode))
		if mode != model.ReminderOnce && mode != model.ReminderDaily {
			return fmt.Errorf("invalid reminder mode %q (want ONCE or DAILY)", remindMode)
		}

		a, err := newApp(cmd, "TaskAdd")
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

		t := &model.Task{
			ID:                 uuid.New().String(),
			Title:              args[0],
			Description:        description,
			Notes:              notes,
			Deadline:           deadline,
			Importance:         important,
			ReminderEnabled:    remind,
			ReminderDaysBefore: remindDays,
			ReminderMode:       mode,
		}

		if err := a.Tasks().Upsert(cmd.Context(), t); err != nil {
			a.Fail()
			return fmt.Errorf("adding task: %w", err)
		}

		fmt.Printf("Added task %s\n", shortID(t.ID))
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		showDone, _ := cmd.Flags().GetBool("all")

		a, err := newApp(cmd, "TaskList")
		if err != nil {
			return err
		}
		defer a.Close()

		ownerID, signedIn := a.Owner().CurrentOwnerID()
		if !signedIn {
			fmt.Println("Not signed in.")
			return nil
		}

		tasks, err := a.Tasks().List(cmd.Context(), ownerID)
		if err != nil {
			return err
		}

		now := time.Now()
		shown := 0
		for _, t := range tasks {
			if t.Completed && !showDone {
				continue
			}
			shown++

			status := " "
			if t.Completed {
				status = "x"
			}
			deadline := "no deadline"
			if !t.Deadline.IsZero() {
				deadline = t.Deadline.Format("2006-01-02 15:04")
			}
			fmt.Printf("[%s] %s  %-30s  %-16s  %s\n",
				status, shortID(t.ID), t.Title, deadline, model.ClassifyTask(t, now))
		}
		if shown == 0 {
			fmt.Println("No tasks.")
		}
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done ID",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		undo, _ := cmd.Flags().GetBool("undo")

		a, err := newApp(cmd, "TaskDone")
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := findTask(cmd.Context(), a, args[0])
		if err != nil {
			return err
		}
		if err := a.Persist(cmd.Context()); err != nil {
			return err
		}

		if err := a.Tasks().Complete(cmd.Context(), t, !undo); err != nil {
			a.Fail()
			return fmt.Errorf("updating task: %w", err)
		}

		if undo {
			fmt.Printf("Task %s reopened\n", shortID(t.ID))
		} else {
			fmt.Printf("Task %s completed\n", shortID(t.ID))
		}
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "TaskRemove")
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := findTask(cmd.Context(), a, args[0])
		if err != nil {
			return err
		}
		if err := a.Persist(cmd.Context()); err != nil {
			return err
		}

		if err := a.Tasks().Delete(cmd.Context(), t); err != nil {
			a.Fail()
			return fmt.Errorf("deleting task: %w", err)
		}

		fmt.Printf("Task %s deleted\n", shortID(t.ID))
		return nil
	},
}

// findTask resolves a full or prefix task ID among the owner's tasks.
func findTask(ctx context.Context, a *app.App, id string) (*model.Task, error) {
	ownerID, signedIn := a.Owner().CurrentOwnerID()
	if !signedIn {
		return nil, fmt.Errorf("not signed in")
	}

	tasks, err := a.Tasks().List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var match *model.Task
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
		if strings.HasPrefix(t.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("task id %q is ambiguous", id)
			}
			match = t
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no task with id %q", id)
	}
	return match, nil
}

// requireSignIn fails fast for commands whose writes would otherwise be
// silently dropped.
func requireSignIn(a *app.App) error {
	if _, signedIn := a.Owner().CurrentOwnerID(); !signedIn {
		return fmt.Errorf("not signed in (run login first)")
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// parseInstant accepts "2006-01-02 15:04" or "2006-01-02" in local time.
func parseInstant(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want \"2006-01-02\" or \"2006-01-02 15:04\")", s)
}

func init() {
	taskAddCmd.Flags().String("desc", "", "Task description")
	taskAddCmd.Flags().String("notes", "", "Free-form notes")
	taskAddCmd.Flags().String("deadline", "", "Deadline (\"2006-01-02\" or \"2006-01-02 15:04\")")
	taskAddCmd.Flags().Bool("important", false, "Mark the task important")
	taskAddCmd.Flags().Bool("remind", false, "Enable a deadline reminder")
	taskAddCmd.Flags().Int("remind-days", 1, "Days before the deadline to remind")
	taskAddCmd.Flags().String("remind-mode", "ONCE", "Reminder mode: ONCE or DAILY")

	taskListCmd.Flags().BoolP("all", "a", false, "Include completed tasks")
	taskDoneCmd.Flags().Bool("undo", false, "Reopen instead of completing")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskRmCmd)
}
