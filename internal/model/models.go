package model

import "time"

// ReminderMode controls how often a task reminder fires before the deadline.
type ReminderMode string

const (
	ReminderOnce  ReminderMode = "ONCE"
	ReminderDaily ReminderMode = "DAILY"
)

// MedicineCategory buckets a medicine by its scheduled time of day.
type MedicineCategory string

const (
	CategoryMorning     MedicineCategory = "MORNING"
	CategoryAfternoon   MedicineCategory = "AFTERNOON"
	CategoryEvening     MedicineCategory = "EVENING"
	CategoryUnspecified MedicineCategory = "UNSPECIFIED"
)

// Task is a deadline-driven to-do item.
type Task struct {
	ID                 string
	UserID             string
	Title              string
	Description        string
	Priority           string // legacy "HIGH"/"LOW" label, kept for older clients
	Deadline           time.Time
	Importance         bool
	ReminderEnabled    bool
	ReminderDaysBefore int
	ReminderMode       ReminderMode
	Notes              string
	Completed          bool
	LastModified       time.Time // display/sync timestamp, not conflict-resolved
}

// Medicine is a scheduled medication with dosage instructions.
type Medicine struct {
	ID           string
	UserID       string
	Name         string
	Dosage       string
	Time         time.Time // scheduled time of day
	WithFood     bool
	DurationDays int
	StartDate    time.Time
	Notes        string
	Category     MedicineCategory // derived from Time at write
	LastModified time.Time
	LastTaken    time.Time
}

// WellnessEntry is one day's wellness log.
type WellnessEntry struct {
	ID     string
	UserID string
	Date   string // calendar day, "2006-01-02"

	Timestamp time.Time

	WaterIntakeOz int
	WaterGoalOz   int

	SleepHours     float64
	SleepGoalHours float64
	BedTime        time.Time
	WakeTime       time.Time

	StepCount int
	StepGoal  int

	MoodRating  int
	EnergyLevel int
	Notes       string

	StreakCounter int
	LastModified  time.Time
}

// Default goals applied when a new wellness entry is created without
// explicit values.
const (
	DefaultWaterGoalOz = 64
	DefaultSleepGoal   = 8.0
	DefaultStepGoal    = 10000
)

// NewWellnessEntry returns an entry for the given day with default goals.
func NewWellnessEntry(id, date string, now time.Time) *WellnessEntry {
	return &WellnessEntry{
		ID:             id,
		Date:           date,
		Timestamp:      now,
		WaterGoalOz:    DefaultWaterGoalOz,
		SleepGoalHours: DefaultSleepGoal,
		StepGoal:       DefaultStepGoal,
	}
}

// Entity is the common surface repositories need from every entity kind.
// Stamp overrides the owner and last-modified instant at write time; callers
// cannot persist data attributed to another owner.
type Entity interface {
	EntityID() string
	EntityOwner() string
	Stamp(owner string, modified time.Time)
}

func (t *Task) EntityID() string    { return t.ID }
func (t *Task) EntityOwner() string { return t.UserID }
func (t *Task) Stamp(owner string, modified time.Time) {
	t.UserID = owner
	t.LastModified = modified
}

func (m *Medicine) EntityID() string    { return m.ID }
func (m *Medicine) EntityOwner() string { return m.UserID }
func (m *Medicine) Stamp(owner string, modified time.Time) {
	m.UserID = owner
	m.LastModified = modified
}

func (w *WellnessEntry) EntityID() string    { return w.ID }
func (w *WellnessEntry) EntityOwner() string { return w.UserID }
func (w *WellnessEntry) Stamp(owner string, modified time.Time) {
	w.UserID = owner
	w.LastModified = modified
}
