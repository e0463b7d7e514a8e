package model

import "time"

// Quadrant is a task's Eisenhower-matrix classification.
type Quadrant int

const (
	// DoFirst: urgent and important.
	DoFirst Quadrant = iota
	// Schedule: urgent but not important.
	Schedule
	// Delegate: important but not urgent.
	Delegate
	// Eliminate: neither urgent nor important.
	Eliminate
)

func (q Quadrant) String() string {
	switch q {
	case DoFirst:
		return "do-first"
	case Schedule:
		return "schedule"
	case Delegate:
		return "delegate"
	default:
		return "eliminate"
	}
}

// Tasks with a deadline within this window count as urgent.
const urgentWindow = 4 * 24 * time.Hour

// ClassifyTask places a task in the Eisenhower matrix relative to now.
// A task with no deadline is never urgent.
func ClassifyTask(t *Task, now time.Time) Quadrant {
	urgent := !t.Deadline.IsZero() && t.Deadline.Sub(now) <= urgentWindow

	switch {
	case urgent && t.Importance:
		return DoFirst
	case urgent && !t.Importance:
		return Schedule
	case !urgent && t.Importance:
		return Delegate
	default:
		return Eliminate
	}
}

// CategoryForTime derives the medicine category from a scheduled time:
// 05:00-11:59 morning, 12:00-17:59 afternoon, everything else evening.
// A zero time yields UNSPECIFIED.
func CategoryForTime(t time.Time) MedicineCategory {
	if t.IsZero() {
		return CategoryUnspecified
	}
	switch hour := t.Hour(); {
	case hour >= 5 && hour <= 11:
		return CategoryMorning
	case hour >= 12 && hour <= 17:
		return CategoryAfternoon
	default:
		return CategoryEvening
	}
}
