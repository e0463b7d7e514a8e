// Package remote mirrors entities to a cloud document store. Entities
// travel as flat documents keyed by the entity identifier; instants are
// epoch milliseconds so documents stay portable across clients.
package remote

import (
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"syncwell/internal/model"
)

// Codec translates one entity kind to and from its document form.
// Encode always includes "id" and "user_id"; Decode fails without them.
type Codec[E any] interface {
	// Table is the document table/collection name for this entity kind.
	Table() string

	Encode(e E) map[string]any

	// Decode rebuilds an entity from a raw document. Unknown fields are
	// ignored; missing fields take zero values.
	Decode(doc map[string]any) (E, error)
}

// TaskCodec translates tasks.
type TaskCodec struct{}

func (TaskCodec) Table() string { return "tasks" }

func (TaskCodec) Encode(t *model.Task) map[string]any {
	return map[string]any{
		"id":                            t.ID,
		"user_id":                       t.UserID,
		"title":                         t.Title,
		"description":                   t.Description,
		"priority":                      t.Priority,
		"notes":                         t.Notes,
		"completed":                     t.Completed,
		"deadline":                      model.Millis(t.Deadline),
		"importance":                    t.Importance,
		"reminder_type":                 string(t.ReminderMode),
		"reminder_days_before_deadline": t.ReminderDaysBefore,
		"reminder_enabled":              t.ReminderEnabled,
		"last_modified":                 model.Millis(t.LastModified),
	}
}

func (TaskCodec) Decode(doc map[string]any) (*model.Task, error) {
	r := newDocReader(doc)
	t := &model.Task{
		ID:                 r.id(),
		UserID:             r.owner(),
		Title:              r.str("title"),
		Description:        r.str("description"),
		Priority:           r.str("priority"),
		Notes:              r.str("notes"),
		Completed:          r.boolean("completed"),
		Deadline:           r.instant("deadline"),
		Importance:         r.boolean("importance"),
		ReminderMode:       model.ReminderMode(r.str("reminder_type")),
		ReminderDaysBefore: r.integer("reminder_days_before_deadline"),
		ReminderEnabled:    r.boolean("reminder_enabled"),
		LastModified:       r.instant("last_modified"),
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return t, nil
}

// MedicineCodec translates medicines.
type MedicineCodec struct{}

func (MedicineCodec) Table() string { return "medicines" }

func (MedicineCodec) Encode(m *model.Medicine) map[string]any {
	return map[string]any{
		"id":            m.ID,
		"user_id":       m.UserID,
		"name":          m.Name,
		"dosage":        m.Dosage,
		"time":          model.Millis(m.Time),
		"with_food":     m.WithFood,
		"duration_days": m.DurationDays,
		"start_date":    model.Millis(m.StartDate),
		"notes":         m.Notes,
		"category":      string(m.Category),
		"last_modified": model.Millis(m.LastModified),
		"last_taken":    model.Millis(m.LastTaken),
	}
}

func (MedicineCodec) Decode(doc map[string]any) (*model.Medicine, error) {
	r := newDocReader(doc)
	m := &model.Medicine{
		ID:           r.id(),
		UserID:       r.owner(),
		Name:         r.str("name"),
		Dosage:       r.str("dosage"),
		Time:         r.instant("time"),
		WithFood:     r.boolean("with_food"),
		DurationDays: r.integer("duration_days"),
		StartDate:    r.instant("start_date"),
		Notes:        r.str("notes"),
		Category:     model.MedicineCategory(r.str("category")),
		LastModified: r.instant("last_modified"),
		LastTaken:    r.instant("last_taken"),
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// WellnessCodec translates wellness entries.
type WellnessCodec struct{}

func (WellnessCodec) Table() string { return "wellness_entries" }

func (WellnessCodec) Encode(w *model.WellnessEntry) map[string]any {
	return map[string]any{
		"id":               w.ID,
		"user_id":          w.UserID,
		"date":             w.Date,
		"timestamp":        model.Millis(w.Timestamp),
		"water_intake_oz":  w.WaterIntakeOz,
		"water_goal_oz":    w.WaterGoalOz,
		"sleep_hours":      w.SleepHours,
		"sleep_goal_hours": w.SleepGoalHours,
		"bed_time":         model.Millis(w.BedTime),
		"wake_time":        model.Millis(w.WakeTime),
		"step_count":       w.StepCount,
		"step_goal":        w.StepGoal,
		"mood_rating":      w.MoodRating,
		"energy_level":     w.EnergyLevel,
		"notes":            w.Notes,
		"streak_counter":   w.StreakCounter,
		"last_modified":    model.Millis(w.LastModified),
	}
}

func (WellnessCodec) Decode(doc map[string]any) (*model.WellnessEntry, error) {
	r := newDocReader(doc)
	w := &model.WellnessEntry{
		ID:             r.id(),
		UserID:         r.owner(),
		Date:           r.str("date"),
		Timestamp:      r.instant("timestamp"),
		WaterIntakeOz:  r.integer("water_intake_oz"),
		WaterGoalOz:    r.integer("water_goal_oz"),
		SleepHours:     r.float("sleep_hours"),
		SleepGoalHours: r.float("sleep_goal_hours"),
		BedTime:        r.instant("bed_time"),
		WakeTime:       r.instant("wake_time"),
		StepCount:      r.integer("step_count"),
		StepGoal:       r.integer("step_goal"),
		MoodRating:     r.integer("mood_rating"),
		EnergyLevel:    r.integer("energy_level"),
		Notes:          r.str("notes"),
		StreakCounter:  r.integer("streak_counter"),
		LastModified:   r.instant("last_modified"),
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return w, nil
}

// docReader pulls typed values out of a raw document, accumulating the
// first error it hits. CBOR and JSON transports disagree on numeric types,
// so every numeric accessor coerces.
type docReader struct {
	doc map[string]any
	err error
}

func newDocReader(doc map[string]any) *docReader {
	return &docReader{doc: doc}
}

// id returns the document identifier. Accepts a plain string or a
// SurrealDB record id, whose ID part carries the entity identifier.
func (r *docReader) id() string {
	v, ok := r.doc["id"]
	if !ok {
		r.fail("document has no id")
		return ""
	}
	switch id := v.(type) {
	case string:
		if id == "" {
			r.fail("document has empty id")
		}
		return id
	case models.RecordID:
		return fmt.Sprint(id.ID)
	case *models.RecordID:
		if id == nil {
			r.fail("document has nil record id")
			return ""
		}
		return fmt.Sprint(id.ID)
	default:
		r.fail("document id has unsupported type %T", v)
		return ""
	}
}

// owner returns the required user_id field.
func (r *docReader) owner() string {
	s := r.str("user_id")
	if s == "" {
		r.fail("document has no user_id")
	}
	return s
}

func (r *docReader) str(key string) string {
	v, ok := r.doc[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail("field %q is %T, want string", key, v)
		return ""
	}
	return s
}

func (r *docReader) boolean(key string) bool {
	v, ok := r.doc[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		r.fail("field %q is %T, want bool", key, v)
		return false
	}
	return b
}

func (r *docReader) integer(key string) int {
	return int(r.int64(key))
}

func (r *docReader) instant(key string) time.Time {
	return model.FromMillis(r.int64(key))
}

func (r *docReader) int64(key string) int64 {
	v, ok := r.doc[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case uint32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		r.fail("field %q is %T, want integer", key, v)
		return 0
	}
}

func (r *docReader) float(key string) float64 {
	v, ok := r.doc[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		r.fail("field %q is %T, want number", key, v)
		return 0
	}
}

func (r *docReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

func (r *docReader) finish() error {
	return r.err
}
