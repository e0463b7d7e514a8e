package localdb

import (
	"context"
	"testing"
	"time"

	"syncwell/internal/model"
	"syncwell/internal/repo"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations_UpToDate(t *testing.T) {
	db := newTestDB(t)
	if err := db.CheckMigrations(); err != nil {
		t.Fatalf("CheckMigrations() error = %v", err)
	}
}

func TestMigrations_TaskReminderColumns(t *testing.T) {
	db := newTestDB(t)

	// The reminder migration added these columns; insert touching all of
	// them to prove they exist.
	_, err := db.db.Exec(`
		INSERT INTO tasks (id, title, deadline_millis, importance,
			reminder_type, reminder_days_before_deadline, reminder_enabled)
		VALUES ('x', 'probe', 1, 1, 'DAILY', 3, 1)`)
	if err != nil {
		t.Fatalf("inserting with reminder columns: %v", err)
	}
}

func TestTaskStore_UpsertListDelete(t *testing.T) {
	db := newTestDB(t)
	store := db.Tasks()
	ctx := context.Background()

	deadline := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	task := &model.Task{
		ID:                 "t1",
		UserID:             "alice",
		Title:              "renew passport",
		Description:        "bring photos",
		Deadline:           deadline,
		Importance:         true,
		ReminderEnabled:    true,
		ReminderDaysBefore: 3,
		ReminderMode:       model.ReminderDaily,
		LastModified:       time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := store.Upsert(ctx, task); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	tasks, err := store.ListForOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForOwner() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}

	got := tasks[0]
	if got.Title != "renew passport" {
		t.Errorf("Title = %q, want %q", got.Title, "renew passport")
	}
	if !got.Deadline.Equal(deadline) {
		t.Errorf("Deadline = %v, want %v", got.Deadline, deadline)
	}
	if got.ReminderMode != model.ReminderDaily {
		t.Errorf("ReminderMode = %q, want DAILY", got.ReminderMode)
	}
	if got.ReminderDaysBefore != 3 {
		t.Errorf("ReminderDaysBefore = %d, want 3", got.ReminderDaysBefore)
	}
	if !got.Importance {
		t.Error("Importance = false, want true")
	}

	// Replace keeps a single row.
	task.Title = "renew passport (urgent)"
	if err := store.Upsert(ctx, task); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	tasks, _ = store.ListForOwner(ctx, "alice")
	if len(tasks) != 1 || tasks[0].Title != "renew passport (urgent)" {
		t.Fatalf("replace failed: %+v", tasks)
	}

	if err := store.Delete(ctx, task); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	tasks, _ = store.ListForOwner(ctx, "alice")
	if len(tasks) != 0 {
		t.Fatalf("len(tasks) after delete = %d, want 0", len(tasks))
	}

	// Deleting again is not an error.
	if err := store.Delete(ctx, task); err != nil {
		t.Fatalf("repeat Delete() error = %v", err)
	}
}

func TestTaskStore_EmptyOwnerMatchesNothing(t *testing.T) {
	db := newTestDB(t)
	store := db.Tasks()
	ctx := context.Background()

	// An unowned row must be invisible to owner-scoped reads and deletes.
	unowned := &model.Task{ID: "t1", Title: "no owner"}
	if err := store.Upsert(ctx, unowned); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	tasks, err := store.ListForOwner(ctx, "")
	if err != nil {
		t.Fatalf("ListForOwner() error = %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("empty owner matched %d rows, want 0", len(tasks))
	}

	if err := store.DeleteAllForOwner(ctx, ""); err != nil {
		t.Fatalf("DeleteAllForOwner() error = %v", err)
	}
	var count int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("unowned row deleted by empty-owner delete")
	}
}

func TestTaskStore_DeleteAllForOwnerScoped(t *testing.T) {
	db := newTestDB(t)
	store := db.Tasks()
	ctx := context.Background()

	store.Upsert(ctx, &model.Task{ID: "a1", UserID: "alice", Title: "a"})
	store.Upsert(ctx, &model.Task{ID: "a2", UserID: "alice", Title: "b"})
	store.Upsert(ctx, &model.Task{ID: "b1", UserID: "bob", Title: "c"})

	if err := store.DeleteAllForOwner(ctx, "alice"); err != nil {
		t.Fatalf("DeleteAllForOwner() error = %v", err)
	}

	alice, _ := store.ListForOwner(ctx, "alice")
	bob, _ := store.ListForOwner(ctx, "bob")
	if len(alice) != 0 {
		t.Errorf("alice rows = %d, want 0", len(alice))
	}
	if len(bob) != 1 {
		t.Errorf("bob rows = %d, want 1", len(bob))
	}
}

func TestTaskStore_ChangesSignalOnMutation(t *testing.T) {
	db := newTestDB(t)
	store := db.Tasks()
	ctx := context.Background()

	sub := store.Changes().Subscribe(1)
	defer sub.Unsubscribe()

	if err := store.Upsert(ctx, &model.Task{ID: "t1", UserID: "alice", Title: "x"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	select {
	case <-sub.C:
	case <-time.After(time.Second):
		t.Fatal("no change signal after upsert")
	}
}

func TestMedicineStore_RoundTripAndDueBefore(t *testing.T) {
	db := newTestDB(t)
	store := db.Medicines()
	ctx := context.Background()

	early := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	late := time.Date(2026, 1, 10, 21, 0, 0, 0, time.UTC)

	store.Upsert(ctx, &model.Medicine{
		ID: "m1", UserID: "alice", Name: "ibuprofen", Dosage: "200mg",
		Time: early, WithFood: true, DurationDays: 10,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Category:  model.CategoryMorning,
		LastTaken: time.Date(2026, 1, 9, 8, 5, 0, 0, time.UTC),
	})
	store.Upsert(ctx, &model.Medicine{
		ID: "m2", UserID: "alice", Name: "melatonin",
		Time: late, Category: model.CategoryEvening,
	})

	meds, err := store.ListForOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForOwner() error = %v", err)
	}
	if len(meds) != 2 {
		t.Fatalf("len(meds) = %d, want 2", len(meds))
	}
	// Ordered by scheduled time.
	if meds[0].Name != "ibuprofen" || meds[1].Name != "melatonin" {
		t.Errorf("order = %q, %q", meds[0].Name, meds[1].Name)
	}
	if !meds[0].WithFood || meds[0].DurationDays != 10 {
		t.Errorf("round trip lost fields: %+v", meds[0])
	}
	if !meds[1].LastTaken.IsZero() {
		t.Errorf("zero LastTaken came back non-zero: %v", meds[1].LastTaken)
	}

	due, err := store.DueBefore(ctx, "alice", time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DueBefore() error = %v", err)
	}
	if len(due) != 1 || due[0].Name != "ibuprofen" {
		t.Fatalf("DueBefore = %+v, want just ibuprofen", due)
	}
}

func TestWellnessStore_EntryForDayAndSummary(t *testing.T) {
	db := newTestDB(t)
	store := db.Wellness()
	ctx := context.Background()

	day1 := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

	store.Upsert(ctx, &model.WellnessEntry{
		ID: "w1", UserID: "alice", Date: "2026-02-01", Timestamp: day1,
		WaterIntakeOz: 32, WaterGoalOz: 64, SleepHours: 7, SleepGoalHours: 8,
		StepCount: 8000, StepGoal: 10000, MoodRating: 4, EnergyLevel: 3,
	})
	store.Upsert(ctx, &model.WellnessEntry{
		ID: "w2", UserID: "alice", Date: "2026-02-02", Timestamp: day2,
		WaterIntakeOz: 64, SleepHours: 9, MoodRating: 2, EnergyLevel: 5,
	})

	entry, err := store.EntryForDay(ctx, "alice", day1.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("EntryForDay() error = %v", err)
	}
	if entry == nil || entry.ID != "w1" {
		t.Fatalf("EntryForDay = %+v, want w1", entry)
	}

	missing, err := store.EntryForDay(ctx, "alice", time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("EntryForDay() error = %v", err)
	}
	if missing != nil {
		t.Fatalf("EntryForDay for empty day = %+v, want nil", missing)
	}

	entries, err := store.EntriesForRange(ctx, "alice",
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("EntriesForRange() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	// Newest first.
	if entries[0].ID != "w2" {
		t.Errorf("entries[0].ID = %q, want w2", entries[0].ID)
	}

	summary, err := store.SummaryForPeriod(ctx, "alice",
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("SummaryForPeriod() error = %v", err)
	}
	if summary.Entries != 2 {
		t.Errorf("Entries = %d, want 2", summary.Entries)
	}
	if summary.AvgMood != 3 {
		t.Errorf("AvgMood = %v, want 3", summary.AvgMood)
	}
	if summary.AvgSleep != 8 {
		t.Errorf("AvgSleep = %v, want 8", summary.AvgSleep)
	}
	if summary.AvgEnergy != 4 {
		t.Errorf("AvgEnergy = %v, want 4", summary.AvgEnergy)
	}

	empty, err := store.SummaryForPeriod(ctx, "alice",
		time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("SummaryForPeriod() error = %v", err)
	}
	if empty.Entries != 0 || empty.AvgMood != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestSyncOperationStore_CreateFinishList(t *testing.T) {
	db := newTestDB(t)
	store := db.Operations()
	ctx := context.Background()

	op, err := store.Create(ctx, "Refresh", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if op.ID == 0 {
		t.Fatal("operation ID not assigned")
	}
	if op.Status != "running" {
		t.Errorf("Status = %q, want running", op.Status)
	}

	if err := store.Finish(ctx, op.ID, "success"); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	ops, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("len(ops) = %d, want 1", len(ops))
	}
	if ops[0].Status != "success" {
		t.Errorf("Status = %q, want success", ops[0].Status)
	}
	if !ops[0].FinishedAt.Valid {
		t.Error("FinishedAt not set")
	}
}

func TestBackupTo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	db.Tasks().Upsert(ctx, &model.Task{ID: "t1", UserID: "alice", Title: "survive backup"})

	dest := t.TempDir() + "/snapshot.db"
	if err := db.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	restored, err := New(dest)
	if err != nil {
		t.Fatalf("opening snapshot: %v", err)
	}
	defer restored.Close()

	tasks, err := restored.Tasks().ListForOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForOwner() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "survive backup" {
		t.Fatalf("snapshot contents = %+v", tasks)
	}
}

// Compile-time checks that the stores satisfy the repository interfaces.
var (
	_ repo.LocalStore[*model.Task]     = (*TaskStore)(nil)
	_ repo.MedicineLocalStore          = (*MedicineStore)(nil)
	_ repo.WellnessLocalStore          = (*WellnessStore)(nil)
	_ repo.LocalStore[*model.Medicine] = (*MedicineStore)(nil)
)
