package repo

import (
	"context"
	"time"

	"syncwell/internal/identity"
	"syncwell/internal/model"
)

// WellnessSummary aggregates an owner's entries over a period.
type WellnessSummary struct {
	AvgMood   float64
	AvgSleep  float64
	AvgEnergy float64
	Entries   int
}

// WellnessLocalStore extends the generic local store with the time-based
// wellness queries.
type WellnessLocalStore interface {
	LocalStore[*model.WellnessEntry]

	// EntriesForRange returns the owner's entries with timestamps in
	// [from, to], newest first.
	EntriesForRange(ctx context.Context, ownerID string, from, to time.Time) ([]*model.WellnessEntry, error)

	// EntryForDay returns the owner's entry for the calendar day containing
	// day, or nil if none exists.
	EntryForDay(ctx context.Context, ownerID string, day time.Time) (*model.WellnessEntry, error)

	// SummaryForPeriod aggregates mood, sleep and energy over [from, to].
	SummaryForPeriod(ctx context.Context, ownerID string, from, to time.Time) (*WellnessSummary, error)
}

// WellnessRepository is the entity repository for wellness entries.
type WellnessRepository struct {
	*Repository[*model.WellnessEntry]
	local WellnessLocalStore
	idgen IDGenerator
}

// NewWellnessRepository creates the wellness repository.
func NewWellnessRepository(local WellnessLocalStore, remote RemoteStore[*model.WellnessEntry], owner identity.Provider, logger Logger, clock Clock, idgen IDGenerator) *WellnessRepository {
	return &WellnessRepository{
		Repository: New("wellness", local, remote, owner, logger, clock),
		local:      local,
		idgen:      idgen,
	}
}

// EntryForDay returns the owner's entry for the day, or nil. Local-only read.
func (r *WellnessRepository) EntryForDay(ctx context.Context, ownerID string, day time.Time) (*model.WellnessEntry, error) {
	return r.local.EntryForDay(ctx, ownerID, day)
}

// EntriesForRange lists the owner's entries in the window, newest first.
// Local-only read.
func (r *WellnessRepository) EntriesForRange(ctx context.Context, ownerID string, from, to time.Time) ([]*model.WellnessEntry, error) {
	return r.local.EntriesForRange(ctx, ownerID, from, to)
}

// SummaryForPeriod aggregates the owner's entries over the window.
// Local-only read.
func (r *WellnessRepository) SummaryForPeriod(ctx context.Context, ownerID string, from, to time.Time) (*WellnessSummary, error) {
	return r.local.SummaryForPeriod(ctx, ownerID, from, to)
}

// LogForDay applies mutate to the owner's existing entry for the day, or to
// a fresh entry with default goals when none exists, then persists it.
// There is at most one entry per owner per calendar day.
func (r *WellnessRepository) LogForDay(ctx context.Context, day time.Time, mutate func(*model.WellnessEntry)) (*model.WellnessEntry, error) {
	ownerID, ok := r.owner.CurrentOwnerID()
	if !ok {
		return nil, nil
	}

	entry, err := r.local.EntryForDay(ctx, ownerID, day)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = model.NewWellnessEntry(r.idgen.New(), day.Format(model.DateFormat), r.clock.Now())
	}

	mutate(entry)
	if err := r.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
