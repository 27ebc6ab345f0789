package quota

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// MaxPerDay is the generation ceiling per local calendar day.
const MaxPerDay = 20

// dayFormat is the record's calendar-date key, in the local timezone.
const dayFormat = "2006-01-02"

// Record is the persisted daily counter. A record whose Day no longer
// matches today is stale and is replaced, never merged.
type Record struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Tracker gates generation attempts against the daily ceiling. Availability
// beats strict enforcement: if the store fails, the tracker logs the failure
// and behaves as if the quota were unconstrained for that call.
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker creates a Tracker backed by the given store. A nil clock
// defaults to time.Now.
func NewTracker(store Store, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: store, now: now}
}

// CheckAvailable reports whether today's count is below the ceiling.
// It never mutates persisted state.
func (t *Tracker) CheckAvailable() bool {
	rec, _ := t.load()
	return rec.Count < MaxPerDay
}

// Remaining returns how many generations are left today, floored at zero.
func (t *Tracker) Remaining() int {
	rec, _ := t.load()
	remaining := MaxPerDay - rec.Count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Consume increments today's count by one and persists the record.
// Past the ceiling it is a no-op; the count never exceeds MaxPerDay.
// When the record could not be read, nothing is written either: a fresh
// {today, 1} would clobber a still-valid higher count once the read fault
// clears, so the call simply goes uncounted.
func (t *Tracker) Consume() {
	rec, readable := t.load()
	if !readable {
		log.Warn().Msg("Quota record unreadable; this generation goes uncounted")
		return
	}
	if rec.Count >= MaxPerDay {
		log.Warn().Int("count", rec.Count).Msg("Quota consume called at ceiling; ignoring")
		return
	}

	rec.Count++
	t.persist(rec)
}

// load reads the persisted record, applying the day rollover: any record
// that is absent, unparseable, or keyed to a day other than today (past or
// future) is discarded in favor of a fresh zero-count record for today.
// readable is false only when the store itself failed, which an absent or
// corrupt record is not.
func (t *Tracker) load() (rec Record, readable bool) {
	today := t.now().Format(dayFormat)
	fresh := Record{Day: today, Count: 0}

	data, err := t.store.Get()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fresh, true
		}
		log.Warn().Err(err).Msg("Failed to read quota record; treating quota as unconstrained this call")
		return fresh, false
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		log.Warn().Err(err).Msg("Corrupted quota record; resetting to zero for today")
		return fresh, true
	}

	if rec.Day != today || rec.Count < 0 {
		return fresh, true
	}
	if rec.Count > MaxPerDay {
		rec.Count = MaxPerDay
	}
	return rec, true
}

// persist writes the record back. Write failures are logged, never surfaced;
// the current call simply goes unrecorded.
func (t *Tracker) persist(rec Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to serialize quota record")
		return
	}
	if err := t.store.Set(data); err != nil {
		log.Warn().Err(err).Msg("Failed to persist quota record; this generation goes uncounted")
	}
}
