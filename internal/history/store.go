// Package history keeps the bounded, persisted list of generated itineraries
// and the itinerary currently shown in the preview.
package history

import (
	"context"
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/vacay/internal/db"
	"github.com/hpungsan/vacay/internal/errors"
	"github.com/hpungsan/vacay/internal/itinerary"
)

const (
	// MaxRecords is the most itineraries the history ever holds.
	MaxRecords = 50
	// PreviewChars is the number of markdown code points kept as a record preview.
	PreviewChars = 200
)

// maxIDAttempts bounds regeneration when a fresh id collides with a stored one.
const maxIDAttempts = 8

var errIDExhausted = stderrors.New("could not generate a unique history id")

// Slots is the durable storage the store persists into.
// *db.SlotStore satisfies it.
type Slots interface {
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Put(ctx context.Context, name string, value []byte) error
}

// Options configures a Store.
type Options struct {
	// Limit lowers the record cap. Zero or anything above MaxRecords means MaxRecords.
	Limit  int
	Logger *slog.Logger
	Now    func() time.Time
}

// Snapshot is the state restored by Load.
type Snapshot struct {
	Records       []itinerary.Record
	Current       *itinerary.Itinerary
	LastGenerated string
}

// Store is the itinerary history: newest first, at most Limit records, ids unique.
// Every mutation is written to Slots before the method returns.
// All methods are safe for concurrent use; mutations are serialized.
type Store struct {
	mu sync.Mutex

	slots   Slots
	limit   int
	logger  *slog.Logger
	now     func() time.Time
	entropy io.Reader

	records       []itinerary.Record
	current       *itinerary.Itinerary
	lastGenerated string
}

// New creates an empty store. Call Load to restore persisted state.
func New(slots Slots, opts Options) *Store {
	if opts.Limit <= 0 || opts.Limit > MaxRecords {
		opts.Limit = MaxRecords
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		slots:   slots,
		limit:   opts.Limit,
		logger:  opts.Logger,
		now:     opts.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Load replaces the in-memory state with the persisted one.
// Missing, unreadable or corrupt slots yield an empty history or no current
// itinerary; the condition is logged and never returned as an error.
func (s *Store) Load(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = s.loadRecords(ctx)
	s.current = s.loadCurrent(ctx)
	s.lastGenerated = s.loadLastGenerated(ctx)

	s.logger.Info("history loaded", "records", len(s.records), "has_current", s.current != nil)
	return Snapshot{
		Records:       cloneRecords(s.records),
		Current:       cloneItinerary(s.current),
		LastGenerated: s.lastGenerated,
	}
}

func (s *Store) loadRecords(ctx context.Context) []itinerary.Record {
	data, ok, err := s.slots.Get(ctx, db.SlotHistory)
	if err != nil {
		s.logger.Warn("history unreadable, starting empty", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var stored []itinerary.Record
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Warn("history corrupt, starting empty", "error", err)
		return nil
	}

	seen := make(map[string]bool, len(stored))
	records := make([]itinerary.Record, 0, min(len(stored), s.limit))
	for _, r := range stored {
		if r.ID == "" || seen[r.ID] {
			s.logger.Warn("dropping history record with missing or duplicate id", "id", r.ID)
			continue
		}
		seen[r.ID] = true
		records = append(records, r)
		if len(records) == s.limit {
			break
		}
	}
	return records
}

func (s *Store) loadCurrent(ctx context.Context) *itinerary.Itinerary {
	data, ok, err := s.slots.Get(ctx, db.SlotCurrent)
	if err != nil {
		s.logger.Warn("current itinerary unreadable", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var it itinerary.Itinerary
	if err := json.Unmarshal(data, &it); err != nil {
		s.logger.Warn("current itinerary corrupt", "error", err)
		return nil
	}
	return &it
}

func (s *Store) loadLastGenerated(ctx context.Context) string {
	data, ok, err := s.slots.Get(ctx, db.SlotLastGenerated)
	if err != nil {
		s.logger.Warn("last generated timestamp unreadable", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return string(data)
}

// Append records a newly generated itinerary at the head of the history,
// evicts the oldest records beyond the limit, and makes it the current itinerary.
//
// If writing to storage fails, the returned record is still non-nil and the
// in-memory state reflects the append; the error has code PERSISTENCE.
func (s *Store) Append(ctx context.Context, it itinerary.Itinerary, destinationsSummary string) (*itinerary.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id, err := s.newID(now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	rec := itinerary.Record{
		ID:                  id,
		Timestamp:           itinerary.FormatTimestamp(now),
		Itinerary:           it.Clone(),
		DestinationsSummary: destinationsSummary,
		Preview:             itinerary.Preview(it.Markdown, PreviewChars),
	}

	records := make([]itinerary.Record, 0, min(len(s.records)+1, s.limit))
	records = append(records, rec)
	for _, r := range s.records {
		if len(records) == s.limit {
			break
		}
		records = append(records, r)
	}
	s.records = records

	current := it.Clone()
	s.current = &current
	s.lastGenerated = rec.Timestamp

	// Attempt every slot even if an earlier write fails; report the first failure.
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(s.persistRecords(ctx))
	keep(s.persistCurrent(ctx))
	keep(s.put(ctx, db.SlotLastGenerated, []byte(s.lastGenerated)))

	out := cloneRecord(rec)
	return &out, firstErr
}

// Remove deletes the record with the given id.
// It reports whether a record was removed; an unknown id is a no-op and writes nothing.
// The current itinerary is never affected.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}

	records := make([]itinerary.Record, 0, len(s.records)-1)
	records = append(records, s.records[:idx]...)
	records = append(records, s.records[idx+1:]...)
	s.records = records

	return true, s.persistRecords(ctx)
}

// Get returns the record with the given id, or a NOT_FOUND error.
func (s *Store) Get(id string) (*itinerary.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, errors.NewNotFound(id)
	}
	r := cloneRecord(s.records[idx])
	return &r, nil
}

// List returns a copy of the history, newest first.
func (s *Store) List() []itinerary.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.records)
}

// Len returns the number of records in the history.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Limit returns the maximum number of records kept.
func (s *Store) Limit() int {
	return s.limit
}

// Current returns a copy of the current itinerary, or nil if there is none.
func (s *Store) Current() *itinerary.Itinerary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItinerary(s.current)
}

// SetCurrent replaces the current itinerary and persists it.
// The history itself is not modified.
func (s *Store) SetCurrent(ctx context.Context, it itinerary.Itinerary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := it.Clone()
	s.current = &c
	return s.persistCurrent(ctx)
}

// LastGenerated returns the ISO-8601 timestamp of the most recent Append, or "".
func (s *Store) LastGenerated() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastGenerated
}

// newID returns a ULID for now that is not already used in the history.
func (s *Store) newID(now time.Time) (string, error) {
	var lastErr error
	for range maxIDAttempts {
		id, err := ulid.New(ulid.Timestamp(now), s.entropy)
		if err != nil {
			// Monotonic entropy overflowed within this millisecond; start a fresh sequence.
			lastErr = err
			s.entropy = ulid.Monotonic(rand.Reader, 0)
			continue
		}
		if s.indexOf(id.String()) < 0 {
			return id.String(), nil
		}
		s.logger.Warn("generated history id collides, retrying", "id", id.String())
	}
	if lastErr == nil {
		lastErr = errIDExhausted
	}
	return "", lastErr
}

func (s *Store) indexOf(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistRecords(ctx context.Context) error {
	records := s.records
	if records == nil {
		records = []itinerary.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return errors.NewPersistence(db.SlotHistory, err)
	}
	return s.put(ctx, db.SlotHistory, data)
}

func (s *Store) persistCurrent(ctx context.Context) error {
	data, err := json.Marshal(s.current)
	if err != nil {
		return errors.NewPersistence(db.SlotCurrent, err)
	}
	return s.put(ctx, db.SlotCurrent, data)
}

func (s *Store) put(ctx context.Context, slot string, data []byte) error {
	if err := s.slots.Put(ctx, slot, data); err != nil {
		s.logger.Warn("failed to persist slot", "slot", slot, "error", err)
		return errors.NewPersistence(slot, err)
	}
	return nil
}

func cloneRecord(r itinerary.Record) itinerary.Record {
	r.Itinerary = r.Itinerary.Clone()
	return r
}

func cloneRecords(records []itinerary.Record) []itinerary.Record {
	out := make([]itinerary.Record, len(records))
	for i, r := range records {
		out[i] = cloneRecord(r)
	}
	return out
}

func cloneItinerary(it *itinerary.Itinerary) *itinerary.Itinerary {
	if it == nil {
		return nil
	}
	c := it.Clone()
	return &c
}
