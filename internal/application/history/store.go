// Package history keeps the capacity-bounded, newest-first log of accepted
// identification results.
//
// The log is a single JSON array stored under one key of the general
// key-value store. Every operation is a read-modify-write of that array with
// no locking, so two concurrent appends can lose one of the entries. Storage
// failures are logged and swallowed: callers never see an error, and a failed
// read is indistinguishable from an empty history.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/ports"
)

// Store implements ports.HistoryRepository on top of a key-value store.
type Store struct {
	kv       ports.KeyValueStore
	log      ports.Logger
	capacity int
	now      func() time.Time
	newID    func(time.Time) string
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides entry ID generation.
func WithIDGenerator(fn func(time.Time) string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore builds a Store holding at most domain.HistoryCapacity entries.
func NewStore(kv ports.KeyValueStore, log ports.Logger, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		log:      log,
		capacity: domain.HistoryCapacity,
		now:      time.Now,
		newID:    timeOrderedID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records a new entry at the head of the log and persists it before
// returning. The entry is returned even when persistence fails.
func (s *Store) Append(ctx context.Context, record domain.MedicineRecord) domain.HistoryEntry {
	created := s.now()
	entry := domain.HistoryEntry{
		MedicineRecord: record.Normalize(),
		ID:             s.newID(created),
		Timestamp:      created.UnixMilli(),
	}

	entries := append([]domain.HistoryEntry{entry}, s.List(ctx)...)
	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}

	if err := s.save(ctx, entries); err != nil {
		s.log.Error("error adding to history", err, map[string]interface{}{"id": entry.ID})
	}
	return entry
}

// List returns the current snapshot, newest first. It never returns nil.
func (s *Store) List(ctx context.Context) []domain.HistoryEntry {
	raw, found, err := s.kv.Get(ctx, domain.KeyScanHistory)
	if err != nil {
		s.log.Error("error getting history", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err), nil)
		return []domain.HistoryEntry{}
	}
	if !found || raw == "" {
		return []domain.HistoryEntry{}
	}

	var entries []domain.HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.log.Error("error decoding history", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err), nil)
		return []domain.HistoryEntry{}
	}
	for i := range entries {
		entries[i].MedicineRecord = entries[i].MedicineRecord.Normalize()
	}
	if entries == nil {
		return []domain.HistoryEntry{}
	}
	return entries
}

// Get returns a single entry by ID.
func (s *Store) Get(ctx context.Context, id string) (domain.HistoryEntry, bool) {
	for _, entry := range s.List(ctx) {
		if entry.ID == id {
			return entry, true
		}
	}
	return domain.HistoryEntry{}, false
}

// Delete removes the entry with id. Absent IDs are a no-op.
func (s *Store) Delete(ctx context.Context, id string) {
	entries := s.List(ctx)
	kept := make([]domain.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	if err := s.save(ctx, kept); err != nil {
		s.log.Error("error deleting history item", err, map[string]interface{}{"id": id})
	}
}

// Clear removes the whole log.
func (s *Store) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, domain.KeyScanHistory); err != nil {
		s.log.Error("error clearing history", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err), nil)
	}
}

// Export writes the log as JSON lines, newest first.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, entry := range s.List(ctx) {
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) save(ctx context.Context, entries []domain.HistoryEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	if err := s.kv.Set(ctx, domain.KeyScanHistory, string(data)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

// timeOrderedID returns a UUIDv7, whose leading bits are the creation time in
// milliseconds. It falls back to the millisecond timestamp.
func timeOrderedID(created time.Time) string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%d", created.UnixMilli())
	}
	return id.String()
}

var _ ports.HistoryRepository = (*Store)(nil)
