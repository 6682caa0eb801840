package diary

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// KV is the part of the persistent store the repository needs.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
}

// Repository is the canonical, insertion-ordered record list. Every mutation
// swaps in a new slice and then writes the whole list to the store.
type Repository struct {
	kv      KV
	records []Record
	lastID  int64
	now     func() time.Time
	logger  *log.Logger

	// synced is the stored value as of the last load or write. Writes are
	// refused while the store holds something else.
	synced  []byte
	tracked bool
}

type Option func(*Repository)

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

func NewRepository(kv KV, opts ...Option) *Repository {
	r := &Repository{
		kv:      kv,
		records: []Record{},
		now:     time.Now,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the in-memory list with what the store holds. A missing key
// gives an empty list. So does an unreadable or malformed value; the error is
// returned so the caller can report it, but the repository stays usable.
func (r *Repository) Load() ([]Record, error) {
	r.records = []Record{}
	r.lastID = 0
	r.synced, r.tracked = nil, false

	data, ok, err := r.kv.Get(StoreKey)
	if err != nil {
		return r.Records(), &StorageError{Op: "read", Key: StoreKey, Err: err}
	}
	r.synced, r.tracked = data, true
	if !ok || len(strings.TrimSpace(string(data))) == 0 {
		return r.Records(), nil
	}

	var stored []Record
	if err := json.Unmarshal(data, &stored); err != nil {
		return r.Records(), &ParseError{Key: StoreKey, Err: err}
	}

	r.records = r.normalize(stored)
	for _, rec := range r.records {
		if rec.ID > r.lastID {
			r.lastID = rec.ID
		}
	}
	r.logger.Debug("loaded records", "count", len(r.records))
	return r.Records(), nil
}

func (r *Repository) normalize(in []Record) []Record {
	seen := make(map[int64]struct{}, len(in))
	out := make([]Record, 0, len(in))
	for _, rec := range in {
		if _, dup := seen[rec.ID]; dup {
			r.logger.Warn("dropping duplicate record", "id", rec.ID)
			continue
		}
		seen[rec.ID] = struct{}{}
		switch {
		case !rec.Completed:
			rec.CompletedDate = nil
		case rec.CompletedDate == nil:
			d := rec.AddedDate
			rec.CompletedDate = &d
		}
		out = append(out, rec)
	}
	return out
}

// Records returns a copy of the canonical list.
func (r *Repository) Records() []Record {
	return cloneRecords(r.records)
}

func (r *Repository) Add(title, description string) (Record, error) {
	if strings.TrimSpace(title) == "" {
		return Record{}, ErrValidation
	}
	now := r.now()
	rec := Record{
		Title:       title,
		Description: description,
		ID:          r.nextID(now),
		AddedDate:   formatTimestamp(now),
	}

	next := make([]Record, 0, len(r.records)+1)
	next = append(next, r.records...)
	next = append(next, rec)
	r.records = next

	r.logger.Info("added record", "id", rec.ID)
	return rec, r.persist()
}

// Edit replaces title and description. Emptiness is not checked here.
func (r *Repository) Edit(id int64, title, description string) (Record, error) {
	return r.update(id, func(rec *Record) {
		rec.Title = title
		rec.Description = description
	})
}

// Complete marks the record done and stamps completedDate, overwriting any
// previous stamp.
func (r *Repository) Complete(id int64) (Record, error) {
	stamp := formatTimestamp(r.now())
	return r.update(id, func(rec *Record) {
		rec.Completed = true
		d := stamp
		rec.CompletedDate = &d
	})
}

func (r *Repository) Remove(id int64) error {
	idx := r.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	next := make([]Record, 0, len(r.records)-1)
	next = append(next, r.records[:idx]...)
	next = append(next, r.records[idx+1:]...)
	r.records = next

	r.logger.Info("removed record", "id", id)
	return r.persist()
}

// Sync writes the current list to the store again. It fails with ErrConflict
// like any other write when the store changed underneath; Load recovers.
func (r *Repository) Sync() error {
	return r.persist()
}

func (r *Repository) update(id int64, fn func(*Record)) (Record, error) {
	idx := r.indexOf(id)
	if idx < 0 {
		return Record{}, ErrNotFound
	}
	next := cloneRecords(r.records)
	fn(&next[idx])
	r.records = next

	r.logger.Info("updated record", "id", id)
	return cloneRecords(next[idx : idx+1])[0], r.persist()
}

func (r *Repository) indexOf(id int64) int {
	for i, rec := range r.records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id
	return id
}

func (r *Repository) persist() error {
	data, err := json.Marshal(r.records)
	if err != nil {
		return &StorageError{Op: "encode", Key: StoreKey, Err: err}
	}
	if r.tracked {
		cur, _, err := r.kv.Get(StoreKey)
		if err != nil {
			r.logger.Error("save failed", "key", StoreKey, "err", err)
			return &StorageError{Op: "read", Key: StoreKey, Err: err}
		}
		if !bytes.Equal(cur, r.synced) {
			r.logger.Warn("save refused: store changed elsewhere", "key", StoreKey)
			return &StorageError{Op: "write", Key: StoreKey, Err: ErrConflict}
		}
	}
	if err := r.kv.Put(StoreKey, data); err != nil {
		r.logger.Error("save failed", "key", StoreKey, "err", err)
		return &StorageError{Op: "write", Key: StoreKey, Err: err}
	}
	r.synced, r.tracked = data, true
	return nil
}
