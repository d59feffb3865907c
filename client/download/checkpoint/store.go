// Package checkpoint persists download resume offsets in a bbolt database
// so an interrupted download can be resumed by a later process.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/adamwoolhether/resumer/client/download"
)

const (
	checkpointsBucket = "checkpoints"
	metadataBucket    = "metadata"
	schemaVersion     = 1
)

// ErrNotFound is returned when no checkpoint exists for a path.
var ErrNotFound = errors.New("checkpoint not found")

// Record is the stored form of a [download.Checkpoint].
type Record struct {
	ID             uuid.UUID `json:"id"`
	URL            string    `json:"url"`
	Path           string    `json:"path"`
	CompletedBytes int64     `json:"completed_bytes"`
	TotalBytes     int64     `json:"total_bytes"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store is a bbolt backed [download.Checkpointer], keyed by destination path.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

var _ download.Checkpointer = (*Store)(nil)

// Open opens, creating if needed, the checkpoint database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint db: %w", err)
	}

	s := &Store{db: db, now: time.Now}

	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initialize() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(checkpointsBucket)); err != nil {
			return fmt.Errorf("creating checkpoints bucket: %w", err)
		}

		meta, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return fmt.Errorf("creating metadata bucket: %w", err)
		}

		if err := meta.Put([]byte("schema_version"), fmt.Appendf(nil, "%d", schemaVersion)); err != nil {
			return fmt.Errorf("storing schema version: %w", err)
		}

		return nil
	})
}

// Save stores cp, keeping the record ID of an earlier checkpoint for the
// same path.
func (s *Store) Save(_ context.Context, cp download.Checkpoint) error {
	if cp.Path == "" {
		return errors.New("checkpoint path must not be empty")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(checkpointsBucket))

		rec := Record{ID: uuid.New()}
		if data := b.Get([]byte(cp.Path)); data != nil {
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("decoding checkpoint: %w", err)
			}
		}

		rec.URL = cp.URL
		rec.Path = cp.Path
		rec.CompletedBytes = cp.CompletedBytes
		rec.TotalBytes = cp.TotalBytes
		rec.UpdatedAt = s.now().UTC()

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding checkpoint: %w", err)
		}

		if err := b.Put([]byte(cp.Path), data); err != nil {
			return fmt.Errorf("saving checkpoint: %w", err)
		}

		return nil
	})
}

// Get returns the checkpoint stored for path.
func (s *Store) Get(_ context.Context, path string) (Record, error) {
	var rec Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(checkpointsBucket)).Get([]byte(path))
		if data == nil {
			return ErrNotFound
		}

		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", path, err)
	}

	return rec, nil
}

// List returns every stored checkpoint ordered by path.
func (s *Store) List(_ context.Context) ([]Record, error) {
	var recs []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(checkpointsBucket)).ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding checkpoint: %w", err)
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return recs, nil
}

// Delete removes the checkpoint for path. Deleting a missing checkpoint
// is not an error.
func (s *Store) Delete(_ context.Context, path string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(checkpointsBucket)).Delete([]byte(path))
	})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
