// Package bbolt provides the ordered append-only event journal.
//
// The journal is the audit trail replaying nodes compare to verify they
// converged on the same event stream: keys are big-endian sequence numbers,
// so a cursor walk yields events in emission order.
package bbolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/openquorum/govledger/internal/services/governance/domain/event"
	"github.com/openquorum/govledger/internal/services/governance/storage"
	"go.etcd.io/bbolt"
)

const eventBucket = "events"

// Journal provides a BoltDB-backed event journal.
type Journal struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed journal at the provided path.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	journal := &Journal{db: db}
	if err := journal.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return journal, nil
}

// Close closes the underlying BoltDB database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) ensureBuckets() error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(eventBucket))
		if err != nil {
			return fmt.Errorf("create event bucket: %w", err)
		}
		return nil
	})
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// AppendEvent appends one event and returns its assigned sequence.
func (j *Journal) AppendEvent(ctx context.Context, evt event.Event) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if j == nil || j.db == nil {
		return 0, fmt.Errorf("journal is not configured")
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}

	var seq uint64
	err = j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(eventBucket))
		if bucket == nil {
			return fmt.Errorf("event bucket is missing")
		}
		next, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next journal sequence: %w", err)
		}
		seq = next
		return bucket.Put(sequenceKey(seq), payload)
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// ListEvents returns up to limit entries after the given sequence, ascending.
func (j *Journal) ListEvents(ctx context.Context, afterSequence uint64, limit int) ([]storage.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("journal is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	var entries []storage.JournalEntry
	err := j.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(eventBucket))
		if bucket == nil {
			return fmt.Errorf("event bucket is missing")
		}
		cursor := bucket.Cursor()
		for key, value := cursor.Seek(sequenceKey(afterSequence + 1)); key != nil; key, value = cursor.Next() {
			var evt event.Event
			if err := json.Unmarshal(value, &evt); err != nil {
				return fmt.Errorf("unmarshal event: %w", err)
			}
			entries = append(entries, storage.JournalEntry{
				Sequence: binary.BigEndian.Uint64(key),
				Event:    evt,
			})
			if len(entries) == limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// LastSequence returns the sequence of the most recently appended event.
func (j *Journal) LastSequence(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if j == nil || j.db == nil {
		return 0, fmt.Errorf("journal is not configured")
	}

	var seq uint64
	err := j.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(eventBucket))
		if bucket == nil {
			return fmt.Errorf("event bucket is missing")
		}
		seq = bucket.Sequence()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// GetEvent fetches one journal entry by sequence.
func (j *Journal) GetEvent(ctx context.Context, sequence uint64) (storage.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return storage.JournalEntry{}, err
	}
	if j == nil || j.db == nil {
		return storage.JournalEntry{}, fmt.Errorf("journal is not configured")
	}

	var entry storage.JournalEntry
	err := j.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(eventBucket))
		if bucket == nil {
			return fmt.Errorf("event bucket is missing")
		}
		payload := bucket.Get(sequenceKey(sequence))
		if payload == nil {
			return storage.ErrNotFound
		}
		var evt event.Event
		if err := json.Unmarshal(payload, &evt); err != nil {
			return fmt.Errorf("unmarshal event: %w", err)
		}
		entry = storage.JournalEntry{Sequence: sequence, Event: evt}
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.JournalEntry{}, storage.ErrNotFound
		}
		return storage.JournalEntry{}, err
	}
	return entry, nil
}
