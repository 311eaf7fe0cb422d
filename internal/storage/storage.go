// Package storage persists predictor state using BoltDB: the latest
// session snapshot for restart recovery, and an append-only history of
// predictions for offline inspection.
//
// Snapshots are stored as the same flat JSON structures the session
// exposes; the store never interprets parameter contents.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"seqpredict/internal/session"
)

const (
	snapshotsBucket   = "snapshots"   // latest snapshot per session id
	predictionsBucket = "predictions" // append-only prediction history
)

// Store provides persistent storage for session state.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath and ensures the
// buckets exist.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "seqpredict.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(snapshotsBucket)); err != nil {
			return fmt.Errorf("create snapshots bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSnapshot stores the latest snapshot for a session id, replacing any
// previous one.
func (s *Store) SaveSnapshot(sessionID string, snap session.Snapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(snapshotsBucket))

		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		return b.Put([]byte(sessionID), data)
	})
}

// LoadSnapshot retrieves the latest snapshot for a session id. The second
// return value is false when none has been stored. A stored value that no
// longer parses is surfaced as an error so the caller can decide whether
// to fall back to defaults.
func (s *Store) LoadSnapshot(sessionID string) (session.Snapshot, bool, error) {
	var snap session.Snapshot
	var found bool

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(snapshotsBucket)).Get([]byte(sessionID))
		if data == nil {
			return nil
		}
		found = true
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("%w: %v", session.ErrCorruptSnapshot, err)
		}
		return nil
	})
	return snap, found, err
}

// DeleteSnapshot removes the stored snapshot for a session id, as part of
// a full reset.
func (s *Store) DeleteSnapshot(sessionID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(snapshotsBucket)).Delete([]byte(sessionID))
	})
}

// PredictionRecord is one historical prediction, keyed by session and time.
type PredictionRecord struct {
	SessionID   string    `json:"session_id"`
	Timestamp   time.Time `json:"timestamp"`
	Label       string    `json:"label,omitempty"`
	Spike       bool      `json:"spike"`
	Probability float64   `json:"probability"`
	Confidence  float64   `json:"confidence"`
	RoughValue  float64   `json:"rough_value,omitempty"`
}

// StorePrediction appends a prediction record. The key format
// "session_timestamp" keeps records ordered for range queries.
func (s *Store) StorePrediction(record PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal prediction record: %w", err)
		}

		key := fmt.Sprintf("%s_%d", record.SessionID, record.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetPredictions retrieves prediction records for a session within a time
// range, inclusive of both ends.
func (s *Store) GetPredictions(sessionID string, start, end time.Time) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()

		prefix := []byte(sessionID + "_")
		startKey := []byte(fmt.Sprintf("%s_%d", sessionID, start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%s_%d", sessionID, end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			if !bytes.HasPrefix(k, prefix) {
				continue
			}

			var record PredictionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue // Skip malformed records
			}
			records = append(records, record)
		}
		return nil
	})

	return records, err
}
