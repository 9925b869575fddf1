package history

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/airchains-network/state-conformance/db"
	"golang.org/x/crypto/sha3"
)

const runPrefix = "run_"

// Record is the stored verdict of one scenario run.
type Record struct {
	ID          string        `json:"id"`
	Scenario    string        `json:"scenario"`
	Node        string        `json:"node"`
	Passed      bool          `json:"passed"`
	Differences int           `json:"differences"`
	Error       string        `json:"error,omitempty"`
	Report      string        `json:"report,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}

// RunID derives a stable identifier from what was run, where and when.
func RunID(scenario, node string, started time.Time) string {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(started.UnixNano()))

	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(scenario))
	hash.Write([]byte(node))
	hash.Write(ts[:])
	return hex.EncodeToString(hash.Sum(nil)[:8])
}

// Store keeps run records in a database.
type Store struct {
	db db.DB
}

// NewStore creates a Store over database.
func NewStore(database db.DB) *Store {
	return &Store{db: database}
}

// Save stores r, assigning its ID if unset.
func (s *Store) Save(r *Record) error {
	if r.ID == "" {
		r.ID = RunID(r.Scenario, r.Node, r.StartedAt)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %v", r.ID, err)
	}
	if err := s.db.Put([]byte(runPrefix+r.ID), data); err != nil {
		return fmt.Errorf("failed to store run %s: %v", r.ID, err)
	}
	return nil
}

// Get returns the record with id, or nil if there is none.
func (s *Store) Get(id string) (*Record, error) {
	data, err := s.db.Get([]byte(runPrefix + id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run %s: %v", id, err)
	}
	if data == nil {
		return nil, nil
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse run %s: %v", id, err)
	}
	return &r, nil
}

// List returns up to limit records, most recent first. A non-positive limit
// returns all of them.
func (s *Store) List(limit int) ([]*Record, error) {
	var (
		records []*Record
		decErr  error
	)
	err := s.db.ForEach([]byte(runPrefix), func(key, value []byte) bool {
		var r Record
		if err := json.Unmarshal(value, &r); err != nil {
			decErr = fmt.Errorf("failed to parse %s: %v", key, err)
			return false
		}
		records = append(records, &r)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %v", err)
	}
	if decErr != nil {
		return nil, decErr
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
