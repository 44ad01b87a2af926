package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"steadyudp/internal/config"
	"steadyudp/internal/runner"
	"steadyudp/internal/stats"
)

const (
	BucketRuns = "runs"
)

var ErrNotFound = errors.New("run not found")

// RunSummary holds the final counters of a run.
type RunSummary struct {
	Sent       uint64  `json:"sent"`
	Received   uint64  `json:"received"`
	Pending    int64   `json:"pending"`
	SendBlocks uint64  `json:"send_would_block"`
	SendErrors uint64  `json:"send_errors"`
	RecvErrors uint64  `json:"recv_errors"`
	Malformed  uint64  `json:"malformed"`
	Cycles     uint64  `json:"cycles"`
	Windows    int     `json:"windows"`
	MeanRate   float64 `json:"mean_rate"`
	P99WorkMs  float64 `json:"p99_cycle_work_ms"`
	MaxWorkMs  float64 `json:"max_cycle_work_ms"`
}

// RunRecord is one stored run.
type RunRecord struct {
	ID      string               `json:"id"`
	Started time.Time            `json:"started"`
	Ended   time.Time            `json:"ended"`
	Config  config.Config        `json:"config"`
	Summary RunSummary           `json:"summary"`
	Windows []stats.WindowReport `json:"windows"`
}

// Duration of the run.
func (r RunRecord) Duration() time.Duration { return r.Ended.Sub(r.Started) }

// NewRecord captures the state of a finished runner. Ids are UUIDv7 so the
// bucket iterates in start order.
func NewRecord(r *runner.Runner, ended time.Time) RunRecord {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	cfg := *r.Cfg
	cfg.Targets = append([]config.Target(nil), r.Cfg.Targets...)
	cfg.Periods = make(map[config.Tier]float64, len(r.Cfg.Periods))
	for t, p := range r.Cfg.Periods {
		cfg.Periods[t] = p
	}

	windows := append([]stats.WindowReport(nil), r.Reports...)
	mean := 0.0
	for _, w := range windows {
		mean += w.Rate
	}
	if len(windows) > 0 {
		mean /= float64(len(windows))
	}

	return RunRecord{
		ID:      id.String(),
		Started: r.Start,
		Ended:   ended,
		Config:  cfg,
		Summary: RunSummary{
			Sent:       r.Stats.Sent,
			Received:   r.Stats.Received,
			Pending:    r.Stats.Pending(),
			SendBlocks: r.Stats.SendBlocks,
			SendErrors: r.Stats.SendErrors,
			RecvErrors: r.Stats.RecvErrors,
			Malformed:  r.Stats.Malformed,
			Cycles:     r.Stats.Cycles,
			Windows:    r.Windows(),
			MeanRate:   mean,
			P99WorkMs:  r.Stats.CycleWorkP99Ms(),
			MaxWorkMs:  r.Stats.CycleWorkMaxMs(),
		},
		Windows: windows,
	}
}

type Store struct {
	db       *bbolt.DB
	filePath string
}

// DefaultPath is ~/.steadyudp/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".steadyudp", "history.db"), nil
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}

	// Initialize Buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:       db,
		filePath: path,
	}, nil
}

func (s *Store) Path() string { return s.filePath }

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(rec RunRecord) error {
	if rec.ID == "" {
		return errors.New("run record without id")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		return b.Put([]byte(rec.ID), data)
	})
}

// List returns stored runs, newest first. Undecodable entries are skipped.
func (s *Store) List() ([]RunRecord, error) {
	var items []RunRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		c := b.Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err == nil {
				items = append(items, rec)
			}
		}
		return nil
	})

	return items, err
}

// Get returns the run with the given id. A unique id prefix is accepted.
func (s *Store) Get(id string) (*RunRecord, error) {
	var rec RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		if v := b.Get([]byte(id)); v != nil {
			return json.Unmarshal(v, &rec)
		}

		var match []byte
		c := b.Cursor()
		prefix := []byte(id)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if match != nil {
				return fmt.Errorf("ambiguous run id %q", id)
			}
			match = v
		}
		if match == nil || id == "" {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(match, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
