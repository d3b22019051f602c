// Package source is the data layer behind the table: it loads row
// collections from HTTP APIs, JSON files, PostgreSQL or a generator, and
// tracks fetch status. Every load yields a complete new collection.
package source

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"vtable"
)

// Source loads a complete row collection.
type Source interface {
	Load(ctx context.Context) ([]vtable.Row, error)
	Name() string
}

// ErrMissingID is returned for records without a usable integer "id".
var ErrMissingID = errors.New("record has no integer id")

// ToRow converts a decoded record into a Row. The record must carry an
// integral "id"; every field, id included, stays addressable by path.
func ToRow(rec map[string]any) (vtable.Row, error) {
	id, ok := intID(rec["id"])
	if !ok {
		return vtable.Row{}, fmt.Errorf("%w: got %v", ErrMissingID, rec["id"])
	}
	return vtable.Row{ID: id, Fields: rec}, nil
}

func intID(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

// toRows converts a decoded JSON array of objects.
func toRows(items []any) ([]vtable.Row, error) {
	rows := make([]vtable.Row, 0, len(items))
	for i, it := range items {
		rec, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d: expected an object, got %T", i, it)
		}
		r, err := ToRow(rec)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// Status is the lifecycle of the most recent fetch.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Store fronts a Source with fetch status. A failed fetch returns no rows, so
// the table keeps showing the previous collection.
type Store struct {
	src     Source
	timeout time.Duration
	log     *zap.Logger

	mu     sync.Mutex
	status Status
}

// NewStore wraps src. A positive timeout bounds each fetch.
func NewStore(src Source, timeout time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		src:     src,
		timeout: timeout,
		log:     logger.Named("store"),
		status:  StatusIdle,
	}
}

// Fetch loads a new collection from the source.
func (s *Store) Fetch(ctx context.Context) ([]vtable.Row, error) {
	s.mu.Lock()
	s.status = StatusLoading
	s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := s.src.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = StatusFailed
		s.log.Error("Fetch failed", zap.String("source", s.src.Name()), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", s.src.Name(), err)
	}
	s.status = StatusSucceeded
	s.log.Info("Fetch succeeded",
		zap.String("source", s.src.Name()),
		zap.Int("rows", len(rows)),
		zap.Duration("took", time.Since(start)))
	return rows, nil
}

// Status returns the state of the most recent fetch.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// FetchStatus reports Status as text for the table's status line.
func (s *Store) FetchStatus() string {
	return string(s.Status())
}

// Name reports the wrapped source's name.
func (s *Store) Name() string {
	return s.src.Name()
}
