package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"vtable"
)

// envelopeKeys are tried in order when a file holds an object instead of an
// array.
var envelopeKeys = []string{"users", "rows", "data"}

// FileSource reads a JSON document from disk: either an array of records or
// an object wrapping one under "users", "rows" or "data".
type FileSource struct {
	path     string
	debounce time.Duration
	log      *zap.Logger
}

// NewFileSource returns a source for path.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, debounce: 100 * time.Millisecond, log: logger.Named("file")}
}

func (s *FileSource) Name() string { return s.path }

// Load reads and decodes the whole file.
func (s *FileSource) Load(ctx context.Context) ([]vtable.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	switch d := doc.(type) {
	case []any:
		return toRows(d)
	case map[string]any:
		for _, k := range envelopeKeys {
			if arr, ok := d[k].([]any); ok {
				return toRows(arr)
			}
		}
		return nil, fmt.Errorf("%s: no %v array in object", s.path, envelopeKeys)
	}
	return nil, fmt.Errorf("%s: expected an array or object, got %T", s.path, doc)
}

// Watch reloads the file whenever it changes and hands each complete
// collection to onChange. Editors often replace files instead of writing
// them, so the parent directory is watched and events are filtered by name.
// Bursts of events are coalesced. Watch blocks until ctx is done.
func (s *FileSource) Watch(ctx context.Context, onChange func([]vtable.Row), onErr func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(s.path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	if onErr == nil {
		onErr = func(error) {}
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			pending = time.After(s.debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watch error", zap.Error(err))
			onErr(err)

		case <-pending:
			pending = nil
			rows, err := s.Load(ctx)
			if err != nil {
				s.log.Warn("reload failed", zap.String("path", s.path), zap.Error(err))
				onErr(err)
				continue
			}
			s.log.Info("File reloaded", zap.String("path", s.path), zap.Int("rows", len(rows)))
			onChange(rows)
		}
	}
}
