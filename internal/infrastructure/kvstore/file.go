package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
)

type fileEntry struct {
	Value     string     `json:"value"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// FileStore keeps the namespace in a single JSON file. Several processes may
// share the file; writers take an advisory lock on path+".lock" around each
// read-modify-write, so concurrent writes to different keys never undo each
// other. Changes made by any process are observed through the file system.
type FileStore struct {
	path string
	lock *flock.Flock
	log  zerolog.Logger
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileStore opens (or prepares) the store at path.
func NewFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &FileStore{path: path, lock: flock.New(path + ".lock"), log: log, now: time.Now}, nil
}

// Get returns the value under key.
func (f *FileStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return "", err
	}
	e, ok := data[key]
	if !ok || expiredAt(e, f.now()) {
		return "", domain.ErrKeyNotFound
	}
	return e.Value, nil
}

// Set stores value under key.
func (f *FileStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := fileEntry{Value: value}
	if ttl > 0 {
		at := f.now().Add(ttl).UTC()
		e.ExpiresAt = &at
	}
	return f.update(func(data map[string]fileEntry) {
		data[key] = e
	})
}

// SetMany stores all values in one file replacement.
func (f *FileStore) SetMany(_ context.Context, values map[string]string) error {
	return f.update(func(data map[string]fileEntry) {
		for k, v := range values {
			data[k] = fileEntry{Value: v}
		}
	})
}

// Delete removes keys in one file replacement.
func (f *FileStore) Delete(_ context.Context, keys ...string) error {
	return f.update(func(data map[string]fileEntry) {
		for _, k := range keys {
			delete(data, k)
		}
	})
}

// Subscribe watches the file and reports the keys whose value changed,
// whoever changed them.
func (f *FileStore) Subscribe(ctx context.Context) (<-chan ports.ChangeEvent, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("file store watch: %w", err)
	}
	// The directory is watched because atomic renames replace the file's inode.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("file store watch: %w", err)
	}

	f.mu.Lock()
	last, err := f.load()
	f.mu.Unlock()
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	out := make(chan ports.ChangeEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(f.path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
					continue
				}

				f.mu.Lock()
				current, err := f.load()
				f.mu.Unlock()
				if err != nil {
					f.log.Warn().Err(err).Str("path", f.path).Msg("reload file store")
					continue
				}

				change, changed := diff(last, current)
				last = current
				if !changed {
					continue
				}
				select {
				case out <- change:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.log.Warn().Err(err).Str("path", f.path).Msg("file store watcher")
			}
		}
	}()
	return out, nil
}

func (f *FileStore) update(mutate func(map[string]fileEntry)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("file store lock: %w", err)
	}
	defer func() {
		if err := f.lock.Unlock(); err != nil {
			f.log.Warn().Err(err).Str("path", f.path).Msg("file store unlock")
		}
	}()

	data, err := f.load()
	if err != nil {
		return err
	}
	now := f.now()
	for k, e := range data {
		if expiredAt(e, now) {
			delete(data, k)
		}
	}
	mutate(data)
	return f.save(data)
}

// load reads the file. A missing or empty file is an empty namespace.
func (f *FileStore) load() (map[string]fileEntry, error) {
	data := make(map[string]fileEntry)

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(raw) == 0) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store read: %w", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		f.log.Warn().Err(err).Str("path", f.path).Msg("corrupt file store, starting empty")
		return make(map[string]fileEntry), nil
	}
	return data, nil
}

// save writes to a temporary file and renames it over the original, so readers
// see either the old or the new namespace, never a partial one.
func (f *FileStore) save(data map[string]fileEntry) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("file store encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("file store write: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("file store write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("file store write: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("file store write: %w", err)
	}
	return nil
}

func expiredAt(e fileEntry, now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// diff reports the keys that differ between two snapshots. Deleted is set
// when every changed key is gone from the newer snapshot.
func diff(before, after map[string]fileEntry) (ports.ChangeEvent, bool) {
	var keys []string
	deleted := true
	for k, a := range after {
		if b, ok := before[k]; !ok || b.Value != a.Value {
			keys = append(keys, k)
			deleted = false
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ports.ChangeEvent{}, false
	}
	sort.Strings(keys)
	return ports.ChangeEvent{Keys: keys, Deleted: deleted}, true
}
