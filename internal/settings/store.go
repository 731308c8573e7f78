// Package settings keeps the user's timer configuration in a YAML file and
// tells subscribers when it changes, whether through Update or an edit made
// outside the program.
package settings

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dori/pomodoro/internal/fsutil"
	"github.com/dori/pomodoro/internal/model"
)

// ErrInvalid matches errors from Update and Save when a value is out of
// range.
var ErrInvalid = model.ErrInvalidSettings

// Store is a settings provider backed by a file.
type Store struct {
	path   string
	logger *log.Logger

	mu      sync.RWMutex
	current model.Settings
	subs    map[int]func(model.Settings)
	nextID  int
}

// Open loads the settings at path. A missing file is not an error; the
// defaults are used until something is saved.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s, ignored, err := Load(path)
	if err != nil {
		return nil, err
	}
	if len(ignored) > 0 {
		logger.Printf("settings: ignoring invalid %s", strings.Join(ignored, ", "))
	}
	return &Store{
		path:    path,
		logger:  logger,
		current: s,
		subs:    make(map[int]func(model.Settings)),
	}, nil
}

// Path returns the settings file location.
func (st *Store) Path() string {
	return st.path
}

// Current returns the latest settings snapshot.
func (st *Store) Current() model.Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Update applies fn to a copy of the current settings, validates and saves
// the result, then notifies subscribers.
func (st *Store) Update(fn func(*model.Settings)) error {
	st.mu.Lock()
	next := st.current
	fn(&next)
	if err := Save(st.path, next); err != nil {
		st.mu.Unlock()
		return err
	}
	changed := next != st.current
	st.current = next
	st.mu.Unlock()

	if changed {
		st.publish(next)
	}
	return nil
}

// Reload rereads the file and notifies subscribers if anything changed.
// A file that fails to parse leaves the current settings in place.
func (st *Store) Reload() error {
	next, ignored, err := Load(st.path)
	if err != nil {
		return err
	}
	if len(ignored) > 0 {
		st.logger.Printf("settings: ignoring invalid %s", strings.Join(ignored, ", "))
	}

	st.mu.Lock()
	changed := next != st.current
	st.current = next
	st.mu.Unlock()

	if changed {
		st.logger.Printf("settings: reloaded %s", st.path)
		st.publish(next)
	}
	return nil
}

// Subscribe registers fn for change events and returns a function that
// removes it.
func (st *Store) Subscribe(fn func(model.Settings)) func() {
	st.mu.Lock()
	id := st.nextID
	st.nextID++
	st.subs[id] = fn
	st.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			st.mu.Lock()
			delete(st.subs, id)
			st.mu.Unlock()
		})
	}
}

func (st *Store) publish(s model.Settings) {
	st.mu.RLock()
	subs := make([]func(model.Settings), 0, len(st.subs))
	for _, fn := range st.subs {
		subs = append(subs, fn)
	}
	st.mu.RUnlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Watch reloads the settings whenever the file is written or replaced,
// until ctx is done. It returns once the watcher is in place.
func (st *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// The directory is watched because atomic saves replace the file.
	dir := filepath.Dir(st.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(st.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || fsutil.IsTempFile(st.path, ev.Name) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := st.Reload(); err != nil {
					st.logger.Printf("settings: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				st.logger.Printf("settings: watch error: %v", err)
			}
		}
	}()
	return nil
}
