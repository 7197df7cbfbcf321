package togglestore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/preconditions"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
)

// File is a YAML-backed toggle store. The file maps feature paths to
// booleans:
//
//	toggles:
//	  news.premium: true
//	  news.offline: false
//
// The containing directory is watched with fsnotify; edits to the file
// trigger a reload and notify observers, so engines drop any cached results
// that depended on the old toggles.
type File struct {
	path string
	log  *slog.Logger

	mu        sync.Mutex
	toggles   map[features.Path]bool
	observers []preconditions.ToggleObserver

	watcher *fsnotify.Watcher
	done    chan struct{}
}

type toggleFile struct {
	Toggles map[string]bool `yaml:"toggles"`
}

// NewFile loads the toggle file and starts watching it for changes. Close
// stops the watcher.
func NewFile(path string, log *slog.Logger) (*File, error) {
	if log == nil {
		log = discardLogger()
	}
	f := &File{
		path: path,
		log:  log.With(slog.String("toggle_file", path)),
		done: make(chan struct{}),
	}
	if err := f.Reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("togglestore: cannot create watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files on save and
	// the watch would die with the old inode.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("togglestore: cannot watch %q: %w", filepath.Dir(path), err)
	}
	f.watcher = watcher
	go f.watch()
	return f, nil
}

// Reload re-reads the toggle file and notifies observers if it parsed.
func (f *File) Reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("togglestore: cannot read %q: %w", f.path, err)
	}
	var parsed toggleFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("togglestore: cannot parse %q: %w", f.path, err)
	}

	toggles := make(map[features.Path]bool, len(parsed.Toggles))
	for path, enabled := range parsed.Toggles {
		toggles[features.Path(path)] = enabled
	}

	f.mu.Lock()
	f.toggles = toggles
	observers := make([]preconditions.ToggleObserver, len(f.observers))
	copy(observers, f.observers)
	f.mu.Unlock()

	f.log.Debug("toggles loaded", slog.Int("count", len(toggles)))
	// The whole file may have changed; observers get no feature list.
	for _, o := range observers {
		o.ToggleChanged()
	}
	return nil
}

func (f *File) watch() {
	for {
		select {
		case <-f.done:
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if event.Name != f.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := f.Reload(); err != nil {
				f.log.Warn("toggle file reload failed", "error", err)
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Warn("toggle file watch error", "error", err)
		}
	}
}

func (f *File) IsEnabled(feature features.Path) tristate.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	enabled, ok := f.toggles[feature]
	if !ok {
		return tristate.Unknown
	}
	return tristate.FromBool(enabled)
}

func (f *File) AddObserver(o preconditions.ToggleObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, o)
}

// Close stops watching the toggle file.
func (f *File) Close() error {
	close(f.done)
	if f.watcher != nil {
		return f.watcher.Close()
	}
	return nil
}
