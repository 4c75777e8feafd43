package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/codegen/cmd/codegen/internal/incremental"
	"github.com/albertocavalcante/codegen/internal/fsutil"
	"github.com/albertocavalcante/codegen/internal/log"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

// ErrWatchLimitReached is returned when the OS refuses more watches.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")

// ignoredDirs are never descended into when watching an include tree.
var ignoredDirs = []string{".git", ".build", "node_modules", "DerivedData"}

// Pass runs one generation cycle and reports whether output was written.
type Pass func(ctx context.Context) (generated bool, err error)

// Config configures a Watcher.
type Config struct {
	Includes   string
	SchemaFile string
	OutputFile string
	Debounce   time.Duration
	Pass       Pass

	Writer  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// Watcher reruns a Pass whenever the include set or the schema changes
// content.
type Watcher struct {
	cfg      Config
	includes string
	schema   string
	output   string

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	logger    *Logger

	// passMu serializes passes; last is guarded by it.
	passMu sync.Mutex
	last   incremental.Fingerprint
	ctx    context.Context
}

// New validates cfg and opens a filesystem watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Pass == nil {
		return nil, errors.New("watch: no generation pass configured")
	}
	if cfg.Includes == "" {
		return nil, fmt.Errorf("watch: %w", incremental.ErrEmptyPattern)
	}
	if cfg.SchemaFile == "" {
		return nil, errors.New("watch: schema file is required")
	}
	if !doublestar.ValidatePathPattern(cfg.Includes) {
		return nil, fmt.Errorf("watch: invalid includes pattern %q", cfg.Includes)
	}

	includes, err := filepath.Abs(cfg.Includes)
	if err != nil {
		return nil, err
	}
	schema, err := filepath.Abs(cfg.SchemaFile)
	if err != nil {
		return nil, err
	}
	var output string
	if cfg.OutputFile != "" {
		if output, err = filepath.Abs(cfg.OutputFile); err != nil {
			return nil, err
		}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		cfg:       cfg,
		includes:  includes,
		schema:    schema,
		output:    output,
		fsWatcher: fsWatcher,
		logger: NewLogger(LoggerConfig{
			Writer:  cfg.Writer,
			Verbose: cfg.Verbose,
			NoColor: cfg.NoColor,
			JSON:    cfg.JSON,
		}),
	}, nil
}

// Logger returns the event logger, mostly for its Stats.
func (w *Watcher) Logger() *Logger {
	return w.logger
}

// Run installs watches, performs an initial pass and then reacts to
// changes until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.ctx = ctx

	window := w.cfg.Debounce
	if window <= 0 {
		window = DefaultDebounce
	}
	w.debouncer = NewDebouncer(window, w.handleFlush)
	defer w.debouncer.Stop()

	if err := w.addRecursive(w.includeRoot()); err != nil {
		return err
	}
	if err := w.fsWatcher.Add(filepath.Dir(w.schema)); err != nil {
		return w.watchError(filepath.Dir(w.schema), err)
	}

	inputs := w.initialPass(ctx)
	w.logger.Ready(inputs, w.cfg.Includes, w.cfg.SchemaFile)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// Close releases the filesystem watcher.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

// includeRoot is the static directory prefix of the includes pattern.
func (w *Watcher) includeRoot() string {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(w.includes))
	return filepath.FromSlash(base)
}

// Matches reports whether path is an input the watcher reacts to.
func (w *Watcher) Matches(path string) bool {
	path = filepath.Clean(path)
	if path == w.schema {
		return true
	}
	if path == w.output {
		return false
	}
	ok, err := doublestar.PathMatch(w.includes, path)
	return err == nil && ok
}

func (w *Watcher) initialPass(ctx context.Context) int {
	w.passMu.Lock()
	defer w.passMu.Unlock()

	inputs, err := w.inputs()
	if err != nil {
		w.logger.Error(err)
		return 0
	}
	fp := incremental.FingerprintFiles(inputs)
	w.runPassLocked(ctx, fp)
	return len(inputs)
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			log.Component("watch").Debug("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && slices.Contains(ignoredDirs, d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return w.watchError(path, err)
		}
		return nil
	})
}

func (w *Watcher) watchError(path string, err error) error {
	if isWatchLimitError(err) {
		return fmt.Errorf("%w at %s: %v\n"+
			"Increase the limit with: sudo sysctl fs.inotify.max_user_watches=524288", ErrWatchLimitReached, path, err)
	}
	return fmt.Errorf("watch %s: %w", path, err)
}

func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no space left on device") ||
		strings.Contains(msg, "too many open files")
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if event.Has(fsnotify.Create) {
		if fsutil.IsDir(path) {
			if slices.Contains(ignoredDirs, filepath.Base(path)) {
				return
			}
			if err := w.addRecursive(path); err != nil {
				w.logger.Error(err)
			}
			// Files copied in with the directory produce no events of their own.
			w.debouncer.Add(path)
			return
		}
	}

	if !w.Matches(path) {
		return
	}

	var change ChangeType
	switch {
	case event.Has(fsnotify.Create):
		change = ChangeAdded
	case event.Has(fsnotify.Write):
		change = ChangeModified
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		change = ChangeDeleted
	default:
		return
	}

	w.logger.FileChanged(path, change)
	w.debouncer.Add(path)
}

func (w *Watcher) handleFlush(changed []string) {
	if w.ctx != nil && w.ctx.Err() != nil {
		return
	}

	w.passMu.Lock()
	defer w.passMu.Unlock()

	inputs, err := w.inputs()
	if err != nil {
		w.logger.Error(err)
		return
	}
	fp := incremental.FingerprintFiles(inputs)
	if fp.Equal(w.last) {
		w.logger.UpToDate(w.cfg.OutputFile)
		return
	}

	w.logger.Generating(changed)
	w.runPassLocked(w.ctx, fp)
}

// runPassLocked runs the pass and records fp on success. Caller holds passMu.
func (w *Watcher) runPassLocked(ctx context.Context, fp incremental.Fingerprint) {
	start := time.Now()
	generated, err := w.cfg.Pass(ctx)
	if err != nil {
		w.logger.Error(err)
		return
	}
	w.last = fp
	if generated {
		w.logger.Generated(w.cfg.OutputFile, time.Since(start))
	} else {
		w.logger.UpToDate(w.cfg.OutputFile)
	}
}

// inputs lists the files whose content decides whether to regenerate.
func (w *Watcher) inputs() ([]string, error) {
	files, err := incremental.ExpandGlob(w.includes)
	if err != nil {
		return nil, err
	}
	return append(files, w.schema), nil
}
