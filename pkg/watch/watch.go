// Package watch re-parses a requirements export whenever it changes on disk
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/interfaces"
	"github.com/memtensor/reqdocx/pkg/logger"
	"github.com/memtensor/reqdocx/pkg/types"
)

// DefaultDebounce is how long the file must stay quiet before it is parsed
const DefaultDebounce = 500 * time.Millisecond

// Event is the outcome of one parse
type Event struct {
	Path         string
	Requirements []types.Requirement
	Err          error
	At           time.Time
}

// Handler receives every Event. It runs on the watcher goroutine.
type Handler func(Event)

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l interfaces.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher parses path once at start and again after every burst of writes.
// The parent directory is watched so that editors replacing the file by
// rename are followed.
type Watcher struct {
	path     string
	parser   interfaces.RequirementParser
	handler  Handler
	debounce time.Duration
	logger   interfaces.Logger
}

// New creates a watcher for path
func New(path string, parser interfaces.RequirementParser, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		parser:   parser,
		handler:  handler,
		debounce: DefaultDebounce,
		logger:   logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.NewFileError("failed to create file watcher", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return errors.NewFileError("failed to watch directory", err)
	}

	w.logger.Info("watching document", map[string]interface{}{"path": w.path})
	w.parse(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("document changed", map[string]interface{}{"op": event.Op.String()})
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", map[string]interface{}{"error": err.Error()})

		case <-fire:
			fire = nil
			w.parse(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (w *Watcher) parse(ctx context.Context) {
	reqs, err := w.parser.ExtractFile(ctx, w.path)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		w.logger.Error("reparse failed", err, map[string]interface{}{"path": w.path})
	} else {
		w.logger.Info("document reparsed", map[string]interface{}{
			"path":         w.path,
			"requirements": len(reqs),
		})
	}

	w.handler(Event{
		Path:         w.path,
		Requirements: reqs,
		Err:          err,
		At:           time.Now(),
	})
}
