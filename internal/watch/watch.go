// Package watch reports changes to individual input files.
//
// Each file is watched through its parent directory so that editors which
// save by writing a temporary file and renaming it over the original are
// still seen. Bursts of events for one file are coalesced into a single
// Event once the file has been quiet for the debounce delay.
package watch

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("file is already being watched")
	ErrNotWatching     = errors.New("file is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
	ErrIsDirectory     = errors.New("path is a directory")
)

// DefaultDebounce is the coalescing window used when none is configured.
const DefaultDebounce = 100 * time.Millisecond

// channelSize is the capacity of the event and error channels.
const channelSize = 16

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates the file was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates the file was written to.
	OpWrite
	// OpRemove indicates the file was removed.
	OpRemove
	// OpRename indicates the file was renamed.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event is a coalesced change to a watched file.
type Event struct {
	// Path is the absolute path of the file.
	Path string

	// Op combines every operation seen during the debounce window.
	Op Op

	// Timestamp is when the last operation was seen.
	Timestamp time.Time
}

// Option configures a Watcher.
type Option func(*options)

type options struct {
	debounce time.Duration
}

// WithDebounce sets the coalescing window. Non-positive values use DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// Watcher watches a set of files.
type Watcher struct {
	mu sync.Mutex

	watcher *fsnotify.Watcher
	delay   time.Duration

	files map[string]bool // absolute file path -> watched
	dirs  map[string]int  // parent directory -> watched file count

	pending map[string]*pendingEvent

	events chan Event
	errors chan error

	closed  bool
	closeCh chan struct{}
	loopWg  sync.WaitGroup
	sendWg  sync.WaitGroup
}

// pendingEvent tracks a debounced event.
type pendingEvent struct {
	event Event
	timer *time.Timer
}

// New creates a watcher and starts its event loop.
func New(opts ...Option) (*Watcher, error) {
	o := options{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	if o.debounce <= 0 {
		o.debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		delay:   o.debounce,
		files:   make(map[string]bool),
		dirs:    make(map[string]int),
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, channelSize),
		errors:  make(chan error, channelSize),
		closeCh: make(chan struct{}),
	}

	w.loopWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Add starts watching a file.
func (w *Watcher) Add(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if info.IsDir() {
		return ErrIsDirectory
	}

	if w.files[absPath] {
		return ErrAlreadyWatching
	}

	dir := filepath.Dir(absPath)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[absPath] = true
	return nil
}

// Remove stops watching a file.
func (w *Watcher) Remove(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !w.files[absPath] {
		return ErrNotWatching
	}

	delete(w.files, absPath)
	if p, ok := w.pending[absPath]; ok {
		p.timer.Stop()
		delete(w.pending, absPath)
	}

	dir := filepath.Dir(absPath)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		return w.watcher.Remove(dir)
	}
	return nil
}

// Files returns the watched files in sorted order.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	slices.Sort(files)
	return files
}

// Events returns the debounced event channel.
// The channel is closed when the watcher is closed.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel.
// The channel is closed when the watcher is closed.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher. Pending events are discarded.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)

	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.loopWg.Wait()
	w.sendWg.Wait()

	close(w.events)
	close(w.errors)

	return w.watcher.Close()
}

// processLoop handles incoming fsnotify events.
func (w *Watcher) processLoop() {
	defer w.loopWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// handleFSEvent filters an fsnotify event to watched files and debounces it.
func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}

	path := filepath.Clean(fsEvent.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || !w.files[path] {
		return
	}

	now := time.Now()
	if p, exists := w.pending[path]; exists {
		p.event.Op |= op
		p.event.Timestamp = now
		p.timer.Reset(w.delay)
		return
	}

	p := &pendingEvent{event: Event{Path: path, Op: op, Timestamp: now}}
	p.timer = time.AfterFunc(w.delay, func() {
		w.fireEvent(path)
	})
	w.pending[path] = p
}

// fireEvent sends a pending event and removes it from the map.
func (w *Watcher) fireEvent(path string) {
	w.mu.Lock()
	p, exists := w.pending[path]
	if !exists || w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	event := p.event
	w.sendWg.Add(1)
	w.mu.Unlock()
	defer w.sendWg.Done()

	select {
	case w.events <- event:
	case <-w.closeCh:
	}
}

// convertOp converts fsnotify.Op to Op. Chmod alone is ignored.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}
