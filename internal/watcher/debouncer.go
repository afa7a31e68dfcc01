package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces rapid file events into batches of affected folder
// roots. A burst of events under the same root within the window produces
// one reindex trigger, preventing index thrashing while files are still
// being written.
type Debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	output  chan []string
	stopped bool
}

// NewDebouncer creates a debouncer with the given window duration.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]struct{}),
		output:  make(chan []string, 10),
	}
}

// Add marks root as dirty and (re)starts the debounce window.
func (d *Debouncer) Add(root string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending[root] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush emits the pending roots as one batch.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	roots := make([]string, 0, len(d.pending))
	for root := range d.pending {
		roots = append(roots, root)
	}
	d.pending = make(map[string]struct{})

	// Non-blocking send; a full consumer picks the roots up on the next batch
	// because Add re-marks them on further events.
	select {
	case d.output <- roots:
	default:
		slog.Warn("debouncer_output_full", slog.Int("batch_size", len(roots)))
	}
}

// Output returns the channel of debounced root batches.
func (d *Debouncer) Output() <-chan []string {
	return d.output
}

// Stop stops the debouncer and closes the output channel.
// Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
