// Package interrupt turns SIGINT/SIGTERM into context cancellation.
// The first signal cancels the run so in-flight generation calls and
// episodes stop; a second one within the window exits immediately.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// forceWindow is the time window for a second Ctrl+C to force exit.
const forceWindow = 2 * time.Second

const (
	stopMessage  = "\nStopping... press Ctrl+C again to quit immediately."
	abortMessage = "\nAborted."
)

// Handler cancels a context on the first interrupt and exits on a quick second one.
type Handler struct {
	mu             sync.Mutex
	firstInterrupt time.Time
	interrupted    bool
	stopped        bool
	cancelFunc     context.CancelFunc
	done           chan struct{}

	exitFunc func(int)
	nowFunc  func() time.Time
	stderr   io.Writer
}

// Options holds injectable dependencies for testing.
type Options struct {
	SigCh    <-chan os.Signal
	ExitFunc func(int)
	NowFunc  func() time.Time
	// Stderr must be safe for concurrent writes.
	Stderr io.Writer
}

// NewHandler creates a handler that listens for SIGINT/SIGTERM.
// The returned context is canceled on the first interrupt.
func NewHandler(parent context.Context, stderr io.Writer) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return NewHandlerWithOptions(parent, Options{SigCh: sigCh, Stderr: stderr})
}

// NewHandlerWithOptions creates a handler with injectable dependencies.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancelFunc: cancel,
		done:       make(chan struct{}),
		exitFunc:   opts.ExitFunc,
		nowFunc:    opts.NowFunc,
		stderr:     opts.Stderr,
	}
	if h.exitFunc == nil {
		h.exitFunc = os.Exit
	}
	if h.nowFunc == nil {
		h.nowFunc = time.Now
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}
	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}

			h.mu.Lock()
			if h.stopped {
				h.mu.Unlock()
				return
			}
			now := h.nowFunc()

			if !h.interrupted {
				h.interrupted = true
				h.firstInterrupt = now
				h.cancelFunc()
				h.mu.Unlock()
				_, _ = fmt.Fprintln(h.stderr, stopMessage)
				continue
			}

			if now.Sub(h.firstInterrupt) <= forceWindow {
				h.mu.Unlock()
				_, _ = fmt.Fprintln(h.stderr, abortMessage)
				h.exitFunc(ExitInterrupt)
				return
			}

			// Late second signal: restart the window.
			h.firstInterrupt = now
			h.mu.Unlock()
		}
	}
}

// WasInterrupted reports whether at least one interrupt was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// Stop releases the signal handler and cancels the context. Safe to call twice.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	h.cancelFunc()
	close(h.done)
}
