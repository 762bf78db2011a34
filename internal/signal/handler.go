// Package signal cancels the adopt command context on SIGINT or SIGTERM so
// in-flight store writes and lock waits stop cleanly.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages
package signal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ErrInterrupted is the cancel cause recorded when a shutdown signal arrives.
var ErrInterrupted = errors.New("interrupted")

// Handler owns a context that is canceled with ErrInterrupted when the
// process receives SIGINT or SIGTERM.
type Handler struct {
	ctx    context.Context //nolint:containedctx // handler owns the context lifecycle
	cancel context.CancelCauseFunc

	sigChan     chan os.Signal
	done        chan struct{}
	interrupted chan struct{}

	mu       sync.Mutex
	received os.Signal

	once     sync.Once
	stopOnce sync.Once
}

// NewHandler starts listening for shutdown signals.
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	err := run(h.Context())
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancelCause(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		sigChan:     make(chan os.Signal, 1),
		done:        make(chan struct{}),
		interrupted: make(chan struct{}),
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen(parent.Done())

	return h
}

// Context returns the context canceled on interrupt.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted is closed when the first shutdown signal arrives.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Signal returns the signal that interrupted the process, or nil.
func (h *Handler) Signal() os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received
}

// Err returns the interrupt cause, or nil if no signal was received.
func (h *Handler) Err() error {
	sig := h.Signal()
	if sig == nil {
		return nil
	}
	return context.Cause(h.ctx)
}

// Stop stops listening and releases the context. Safe to call more than once.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel(context.Canceled)
	})
}

// handleSignal records sig and cancels the context. Later signals are ignored.
func (h *Handler) handleSignal(sig os.Signal) {
	h.once.Do(func() {
		h.mu.Lock()
		h.received = sig
		h.mu.Unlock()
		h.cancel(fmt.Errorf("%w: %s", ErrInterrupted, sig))
		close(h.interrupted)
	})
}

// listen keeps draining sigChan after the first signal until Stop or the
// parent context ends.
func (h *Handler) listen(parentDone <-chan struct{}) {
	for {
		select {
		case <-h.done:
			return
		case <-parentDone:
			return
		case sig := <-h.sigChan:
			h.handleSignal(sig)
		}
	}
}
