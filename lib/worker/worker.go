// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrClosed is returned for messages sent to a worker that has been
// closed or whose loop has returned.
var ErrClosed = errors.New("worker is closed")

// DefaultCapacity is the inbox size used when Options leaves it unset.
const DefaultCapacity = 1024

// Message is one item in a worker's inbox.
type Message[Q, R any] struct {
	Request Q
	reply   chan R
}

// Expects reports whether the sender is waiting for a reply.
func (m Message[Q, R]) Expects() bool { return m.reply != nil }

// Reply answers a message sent with Request. It never blocks, and
// does nothing for posted messages or on a second call.
func (m Message[Q, R]) Reply(response R) {
	if m.reply == nil {
		return
	}
	select {
	case m.reply <- response:
	default:
	}
}

// Loop is the body of a worker. It must Reply to every message that
// Expects one, and should return once inbox is closed and drained.
type Loop[Q, R any] func(ctx context.Context, inbox <-chan Message[Q, R]) error

// Options configures a Worker.
type Options struct {
	// Name identifies the worker in log records.
	Name string

	// Capacity is the inbox size. Zero means DefaultCapacity.
	Capacity int

	// Logger receives start and stop records. Nil discards.
	Logger *slog.Logger
}

// Worker is a handle to a running Loop. Its methods are safe for
// concurrent use.
type Worker[Q, R any] struct {
	inbox  chan Message[Q, R]
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool

	done chan struct{}
	err  error
}

// Start runs loop in a new goroutine. ctx is passed to the loop
// unchanged; cancelling it is the loop's business, Close does not.
func Start[Q, R any](ctx context.Context, loop Loop[Q, R], options Options) *Worker[Q, R] {
	capacity := options.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	w := &Worker[Q, R]{
		inbox:  make(chan Message[Q, R], capacity),
		logger: logger.With("worker", options.Name),
		done:   make(chan struct{}),
	}
	go w.run(ctx, loop)
	return w
}

func (w *Worker[Q, R]) run(ctx context.Context, loop Loop[Q, R]) {
	defer close(w.done)
	w.logger.Debug("worker started", "capacity", cap(w.inbox))
	w.err = loop(ctx, w.inbox)
	if w.err != nil {
		w.logger.Debug("worker stopped", "error", w.err)
	} else {
		w.logger.Debug("worker stopped")
	}
}

// Post queues q without waiting for it to be handled. It blocks while
// the inbox is full.
func (w *Worker[Q, R]) Post(ctx context.Context, q Q) error {
	return w.send(ctx, Message[Q, R]{Request: q})
}

// Request queues q and waits for the loop's reply.
func (w *Worker[Q, R]) Request(ctx context.Context, q Q) (R, error) {
	var zero R
	reply := make(chan R, 1)
	if err := w.send(ctx, Message[Q, R]{Request: q, reply: reply}); err != nil {
		return zero, err
	}
	select {
	case response := <-reply:
		return response, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-w.done:
		// The loop may have replied just before returning.
		select {
		case response := <-reply:
			return response, nil
		default:
			return zero, ErrClosed
		}
	}
}

func (w *Worker[Q, R]) send(ctx context.Context, message Message[Q, R]) error {
	// The read lock keeps Close from closing the inbox mid-send.
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case <-w.done:
		return ErrClosed
	default:
	}
	select {
	case w.inbox <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return ErrClosed
	}
}

// Close stops accepting messages, waits for the loop to return, and
// returns its error. Later calls return the same error.
func (w *Worker[Q, R]) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.inbox)
	}
	w.mu.Unlock()
	<-w.done
	return w.err
}

// Done is closed once the loop has returned.
func (w *Worker[Q, R]) Done() <-chan struct{} { return w.done }
