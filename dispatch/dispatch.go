//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

// Package dispatch runs work on a single owning goroutine fed by a mailbox.
//
// A Dispatcher gives a store a single writer: Serialize wraps a Setter so
// every update from every goroutine is applied on the mailbox goroutine in
// arrival order. Work run by a Dispatcher must not call Do, Close or a
// serialized Setter of the same Dispatcher, since the mailbox goroutine would
// wait on itself. Work that needs to shut its Dispatcher down starts Close on
// another goroutine.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"trpc.group/trpc-go/trpc-store-go/log"
	"trpc.group/trpc-go/trpc-store-go/store"
)

const (
	defaultMailboxSize = 128
	defaultName        = "dispatch"
)

var (
	// ErrClosed is returned when work is submitted after Close.
	ErrClosed = errors.New("dispatcher is closed")
	// ErrMailboxFull is returned by Post when the mailbox has no free slot.
	ErrMailboxFull = errors.New("mailbox is full")
)

// PanicError is returned by Do when the submitted function panicked.
type PanicError struct {
	Value any
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("dispatch: panic: %v", e.Value)
}

type job struct {
	fn func()
	// done receives the recovered panic value, nil on success.
	// It is nil for posted jobs.
	done chan any
}

// Dispatcher owns one goroutine that runs submitted functions in order.
type Dispatcher struct {
	name    string
	mailbox chan job

	mu     sync.RWMutex // guards closed and sends on mailbox
	closed bool

	stopped   chan struct{}
	closeOnce sync.Once
	processed atomic.Uint64
}

// Option configures a Dispatcher.
type Option func(*options)

type options struct {
	mailboxSize int
	name        string
}

// WithMailboxSize sets the number of queued functions the mailbox can hold.
// Values below 1 keep the default.
func WithMailboxSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.mailboxSize = size
		}
	}
}

// WithName names the dispatcher in logs and errors.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// New starts a Dispatcher. Call Close to stop it.
func New(opts ...Option) *Dispatcher {
	o := options{mailboxSize: defaultMailboxSize, name: defaultName}
	for _, opt := range opts {
		opt(&o)
	}
	d := &Dispatcher{
		name:    o.name,
		mailbox: make(chan job, o.mailboxSize),
		stopped: make(chan struct{}),
	}
	go d.loop()
	log.Debugf("dispatch %s: started, mailbox size %d", d.name, o.mailboxSize)
	return d
}

// Name returns the dispatcher name.
func (d *Dispatcher) Name() string {
	return d.name
}

// Processed returns the number of functions run so far.
func (d *Dispatcher) Processed() uint64 {
	return d.processed.Load()
}

// Pending returns the number of functions waiting in the mailbox.
func (d *Dispatcher) Pending() int {
	return len(d.mailbox)
}

// Do runs fn on the mailbox goroutine and waits for it to return.
//
// If ctx is done before fn completes, Do returns ctx.Err(); fn still runs
// if it was already queued. A panic in fn is returned as *PanicError.
func (d *Dispatcher) Do(ctx context.Context, fn func()) error {
	if fn == nil {
		return nil
	}
	j := job{fn: fn, done: make(chan any, 1)}
	if err := d.enqueue(ctx, j, true); err != nil {
		return err
	}
	select {
	case r := <-j.done:
		if r != nil {
			return &PanicError{Value: r}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues fn without waiting. A panic in fn is logged.
func (d *Dispatcher) Post(fn func()) error {
	if fn == nil {
		return nil
	}
	return d.enqueue(context.Background(), job{fn: fn}, false)
}

func (d *Dispatcher) enqueue(ctx context.Context, j job, wait bool) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return fmt.Errorf("dispatch %s: %w", d.name, ErrClosed)
	}
	if !wait {
		select {
		case d.mailbox <- j:
			return nil
		default:
			return fmt.Errorf("dispatch %s: %w", d.name, ErrMailboxFull)
		}
	}
	select {
	case d.mailbox <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work, runs everything already queued and waits for
// the mailbox goroutine to exit. It is safe to call more than once, but not
// from work running on the Dispatcher.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.mailbox)
		d.mu.Unlock()
	})
	<-d.stopped
}

func (d *Dispatcher) loop() {
	defer close(d.stopped)
	for j := range d.mailbox {
		d.run(j)
	}
	log.Debugf("dispatch %s: stopped after %d functions", d.name, d.processed.Load())
}

func (d *Dispatcher) run(j job) {
	defer func() {
		d.processed.Add(1)
		r := recover()
		if j.done != nil {
			j.done <- r
			return
		}
		if r != nil {
			log.Errorf("dispatch %s: posted function panicked: %v", d.name, r)
		}
	}()
	j.fn()
}

// Serialize returns a Setter that applies every update through set on the
// mailbox goroutine of d. The caller waits until the update is committed or
// dropped. A panic raised by the update, including a TryUpdate abort, is
// raised again in the caller. Updates submitted after Close are dropped and
// logged.
func Serialize[S any](d *Dispatcher, set store.Setter[S]) store.Setter[S] {
	return func(update store.Updater[S]) {
		if update == nil {
			return
		}
		err := d.Do(context.Background(), func() { set(update) })
		if err == nil {
			return
		}
		var pe *PanicError
		if errors.As(err, &pe) {
			panic(pe.Value)
		}
		log.Warnf("dispatch %s: update dropped: %v", d.name, err)
	}
}
