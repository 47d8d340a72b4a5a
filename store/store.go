//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

// Package store provides a minimal reactive state container.
//
// A Store owns a single state value that changes only through Updaters passed
// to a Setter. The Setter runs through an ordered middleware chain before the
// store clones its snapshot, applies the Updater and commits the result.
// Actions are plain values whose closures capture the Setter:
//
//	type Counter struct{ Count int }
//
//	type CounterActions struct {
//		Increment func()
//		Reset     func()
//	}
//
//	s, actions := store.Create(Counter{}, nil, func(set store.Setter[Counter]) CounterActions {
//		return CounterActions{
//			Increment: func() { set(func(c *Counter) { c.Count++ }) },
//			Reset:     func() { set(func(c *Counter) { c.Count = 0 }) },
//		}
//	})
//	actions.Increment()
//	_ = s.Read().Count // 1
//
// Writers are serialized: one Setter call, including its whole middleware
// traversal, runs at a time. Reads return a snapshot copy and never block on
// a running Updater for longer than the commit itself.
//
// The writer lock is not reentrant. Calling a Setter of the same store from
// an Updater, or from a middleware while its traversal is running, blocks
// forever. Follow-up updates belong in a Listener, which runs after the lock
// is released, or on another goroutine, where they run once the current
// update has committed. A next Setter that a middleware keeps and calls after
// its traversal returned takes the writer lock like any other update; it
// must not be called from another goroutine while that traversal is running.
package store

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-store-go/log"
)

// Listener observes commits. It receives copies of the committed state and of
// the state it replaced.
type Listener[S any] func(state, prev S)

// Store holds the current state snapshot.
type Store[S any] struct {
	id   string
	opts options[S]

	// writeMu admits one Setter traversal at a time.
	writeMu sync.Mutex

	mu        sync.RWMutex
	state     S
	version   uint64
	pending   []change[S]
	listeners []subscription[S]
	nextSubID uint64

	middlewares []Middleware[S]
	set         Setter[S]
}

type change[S any] struct {
	state S
	prev  S
}

type subscription[S any] struct {
	id       uint64
	listener Listener[S]
}

// New creates a Store holding initial, wrapped by middlewares.
// Nil middlewares are skipped.
func New[S any](initial S, middlewares []Middleware[S], opts ...Option[S]) *Store[S] {
	s := &Store[S]{opts: newOptions(opts...)}
	s.id = s.opts.id
	if s.id == "" {
		s.id = uuid.New().String()
	}
	s.state = s.opts.clone(initial)
	s.middlewares = append([]Middleware[S](nil), middlewares...)
	s.set = func(update Updater[S]) {
		if update == nil {
			return
		}
		s.dispatch(update)
	}
	return s
}

// Create creates a Store and the actions bound to its Setter.
//
// createAction receives the outermost Setter of the middleware chain; every
// update issued through it passes middlewares[0] first.
func Create[S, A any](
	initial S,
	middlewares []Middleware[S],
	createAction func(set Setter[S]) A,
	opts ...Option[S],
) (*Store[S], A) {
	s := New(initial, middlewares, opts...)
	var action A
	if createAction != nil {
		action = createAction(s.set)
	}
	return s, action
}

// ID returns the identifier set with WithID or generated at construction.
func (s *Store[S]) ID() string {
	return s.id
}

// Name returns the name set with WithName, or the ID when unnamed.
func (s *Store[S]) Name() string {
	if s.opts.name != "" {
		return s.opts.name
	}
	return s.id
}

// Read returns a copy of the latest committed state.
func (s *Store[S]) Read() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts.clone(s.state)
}

// Version returns the number of commits applied so far.
func (s *Store[S]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe registers l to be called after every commit.
// The returned function removes the listener; calling it more than once is safe.
func (s *Store[S]) Subscribe(l Listener[S]) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	listeners := make([]subscription[S], len(s.listeners), len(s.listeners)+1)
	copy(listeners, s.listeners)
	s.listeners = append(listeners, subscription[S]{id: id, listener: l})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *Store[S]) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listeners := make([]subscription[S], 0, len(s.listeners))
	for _, sub := range s.listeners {
		if sub.id != id {
			listeners = append(listeners, sub)
		}
	}
	s.listeners = listeners
}

// traversal marks one public Setter call. Its base Setter commits in place
// while the call runs and takes the writer lock once the call has returned.
type traversal struct {
	active atomic.Bool
}

// dispatch runs one traversal of the middleware chain under the writer lock.
func (s *Store[S]) dispatch(update Updater[S]) {
	s.locked(func() {
		t := &traversal{}
		t.active.Store(true)
		defer t.active.Store(false)
		chain(s.Read, s.baseFor(t), s.middlewares)(update)
	})
}

// locked runs fn under the writer lock. Notifications for commits made by fn
// are delivered after the lock is released, so listeners may issue further
// updates.
func (s *Store[S]) locked(fn func()) {
	s.writeMu.Lock()
	defer func() {
		s.mu.Lock()
		pending := s.pending
		s.pending = nil
		listeners := s.listeners
		s.mu.Unlock()
		s.writeMu.Unlock()
		s.notify(listeners, pending)
	}()
	fn()
}

// baseFor returns the innermost Setter of traversal t: clone, apply, commit.
func (s *Store[S]) baseFor(t *traversal) Setter[S] {
	return func(update Updater[S]) {
		if update == nil {
			return
		}
		if t.active.Load() {
			s.apply(update)
			return
		}
		// A next Setter kept by a middleware and called after its traversal.
		log.Tracef("store %s: late commit through a kept Setter", s.Name())
		s.locked(func() { s.apply(update) })
	}
}

func (s *Store[S]) apply(update Updater[S]) {
	draft := s.Read()
	update(&draft)
	s.commit(draft)
}

// commit must be called under the writer lock.
func (s *Store[S]) commit(next S) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	if s.opts.equal != nil && s.opts.equal(prev, next) {
		log.Tracef("store %s: commit skipped, state unchanged", s.Name())
		return
	}
	s.state = next
	s.version++
	if len(s.listeners) > 0 {
		s.pending = append(s.pending, change[S]{state: next, prev: prev})
	}
	log.Tracef("store %s: committed version %d", s.Name(), s.version)
}

func (s *Store[S]) notify(listeners []subscription[S], changes []change[S]) {
	for _, c := range changes {
		for _, sub := range listeners {
			s.deliver(sub.listener, c)
		}
	}
}

func (s *Store[S]) deliver(l Listener[S], c change[S]) {
	state, prev := s.opts.clone(c.state), s.opts.clone(c.prev)
	if s.opts.pool == nil {
		l(state, prev)
		return
	}
	if err := s.opts.pool.Submit(func() { l(state, prev) }); err != nil {
		log.Warnf("store %s: listener pool rejected notification, delivering inline: %v", s.Name(), err)
		l(state, prev)
	}
}
