//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

package store

import "github.com/panjf2000/ants/v2"

// Option configures a Store.
type Option[S any] func(*options[S])

type options[S any] struct {
	id    string
	name  string
	clone func(S) S
	equal func(a, b S) bool
	pool  *ants.Pool
}

func newOptions[S any](opts ...Option[S]) options[S] {
	o := options[S]{
		clone: CloneValue[S],
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithID sets the store ID instead of a generated UUID. Useful when
// middlewares need the ID before the store exists.
func WithID[S any](id string) Option[S] {
	return func(o *options[S]) {
		o.id = id
	}
}

// WithName sets a human readable store name used in logs, spans and metrics.
func WithName[S any](name string) Option[S] {
	return func(o *options[S]) {
		o.name = name
	}
}

// WithClone overrides how snapshots are copied.
// The default uses Cloner when the state implements it and plain assignment
// otherwise.
func WithClone[S any](clone func(S) S) Option[S] {
	return func(o *options[S]) {
		if clone != nil {
			o.clone = clone
		}
	}
}

// WithEqual makes the store skip commits whose result equals the current
// snapshot. Skipped commits neither bump the version nor notify listeners.
func WithEqual[S any](equal func(a, b S) bool) Option[S] {
	return func(o *options[S]) {
		o.equal = equal
	}
}

// WithListenerPool delivers listener notifications on the given ants pool.
// Delivery order across commits is not guaranteed in this mode. When the pool
// rejects a task the notification is delivered synchronously.
func WithListenerPool[S any](pool *ants.Pool) Option[S] {
	return func(o *options[S]) {
		o.pool = pool
	}
}
