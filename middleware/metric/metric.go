//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

// Package metric provides a store middleware that counts updates and records
// their duration with the instruments set up by telemetry/metric.
package metric

import (
	"context"
	"time"

	itelemetry "trpc.group/trpc-go/trpc-store-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-store-go/store"
)

// Middleware reports one count and one duration sample per update.
type Middleware[S any] struct {
	storeName string
	storeID   string
	now       func() time.Time
}

// Option configures the metric middleware.
type Option func(*options)

type options struct {
	storeName string
	storeID   string
	now       func() time.Time
}

// WithStore sets the store name and ID attributes.
func WithStore(name, id string) Option {
	return func(o *options) {
		o.storeName = name
		o.storeID = id
	}
}

// WithClock replaces time.Now for duration measurement.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a metric middleware for state type S.
func New[S any](opts ...Option) *Middleware[S] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.now == nil {
		o.now = time.Now
	}
	return &Middleware[S]{storeName: o.storeName, storeID: o.storeID, now: o.now}
}

// Apply implements store.Middleware.
func (m *Middleware[S]) Apply(_ S, next store.Setter[S]) store.Setter[S] {
	return func(update store.Updater[S]) {
		start := m.now()
		attrs := itelemetry.UpdateAttributes{StoreName: m.storeName, StoreID: m.storeID}
		defer func() {
			r := recover()
			if r != nil {
				attrs.SetRecovered(r)
			}
			itelemetry.ReportUpdateMetrics(context.Background(), attrs, m.now().Sub(start))
			if r != nil {
				panic(r)
			}
		}()
		next(func(draft *S) {
			attrs.Forwarded = true
			update(draft)
		})
	}
}
