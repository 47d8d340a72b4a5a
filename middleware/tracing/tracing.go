//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

// Package tracing provides a store middleware that records one OpenTelemetry
// span per update.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	itelemetry "trpc.group/trpc-go/trpc-store-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-store-go/store"
	"trpc.group/trpc-go/trpc-store-go/telemetry/trace"
)

// Middleware starts a span around the downstream chain of every update.
// A panicking Updater marks the span as failed and the panic propagates.
type Middleware[S any] struct {
	opts options
}

// New creates a tracing middleware for state type S.
func New[S any](opts ...Option) *Middleware[S] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Middleware[S]{opts: o}
}

// Apply implements store.Middleware.
func (m *Middleware[S]) Apply(_ S, next store.Setter[S]) store.Setter[S] {
	return func(update store.Updater[S]) {
		_, span := m.tracer().Start(m.context(), m.spanName(),
			oteltrace.WithSpanKind(oteltrace.SpanKindInternal),
			oteltrace.WithAttributes(m.opts.attributes...),
		)
		attrs := itelemetry.UpdateAttributes{StoreName: m.opts.storeName, StoreID: m.opts.storeID}
		defer func() {
			r := recover()
			if r != nil {
				attrs.SetRecovered(r)
			}
			itelemetry.TraceUpdate(span, attrs)
			span.End()
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

func (m *Middleware[S]) tracer() oteltrace.Tracer {
	if m.opts.tracer != nil {
		return m.opts.tracer
	}
	return trace.Tracer
}

func (m *Middleware[S]) context() context.Context {
	if m.opts.ctx != nil {
		if ctx := m.opts.ctx(); ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

func (m *Middleware[S]) spanName() string {
	if m.opts.spanName != "" {
		return m.opts.spanName
	}
	return itelemetry.NewUpdateSpanName(m.opts.storeName)
}

// Option configures the tracing middleware.
type Option func(*options)

type options struct {
	tracer     oteltrace.Tracer
	spanName   string
	storeName  string
	storeID    string
	attributes []attribute.KeyValue
	ctx        func() context.Context
}

// WithTracer sets the tracer. Defaults to trace.Tracer at the time of each update.
func WithTracer(tracer oteltrace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithSpanName overrides the span name. Defaults to "update <store name>".
func WithSpanName(name string) Option {
	return func(o *options) {
		o.spanName = name
	}
}

// WithStore sets the store name and ID recorded on every span.
// Pass Store.Name() and Store.ID(), or any stable identifiers.
func WithStore(name, id string) Option {
	return func(o *options) {
		o.storeName = name
		o.storeID = id
	}
}

// WithAttributes adds static attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(o *options) {
		o.attributes = append(o.attributes, attrs...)
	}
}

// WithParent supplies the context spans are started from, e.g. one carrying
// the caller's span. It is called once per update.
func WithParent(ctx func() context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}
