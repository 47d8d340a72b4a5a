//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

// Package histogram provides a float64 histogram whose bucket boundaries can
// be replaced after creation.
package histogram

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"trpc.group/trpc-go/trpc-store-go/telemetry/semconv/metrics"
)

var errNilProvider = errors.New("histogram: meter provider is nil")

// DynamicFloat64Histogram records into a Float64Histogram that is rebuilt
// whenever its buckets change. Samples recorded before a change stay with
// the previous instrument.
type DynamicFloat64Histogram struct {
	provider  metric.MeterProvider
	meterName string
	name      string
	opts      []metric.Float64HistogramOption

	mu         sync.RWMutex
	current    metric.Float64Histogram
	boundaries []float64
}

// NewDynamicFloat64Histogram creates the histogram name on the meter
// meterName of mp with the given initial boundaries, which may be empty.
// opts are kept and reapplied on every rebuild.
func NewDynamicFloat64Histogram(
	mp metric.MeterProvider,
	meterName string,
	name string,
	boundaries []float64,
	opts ...metric.Float64HistogramOption,
) (*DynamicFloat64Histogram, error) {
	if mp == nil {
		return nil, errNilProvider
	}
	d := &DynamicFloat64Histogram{
		provider:  mp,
		meterName: meterName,
		name:      name,
		opts:      opts,
	}
	if err := d.SetBuckets(boundaries); err != nil {
		return nil, err
	}
	return d, nil
}

// Record adds one sample. A nil histogram records nothing.
func (d *DynamicFloat64Histogram) Record(ctx context.Context, value float64, opts ...metric.RecordOption) {
	if d == nil {
		return
	}
	d.mu.RLock()
	h := d.current
	d.mu.RUnlock()
	h.Record(ctx, value, opts...)
}

// SetBuckets replaces the explicit bucket boundaries. Boundaries must be
// strictly increasing; an empty slice restores the SDK defaults.
func (d *DynamicFloat64Histogram) SetBuckets(boundaries []float64) error {
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] <= boundaries[i-1] {
			return fmt.Errorf("histogram %s: boundaries not increasing at index %d", d.name, i)
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	h, err := d.build(boundaries)
	if err != nil {
		return err
	}
	d.current = h
	d.boundaries = append([]float64(nil), boundaries...)
	return nil
}

// Boundaries returns the boundaries last set by SetBuckets.
func (d *DynamicFloat64Histogram) Boundaries() []float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]float64(nil), d.boundaries...)
}

// build asks for a fresh Meter so providers that cache instruments per
// meter hand out a new one.
func (d *DynamicFloat64Histogram) build(boundaries []float64) (metric.Float64Histogram, error) {
	meter := d.provider.Meter(d.meterName,
		metric.WithInstrumentationAttributes(attribute.String(metrics.KeyMetricName, d.name)))
	opts := d.opts
	if len(boundaries) > 0 {
		opts = append(append(make([]metric.Float64HistogramOption, 0, len(d.opts)+1), d.opts...),
			metric.WithExplicitBucketBoundaries(boundaries...))
	}
	h, err := meter.Float64Histogram(d.name, opts...)
	if err != nil {
		return nil, fmt.Errorf("histogram %s: %w", d.name, err)
	}
	return h, nil
}
