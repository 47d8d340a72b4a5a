//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"trpc.group/trpc-go/trpc-store-go/telemetry/metric/histogram"
	"trpc.group/trpc-go/trpc-store-go/telemetry/semconv/metrics"
)

var (
	// MeterProvider is the provider instruments are created from.
	MeterProvider metric.MeterProvider = noop.NewMeterProvider()

	// StoreMeter is the meter used for recording store update metrics.
	StoreMeter = MeterProvider.Meter(metrics.MeterNameStore)

	// StoreMetricTRPCStoreGoUpdateCnt records the number of updates passed to a Setter.
	StoreMetricTRPCStoreGoUpdateCnt metric.Int64Counter = noop.Int64Counter{}
	// StoreMetricTRPCStoreGoUpdateDuration records the time spent below the middleware, in seconds.
	StoreMetricTRPCStoreGoUpdateDuration *histogram.DynamicFloat64Histogram
)

// UpdateAttributes is the attributes for store update metrics and spans.
type UpdateAttributes struct {
	StoreID   string
	StoreName string
	Forwarded bool
	Error     error
	ErrorType string
}

// Result classifies the update for the result attribute.
func (a UpdateAttributes) Result() string {
	switch {
	case a.Error != nil || a.ErrorType != "":
		return metrics.ValueResultFailed
	case a.Forwarded:
		return metrics.ValueResultCommitted
	default:
		return metrics.ValueResultDropped
	}
}

func (a UpdateAttributes) toAttributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(KeyOperationName, OperationUpdate),
		attribute.String(KeyUpdateResult, a.Result()),
	}
	if a.StoreName != "" {
		attrs = append(attrs, attribute.String(KeyStoreName, a.StoreName))
	}
	if a.StoreID != "" {
		attrs = append(attrs, attribute.String(KeyStoreID, a.StoreID))
	}
	if a.ErrorType != "" {
		attrs = append(attrs, attribute.String(KeyErrorType, a.ErrorType))
	} else if a.Error != nil {
		attrs = append(attrs, attribute.String(KeyErrorType, ToErrorType(a.Error, ValueDefaultErrorType)))
	}
	return attrs
}

// ReportUpdateMetrics reports the store update metrics.
func ReportUpdateMetrics(ctx context.Context, attrs UpdateAttributes, duration time.Duration) {
	as := attrs.toAttributes()
	if StoreMetricTRPCStoreGoUpdateCnt != nil {
		StoreMetricTRPCStoreGoUpdateCnt.Add(ctx, 1, metric.WithAttributes(as...))
	}
	if StoreMetricTRPCStoreGoUpdateDuration != nil {
		StoreMetricTRPCStoreGoUpdateDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(as...))
	}
}
