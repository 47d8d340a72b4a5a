//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

// Package metric wires store update metrics to an OpenTelemetry meter provider.
//
// Until InitMeterProvider is called every instrument is a no-op. A typical
// process exports to an OTLP collector:
//
//	mp, err := metric.NewMeterProvider(ctx, metric.WithProtocol("http"))
//	if err != nil {
//		return err
//	}
//	defer mp.Shutdown(ctx)
//	if err := metric.InitMeterProvider(mp); err != nil {
//		return err
//	}
package metric

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"

	itelemetry "trpc.group/trpc-go/trpc-store-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-store-go/telemetry/metric/histogram"
	"trpc.group/trpc-go/trpc-store-go/telemetry/semconv/metrics"
)

// DefaultDurationBuckets are the update duration boundaries, in seconds.
// Updaters are expected to be pure and fast, so the range starts at 10µs.
var DefaultDurationBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1,
}

// InitMeterProvider initializes the meter provider and the store instruments.
func InitMeterProvider(mp metric.MeterProvider) error {
	if mp == nil {
		return fmt.Errorf("store meter provider is nil")
	}
	itelemetry.MeterProvider = mp

	meterName := metrics.MeterNameStore
	itelemetry.StoreMeter = mp.Meter(meterName)
	var err error
	if itelemetry.StoreMetricTRPCStoreGoUpdateCnt, err = itelemetry.StoreMeter.Int64Counter(
		metrics.MetricTRPCStoreGoUpdateCnt,
		metric.WithDescription("Total number of store updates"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create %s metric %s: %w", meterName, metrics.MetricTRPCStoreGoUpdateCnt, err)
	}
	if itelemetry.StoreMetricTRPCStoreGoUpdateDuration, err = histogram.NewDynamicFloat64Histogram(
		mp,
		meterName,
		metrics.MetricTRPCStoreGoUpdateDuration,
		DefaultDurationBuckets,
		metric.WithDescription("Duration of store updates below the metric middleware"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create %s metric %s: %w", meterName, metrics.MetricTRPCStoreGoUpdateDuration, err)
	}
	return nil
}

// GetMeterProvider returns the meter provider.
func GetMeterProvider() metric.MeterProvider {
	return itelemetry.MeterProvider
}

// SetHistogramBuckets updates bucket boundaries for a specific histogram metric.
// Note: This creates a new histogram instrument; old data is not migrated.
func SetHistogramBuckets(meterName string, metricName string, boundaries []float64) error {
	if meterName != metrics.MeterNameStore {
		return fmt.Errorf("unknown or unsupported meter name: %s", meterName)
	}
	switch metricName {
	case metrics.MetricTRPCStoreGoUpdateDuration:
		if itelemetry.StoreMetricTRPCStoreGoUpdateDuration == nil {
			return fmt.Errorf("store metric %s not initialized", metricName)
		}
		return itelemetry.StoreMetricTRPCStoreGoUpdateDuration.SetBuckets(boundaries)
	default:
		return fmt.Errorf("unknown or unsupported store histogram metric: %s", metricName)
	}
}
