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
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"trpc.group/trpc-go/trpc-store-go/store"
	"trpc.group/trpc-go/trpc-store-go/telemetry/metric/histogram"
	"trpc.group/trpc-go/trpc-store-go/telemetry/semconv/metrics"
)

type codedError struct{ code string }

func (e codedError) Error() string     { return "coded " + e.code }
func (e codedError) ErrorType() string { return e.code }

func TestToErrorType(t *testing.T) {
	require.Equal(t, "fallback", ToErrorType(errors.New("plain"), "fallback"))
	require.Equal(t, "conflict", ToErrorType(codedError{code: "conflict"}, "fallback"))
	require.Equal(t, "conflict", ToErrorType(fmt.Errorf("wrap: %w", codedError{code: "conflict"}), "fallback"))
	require.Equal(t, "fallback", ToErrorType(codedError{}, "fallback"))
}

func TestUpdateAttributes_toAttributes(t *testing.T) {
	tests := []struct {
		name     string
		attrs    UpdateAttributes
		expected []attribute.KeyValue
	}{
		{
			name:  "dropped without names",
			attrs: UpdateAttributes{},
			expected: []attribute.KeyValue{
				attribute.String(KeyOperationName, OperationUpdate),
				attribute.String(KeyUpdateResult, metrics.ValueResultDropped),
			},
		},
		{
			name:  "committed with names",
			attrs: UpdateAttributes{StoreName: "zoo", StoreID: "42", Forwarded: true},
			expected: []attribute.KeyValue{
				attribute.String(KeyOperationName, OperationUpdate),
				attribute.String(KeyUpdateResult, metrics.ValueResultCommitted),
				attribute.String(KeyStoreName, "zoo"),
				attribute.String(KeyStoreID, "42"),
			},
		},
		{
			name:  "error without explicit type",
			attrs: UpdateAttributes{Forwarded: true, Error: errors.New("boom")},
			expected: []attribute.KeyValue{
				attribute.String(KeyOperationName, OperationUpdate),
				attribute.String(KeyUpdateResult, metrics.ValueResultFailed),
				attribute.String(KeyErrorType, ValueDefaultErrorType),
			},
		},
		{
			name:  "explicit error type wins",
			attrs: UpdateAttributes{Error: codedError{code: "conflict"}, ErrorType: ValuePanicErrorType},
			expected: []attribute.KeyValue{
				attribute.String(KeyOperationName, OperationUpdate),
				attribute.String(KeyUpdateResult, metrics.ValueResultFailed),
				attribute.String(KeyErrorType, ValuePanicErrorType),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.attrs.toAttributes())
		})
	}
}

func TestReportUpdateMetrics(t *testing.T) {
	origCnt, origDur := StoreMetricTRPCStoreGoUpdateCnt, StoreMetricTRPCStoreGoUpdateDuration
	t.Cleanup(func() {
		StoreMetricTRPCStoreGoUpdateCnt, StoreMetricTRPCStoreGoUpdateDuration = origCnt, origDur
	})

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	var err error
	StoreMetricTRPCStoreGoUpdateCnt, err = mp.Meter(metrics.MeterNameStore).Int64Counter(metrics.MetricTRPCStoreGoUpdateCnt)
	require.NoError(t, err)
	StoreMetricTRPCStoreGoUpdateDuration, err = histogram.NewDynamicFloat64Histogram(mp, metrics.MeterNameStore, metrics.MetricTRPCStoreGoUpdateDuration, nil)
	require.NoError(t, err)

	ctx := context.Background()
	ReportUpdateMetrics(ctx, UpdateAttributes{StoreName: "zoo", Forwarded: true}, 10*time.Millisecond)
	ReportUpdateMetrics(ctx, UpdateAttributes{StoreName: "zoo", Forwarded: true}, 20*time.Millisecond)
	ReportUpdateMetrics(ctx, UpdateAttributes{StoreName: "zoo"}, time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	var histCount uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					result, _ := dp.Attributes.Value(attribute.Key(KeyUpdateResult))
					counts[result.AsString()] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					histCount += dp.Count
				}
			}
		}
	}
	require.Equal(t, map[string]int64{
		metrics.ValueResultCommitted: 2,
		metrics.ValueResultDropped:   1,
	}, counts)
	require.Equal(t, uint64(3), histCount)
}

func TestReportUpdateMetrics_NilInstruments(t *testing.T) {
	origCnt, origDur := StoreMetricTRPCStoreGoUpdateCnt, StoreMetricTRPCStoreGoUpdateDuration
	t.Cleanup(func() {
		StoreMetricTRPCStoreGoUpdateCnt, StoreMetricTRPCStoreGoUpdateDuration = origCnt, origDur
	})
	StoreMetricTRPCStoreGoUpdateCnt, StoreMetricTRPCStoreGoUpdateDuration = nil, nil
	require.NotPanics(t, func() {
		ReportUpdateMetrics(context.Background(), UpdateAttributes{}, time.Second)
	})
}

func TestUpdateAttributes_SetRecovered(t *testing.T) {
	boom := errors.New("boom")
	var a UpdateAttributes
	a.SetRecovered(boom)
	require.Same(t, boom, a.Error)
	require.Equal(t, ValuePanicErrorType, a.ErrorType)

	a = UpdateAttributes{}
	a.SetRecovered("text")
	require.EqualError(t, a.Error, "text")
	require.Equal(t, ValuePanicErrorType, a.ErrorType)

	var recovered any
	err := store.TryUpdate(func(u store.Updater[int]) {
		defer func() { recovered = recover() }()
		n := 0
		u(&n)
	}, func(*int) error { return codedError{code: "conflict"} })
	require.NoError(t, err, "the abort was recovered by the setter")

	a = UpdateAttributes{}
	a.SetRecovered(recovered)
	require.Equal(t, codedError{code: "conflict"}, a.Error)
	require.Empty(t, a.ErrorType)
	require.Equal(t, metrics.ValueResultFailed, a.Result())
	require.Contains(t, a.toAttributes(), attribute.String(KeyErrorType, "conflict"))
}
