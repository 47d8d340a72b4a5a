//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

package metric

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	itelemetry "trpc.group/trpc-go/trpc-store-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-store-go/telemetry/semconv/metrics"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		orig, had := os.LookupEnv(k)
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(k, orig)
			} else {
				_ = os.Unsetenv(k)
			}
		})
		_ = os.Setenv(k, v)
	}
}

func restoreInstruments(t *testing.T) {
	t.Helper()
	mp, meter := itelemetry.MeterProvider, itelemetry.StoreMeter
	cnt, dur := itelemetry.StoreMetricTRPCStoreGoUpdateCnt, itelemetry.StoreMetricTRPCStoreGoUpdateDuration
	t.Cleanup(func() {
		itelemetry.MeterProvider, itelemetry.StoreMeter = mp, meter
		itelemetry.StoreMetricTRPCStoreGoUpdateCnt, itelemetry.StoreMetricTRPCStoreGoUpdateDuration = cnt, dur
	})
}

func TestMetricsEndpoint(t *testing.T) {
	setEnv(t, map[string]string{
		"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT": "custom-metric:4318",
		"OTEL_EXPORTER_OTLP_ENDPOINT":         "generic-endpoint:4318",
	})
	require.Equal(t, "custom-metric:4318", metricsEndpoint("grpc"))

	_ = os.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")
	require.Equal(t, "generic-endpoint:4318", metricsEndpoint("grpc"))

	_ = os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	tests := []struct {
		protocol string
		expected string
	}{
		{"grpc", "localhost:4317"},
		{"http", "localhost:4318"},
		{"unknown", "localhost:4317"},
		{"", "localhost:4317"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, metricsEndpoint(tt.protocol), "protocol %q", tt.protocol)
	}
}

func TestNewMeterProvider(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "gRPC endpoint", opts: []Option{WithEndpoint("localhost:4317"), WithProtocol("grpc")}},
		{name: "HTTP endpoint", opts: []Option{WithEndpoint("localhost:4318"), WithProtocol("http")}},
		{name: "default options"},
		{name: "resilient to empty endpoint", opts: []Option{WithEndpoint("")}},
		{name: "resilient to invalid protocol", opts: []Option{WithProtocol("invalid")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mp, err := NewMeterProvider(ctx, tt.opts...)
			require.NoError(t, err)
			require.NotNil(t, mp)
			_ = mp.Shutdown(ctx)
		})
	}
}

func TestOptions(t *testing.T) {
	opts := &options{}
	WithEndpoint("test:4317")(opts)
	WithProtocol("http")(opts)
	WithServiceName("svc")(opts)
	WithServiceNamespace("ns")(opts)
	WithServiceVersion("1.0.0")(opts)
	WithResourceAttributes()(opts)
	WithResourceAttributes(attribute.String("a", "1"))(opts)
	WithResourceAttributes(attribute.String("b", "2"))(opts)

	require.Equal(t, "test:4317", opts.metricsEndpoint)
	require.Equal(t, "http", opts.protocol)
	require.Equal(t, "svc", opts.serviceName)
	require.Equal(t, "ns", opts.serviceNamespace)
	require.Equal(t, "1.0.0", opts.serviceVersion)
	require.Len(t, opts.resourceAttributes, 2)
}

func TestBuildResource(t *testing.T) {
	setEnv(t, map[string]string{
		"OTEL_SERVICE_NAME":        "",
		"OTEL_RESOURCE_ATTRIBUTES": "team=ai,env=staging",
	})
	opts := &options{}
	WithServiceName("option-service")(opts)
	WithServiceNamespace("custom-ns")(opts)
	WithServiceVersion("1.2.3")(opts)
	WithResourceAttributes(attribute.String("team", "store"))(opts)

	res, err := buildResource(context.Background(), opts)
	require.NoError(t, err)

	attrs := map[string]string{}
	for iter := res.Iter(); iter.Next(); {
		kv := iter.Attribute()
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	require.Equal(t, "option-service", attrs[string(semconv.ServiceNameKey)])
	require.Equal(t, "custom-ns", attrs[string(semconv.ServiceNamespaceKey)])
	require.Equal(t, "1.2.3", attrs[string(semconv.ServiceVersionKey)])
	require.Equal(t, "staging", attrs["env"])
	require.Equal(t, "store", attrs["team"])
}

func TestInitMeterProvider(t *testing.T) {
	restoreInstruments(t)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	require.NoError(t, InitMeterProvider(mp))
	require.Same(t, mp, GetMeterProvider())
	require.NotNil(t, itelemetry.StoreMeter)
	require.NotNil(t, itelemetry.StoreMetricTRPCStoreGoUpdateCnt)
	require.NotNil(t, itelemetry.StoreMetricTRPCStoreGoUpdateDuration)

	ctx := context.Background()
	itelemetry.ReportUpdateMetrics(ctx, itelemetry.UpdateAttributes{StoreName: "counter", Forwarded: true}, 2*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	require.True(t, names[metrics.MetricTRPCStoreGoUpdateCnt])
	require.True(t, names[metrics.MetricTRPCStoreGoUpdateDuration])
}

func TestInitMeterProvider_Nil(t *testing.T) {
	restoreInstruments(t)
	require.Error(t, InitMeterProvider(nil))
}

func TestSetHistogramBuckets(t *testing.T) {
	restoreInstruments(t)

	itelemetry.StoreMetricTRPCStoreGoUpdateDuration = nil
	err := SetHistogramBuckets(metrics.MeterNameStore, metrics.MetricTRPCStoreGoUpdateDuration, []float64{1})
	require.ErrorContains(t, err, "not initialized")

	reader := sdkmetric.NewManualReader()
	require.NoError(t, InitMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))))
	require.Equal(t, DefaultDurationBuckets, itelemetry.StoreMetricTRPCStoreGoUpdateDuration.Boundaries())
	require.NoError(t, SetHistogramBuckets(metrics.MeterNameStore, metrics.MetricTRPCStoreGoUpdateDuration, []float64{0.1, 1}))
	require.Equal(t, []float64{0.1, 1}, itelemetry.StoreMetricTRPCStoreGoUpdateDuration.Boundaries())

	itelemetry.ReportUpdateMetrics(context.Background(), itelemetry.UpdateAttributes{Forwarded: true}, 500*time.Millisecond)
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var count uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok {
				for _, dp := range h.DataPoints {
					count += dp.Count
				}
			}
		}
	}
	require.Equal(t, uint64(1), count)

	require.ErrorContains(t, SetHistogramBuckets("other", metrics.MetricTRPCStoreGoUpdateDuration, nil), "unknown or unsupported meter name")
	require.ErrorContains(t, SetHistogramBuckets(metrics.MeterNameStore, metrics.MetricTRPCStoreGoUpdateCnt, nil), "unsupported store histogram")
}
