//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

// Package metrics defines metric name constants for store instrumentation.
package metrics

const (
	// KeyMetricName represents the name of the metric.
	KeyMetricName = "metric.name"
	// KeyTRPCStoreGoResult represents how an update ended: committed, dropped or failed.
	KeyTRPCStoreGoResult = "trpc_store_go.update.result"

	// ValueResultCommitted marks an update that reached the base Setter.
	ValueResultCommitted = "committed"
	// ValueResultDropped marks an update a downstream middleware did not forward.
	ValueResultDropped = "dropped"
	// ValueResultFailed marks an update whose Updater panicked or returned an error.
	ValueResultFailed = "failed"

	// MetricTRPCStoreGoUpdateCnt counts updates passed to a Setter.
	MetricTRPCStoreGoUpdateCnt = "trpc_store_go.store.update_cnt"
	// MetricTRPCStoreGoUpdateDuration records the time spent in the downstream chain.
	MetricTRPCStoreGoUpdateDuration = "trpc_store_go.store.update.duration"

	////////////////////////// meters ////////////////////////

	// MeterNameStore is the meter name for store update operations.
	MeterNameStore = "trpc_store_go.store"
)
