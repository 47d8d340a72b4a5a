//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

// Package trace defines span attribute constants for store instrumentation.
package trace

// telemetry attributes constants.
var (
	ResourceServiceNamespace = "trpc-go-store"
	ResourceServiceName      = "telemetry"
	ResourceServiceVersion   = "v0.1.0"

	KeyOperationName = "trpc_store_go.operation.name"

	KeyStoreID   = "trpc_store_go.store.id"
	KeyStoreName = "trpc_store_go.store.name"

	// KeyUpdateForwarded reports whether the downstream chain received the Updater.
	KeyUpdateForwarded = "trpc_store_go.update.forwarded"
	KeyUpdateResult    = "trpc_store_go.update.result"

	KeyErrorType    = "error.type"
	KeyErrorMessage = "error.message"

	ValueDefaultErrorType = "_OTHER"
	ValuePanicErrorType   = "panic"
)
