//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the process-wide instruments and attribute helpers
// shared by the store tracing and metric middlewares.
package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	semconvtrace "trpc.group/trpc-go/trpc-store-go/telemetry/semconv/trace"
)

// grpcDial is a package-level variable to allow test injection of a custom dialer.
var grpcDial = grpc.Dial

// telemetry service constants.
const (
	ServiceName      = "telemetry"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "trpc-go-store"
	InstrumentName   = "trpc.store.go"

	OperationUpdate = "update"
)

const (
	// ProtocolGRPC uses gRPC protocol for OTLP exporter.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporter.
	ProtocolHTTP string = "http"
)

// Telemetry attribute keys aliases from semconv package.
var (
	ResourceServiceNamespace = semconvtrace.ResourceServiceNamespace
	ResourceServiceName      = semconvtrace.ResourceServiceName
	ResourceServiceVersion   = semconvtrace.ResourceServiceVersion

	KeyOperationName   = semconvtrace.KeyOperationName
	KeyStoreID         = semconvtrace.KeyStoreID
	KeyStoreName       = semconvtrace.KeyStoreName
	KeyUpdateForwarded = semconvtrace.KeyUpdateForwarded
	KeyUpdateResult    = semconvtrace.KeyUpdateResult

	KeyErrorType          = semconvtrace.KeyErrorType
	KeyErrorMessage       = semconvtrace.KeyErrorMessage
	ValueDefaultErrorType = semconvtrace.ValueDefaultErrorType
	ValuePanicErrorType   = semconvtrace.ValuePanicErrorType
)

// NewUpdateSpanName creates the span name for one update, e.g. "update counter".
func NewUpdateSpanName(storeName string) string {
	if storeName == "" {
		return OperationUpdate
	}
	return fmt.Sprintf("%s %s", OperationUpdate, storeName)
}

// TraceUpdate annotates span with the outcome of one update.
func TraceUpdate(span trace.Span, attrs UpdateAttributes) {
	span.SetAttributes(attrs.toAttributes()...)
	span.SetAttributes(attribute.Bool(KeyUpdateForwarded, attrs.Forwarded))
	if attrs.Error != nil {
		span.RecordError(attrs.Error)
		span.SetStatus(codes.Error, attrs.Error.Error())
		span.SetAttributes(attribute.String(KeyErrorMessage, attrs.Error.Error()))
	}
}

// NewGRPCConn creates a new gRPC connection to the OpenTelemetry Collector.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	conn, err := grpcDial(endpoint,
		// Note the use of insecure transport here. TLS is recommended in production.
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}
	return conn, nil
}
