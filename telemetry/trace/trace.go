//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

// Package trace bootstraps OpenTelemetry tracing for store updates.
//
// Tracer is a no-op until Start installs an OTLP-exporting provider:
//
//	clean, err := trace.Start(ctx, trace.WithProtocol("http"))
//	if err != nil {
//		return err
//	}
//	defer clean()
package trace

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	itelemetry "trpc.group/trpc-go/trpc-store-go/internal/telemetry"
)

// Tracer is the tracer used by the store tracing middleware by default.
var Tracer trace.Tracer = noop.NewTracerProvider().Tracer(itelemetry.InstrumentName)

// Start installs a global tracer provider exporting to an OTLP collector and
// points Tracer at it. The returned function flushes and shuts it down.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	o := &options{
		serviceName:      itelemetry.ServiceName,
		serviceVersion:   itelemetry.ServiceVersion,
		serviceNamespace: itelemetry.ServiceNamespace,
		protocol:         itelemetry.ProtocolGRPC,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.tracesEndpoint == "" {
		o.tracesEndpoint = tracesEndpoint(o.protocol)
	}

	res, err := buildResource(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var (
		exporter sdktrace.SpanExporter
		closers  []func() error
	)
	switch o.protocol {
	case itelemetry.ProtocolHTTP:
		exporter, err = newHTTPExporter(ctx, o)
	default:
		exporter, closers, err = newGRPCExporter(ctx, o)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	Tracer = tp.Tracer(itelemetry.InstrumentName)

	return func() error {
		errs := []error{tp.Shutdown(context.Background())}
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}, nil
}

func newHTTPExporter(ctx context.Context, o *options) (sdktrace.SpanExporter, error) {
	httpOpts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
	if o.endpointURL != "" {
		endpoint, path, err := parseEndpointURL(o.endpointURL)
		if err != nil {
			return nil, err
		}
		httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithURLPath(path))
	} else {
		httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(o.tracesEndpoint))
	}
	if len(o.headers) > 0 {
		httpOpts = append(httpOpts, otlptracehttp.WithHeaders(o.headers))
	}
	return otlptracehttp.New(ctx, httpOpts...)
}

func newGRPCExporter(ctx context.Context, o *options) (sdktrace.SpanExporter, []func() error, error) {
	endpoint := o.tracesEndpoint
	if o.endpointURL != "" {
		ep, _, err := parseEndpointURL(o.endpointURL)
		if err != nil {
			return nil, nil, err
		}
		endpoint = ep
	}
	conn, err := itelemetry.NewGRPCConn(endpoint)
	if err != nil {
		return nil, nil, err
	}
	grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithGRPCConn(conn)}
	if len(o.headers) > 0 {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithHeaders(o.headers))
	}
	exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return exporter, []func() error{conn.Close}, nil
}

func tracesEndpoint(protocol string) string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if protocol == itelemetry.ProtocolHTTP {
		// otlptracehttp appends /v1/traces.
		return "localhost:4318"
	}
	return "localhost:4317"
}

// parseEndpointURL splits a collector URL into host:port and path.
// A missing scheme is treated as http.
func parseEndpointURL(raw string) (endpoint, urlPath string, err error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid endpoint url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid endpoint url %q: missing host", raw)
	}
	urlPath = u.Path
	if urlPath == "" {
		urlPath = "/"
	}
	return u.Host, urlPath, nil
}

// Option is a function that configures tracing options.
type Option func(*options)

type options struct {
	tracesEndpoint     string
	endpointURL        string
	headers            map[string]string
	serviceName        string
	serviceVersion     string
	serviceNamespace   string
	protocol           string
	resourceAttributes []attribute.KeyValue
}

// WithEndpoint sets the collector host and port, e.g. "example.com:4317".
// It takes precedence over the OTEL_EXPORTER_OTLP_* environment variables.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.tracesEndpoint = endpoint
	}
}

// WithEndpointURL sets a full collector URL, path included.
// It takes precedence over WithEndpoint.
func WithEndpointURL(endpointURL string) Option {
	return func(opts *options) {
		opts.endpointURL = endpointURL
	}
}

// WithHeaders sets headers sent with every export request.
func WithHeaders(headers map[string]string) Option {
	return func(opts *options) {
		opts.headers = headers
	}
}

// WithProtocol sets the export protocol, "grpc" (default) or "http".
func WithProtocol(protocol string) Option {
	return func(opts *options) {
		opts.protocol = protocol
	}
}

// WithServiceName overrides the service.name resource attribute.
func WithServiceName(serviceName string) Option {
	return func(opts *options) {
		opts.serviceName = serviceName
	}
}

// WithServiceNamespace overrides the service.namespace resource attribute.
func WithServiceNamespace(serviceNamespace string) Option {
	return func(opts *options) {
		opts.serviceNamespace = serviceNamespace
	}
}

// WithServiceVersion overrides the service.version resource attribute.
func WithServiceVersion(serviceVersion string) Option {
	return func(opts *options) {
		opts.serviceVersion = serviceVersion
	}
}

// WithResourceAttributes appends custom resource attributes.
func WithResourceAttributes(attrs ...attribute.KeyValue) Option {
	return func(opts *options) {
		opts.resourceAttributes = append(opts.resourceAttributes, attrs...)
	}
}

func buildResource(ctx context.Context, o *options) (*resource.Resource, error) {
	resourceOpts := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceNamespace(o.serviceNamespace),
			semconv.ServiceName(o.serviceName),
			semconv.ServiceVersion(o.serviceVersion),
		),
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	}
	if len(o.resourceAttributes) > 0 {
		resourceOpts = append(resourceOpts, resource.WithAttributes(o.resourceAttributes...))
	}
	return resource.New(ctx, resourceOpts...)
}
