//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

package logging

import (
	"github.com/google/go-cmp/cmp"

	"trpc.group/trpc-go/trpc-store-go/log"
)

// Option configures the logging middleware.
type Option func(*options)

type options struct {
	name    string
	logger  log.Logger
	diff    bool
	cmpOpts []cmp.Option
}

// WithName sets the name shown in log lines. Defaults to "logging".
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger. Defaults to log.Default at the time of each update.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDiff logs a single go-cmp diff between the before and after states
// instead of both states. cmpOpts are passed to cmp.Diff.
func WithDiff(cmpOpts ...cmp.Option) Option {
	return func(o *options) {
		o.diff = true
		o.cmpOpts = append(o.cmpOpts, cmpOpts...)
	}
}
