//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

// Package logging provides a store middleware that logs the state before and
// after each update.
//
// The middleware applies the Updater to a private copy to compute the after
// state, logs both, then forwards an Updater that assigns the computed value.
// The caller's Updater therefore runs exactly once per update.
package logging

import (
	"unicode"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"trpc.group/trpc-go/trpc-store-go/log"
	"trpc.group/trpc-go/trpc-store-go/store"
)

const defaultName = "logging"

// Middleware logs store updates.
type Middleware[S any] struct {
	opts options
}

// New creates a logging middleware for state type S.
func New[S any](opts ...Option) *Middleware[S] {
	o := options{name: defaultName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = defaultName
	}
	return &Middleware[S]{opts: o}
}

// Name returns the name shown in every log line.
func (m *Middleware[S]) Name() string { return m.opts.name }

// Apply implements store.Middleware.
func (m *Middleware[S]) Apply(current S, next store.Setter[S]) store.Setter[S] {
	return func(update store.Updater[S]) {
		after := store.CloneValue(current)
		update(&after)

		logger := m.logger()
		if m.opts.diff {
			if d := cmp.Diff(current, after, m.cmpOptions()...); d != "" {
				logger.Infof("middleware=%s phase=diff\n%s", m.opts.name, d)
			} else {
				logger.Infof("middleware=%s phase=diff unchanged", m.opts.name)
			}
		} else {
			logger.Infof("middleware=%s phase=before state=%+v", m.opts.name, current)
			logger.Infof("middleware=%s phase=after state=%+v", m.opts.name, after)
		}

		next(func(draft *S) {
			*draft = store.CloneValue(after)
		})
	}
}

func (m *Middleware[S]) logger() log.Logger {
	if m.opts.logger != nil {
		return m.opts.logger
	}
	return log.Default
}

func (m *Middleware[S]) cmpOptions() []cmp.Option {
	opts := make([]cmp.Option, 0, len(m.opts.cmpOpts)+1)
	opts = append(opts, ignoreUnexported)
	return append(opts, m.opts.cmpOpts...)
}

// ignoreUnexported skips unexported struct fields, which cmp refuses to
// inspect by default.
var ignoreUnexported = cmp.FilterPath(func(p cmp.Path) bool {
	sf, ok := p.Last().(cmp.StructField)
	if !ok {
		return false
	}
	r, _ := utf8.DecodeRuneInString(sf.Name())
	return !unicode.IsUpper(r)
}, cmp.Ignore())
