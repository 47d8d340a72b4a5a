//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

package logging_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"trpc.group/trpc-go/trpc-store-go/log"
	"trpc.group/trpc-go/trpc-store-go/middleware/logging"
	"trpc.group/trpc-go/trpc-store-go/store"
)

type counter struct{ Count int }

type labeled struct {
	Label  string
	hidden int
}

func newObserved() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}

func messages(logs *observer.ObservedLogs) []string {
	var out []string
	for _, e := range logs.AllUntimed() {
		out = append(out, e.Message)
	}
	return out
}

func newStore[S any](initial S, mws ...store.Middleware[S]) (*store.Store[S], store.Setter[S]) {
	return store.Create(initial, mws, func(set store.Setter[S]) store.Setter[S] { return set })
}

func TestMiddleware_LogsBeforeAndAfter(t *testing.T) {
	logger, logs := newObserved()
	s, set := newStore(counter{Count: 1}, store.Middleware[counter](logging.New[counter](logging.WithLogger(logger))))

	calls := 0
	set(func(c *counter) {
		calls++
		c.Count++
	})

	require.Equal(t, 2, s.Read().Count)
	require.Equal(t, 1, calls, "updater must run once")
	require.Equal(t, []string{
		"middleware=logging phase=before state={Count:1}",
		"middleware=logging phase=after state={Count:2}",
	}, messages(logs))
}

func TestMiddleware_LogsBeforeForwarding(t *testing.T) {
	logger, logs := newObserved()
	var logged []int
	inner := store.MiddlewareFunc[counter](func(_ counter, next store.Setter[counter]) store.Setter[counter] {
		return func(u store.Updater[counter]) {
			logged = append(logged, logs.Len())
			next(u)
		}
	})
	s, set := newStore(counter{},
		logging.New[counter](logging.WithLogger(logger), logging.WithName("outer")),
		inner,
	)

	set(func(c *counter) { c.Count = 5 })

	require.Equal(t, []int{2}, logged)
	require.Equal(t, 5, s.Read().Count)
	require.Contains(t, messages(logs)[0], "middleware=outer")
}

func TestMiddleware_IncrementBeyondSeesLoggedValue(t *testing.T) {
	logger, logs := newObserved()
	incrementBeyond := store.MiddlewareFunc[counter](func(_ counter, next store.Setter[counter]) store.Setter[counter] {
		return func(u store.Updater[counter]) {
			next(func(c *counter) {
				u(c)
				c.Count++
			})
		}
	})
	s, set := newStore(counter{},
		logging.New[counter](logging.WithLogger(logger)),
		incrementBeyond,
	)

	set(func(c *counter) { c.Count = 1 })

	require.Equal(t, 2, s.Read().Count)
	// The logging middleware sits outside and reports its own view of the update.
	require.Equal(t, "middleware=logging phase=after state={Count:1}", messages(logs)[1])
}

func TestMiddleware_WithDiff(t *testing.T) {
	logger, logs := newObserved()
	s, set := newStore(labeled{Label: "a", hidden: 1},
		logging.New[labeled](logging.WithLogger(logger), logging.WithDiff()))

	set(func(l *labeled) {
		l.Label = "b"
		l.hidden = 2
	})
	set(func(l *labeled) {})

	require.Equal(t, "b", s.Read().Label)
	msgs := messages(logs)
	require.Len(t, msgs, 2)
	require.Contains(t, msgs[0], "phase=diff")
	require.Contains(t, msgs[0], "Label")
	require.Contains(t, msgs[0], `"a"`)
	require.Contains(t, msgs[0], `"b"`)
	require.NotContains(t, msgs[0], "hidden")
	require.Equal(t, "middleware=logging phase=diff unchanged", msgs[1])
}

func TestMiddleware_FailedUpdaterLogsNothing(t *testing.T) {
	logger, logs := newObserved()
	s, set := newStore(counter{Count: 3}, store.Middleware[counter](logging.New[counter](logging.WithLogger(logger))))

	boom := errors.New("boom")
	err := store.TryUpdate(set, func(c *counter) error {
		c.Count = 100
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Panics(t, func() {
		set(func(*counter) { panic("updater") })
	})

	require.Equal(t, 3, s.Read().Count)
	require.Zero(t, logs.Len())
}

func TestMiddleware_DefaultLogger(t *testing.T) {
	logger, logs := newObserved()
	orig := log.Default
	log.Default = logger
	t.Cleanup(func() { log.Default = orig })

	mw := logging.New[counter](logging.WithName(""))
	require.Equal(t, "logging", mw.Name())
	_, set := newStore(counter{}, store.Middleware[counter](mw))
	set(func(c *counter) { c.Count++ })

	require.Equal(t, 2, logs.Len())
}
