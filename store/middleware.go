//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

package store

// Middleware intercepts state updates.
//
// Apply is invoked once per update with the live state at call time and the
// next Setter in the chain. The returned Setter decides whether to forward the
// Updater, transform it, replace it, or drop it. A middleware that never calls
// next silently discards the update.
//
// Apply and the returned Setter run under the store's writer lock. They must
// not call the store's public Setter, which would wait on that lock forever;
// issue follow-up updates from a Listener or another goroutine instead.
type Middleware[S any] interface {
	Apply(current S, next Setter[S]) Setter[S]
}

// MiddlewareFunc adapts a function to the Middleware interface.
type MiddlewareFunc[S any] func(current S, next Setter[S]) Setter[S]

// Apply implements Middleware.
func (f MiddlewareFunc[S]) Apply(current S, next Setter[S]) Setter[S] {
	return f(current, next)
}

// chain wraps base with middlewares so that middlewares[0] is outermost.
// Each link reads the live state when it is called, never at construction.
func chain[S any](read func() S, base Setter[S], middlewares []Middleware[S]) Setter[S] {
	next := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		mw := middlewares[i]
		if mw == nil {
			continue
		}
		inner := next
		next = func(update Updater[S]) {
			set := mw.Apply(read(), inner)
			if set == nil {
				return
			}
			set(update)
		}
	}
	return next
}
