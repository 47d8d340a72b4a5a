//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

package store

// Updater mutates a draft copy of the state in place.
//
// The draft is never the committed value: the store hands the Updater a clone
// and commits it only after the Updater returns. An Updater that panics
// therefore leaves the store untouched.
type Updater[S any] func(draft *S)

// Setter applies an Updater and commits the result.
//
// Actions capture a Setter and call it:
//
//	increment := func() { set(func(s *Counter) { s.Count++ }) }
type Setter[S any] func(update Updater[S])

// Noop returns a Setter that discards every update.
// Slice composition uses it to obtain initial slice state.
func Noop[S any]() Setter[S] {
	return func(Updater[S]) {}
}

// abortUpdate carries an Updater error out of a Setter call.
type abortUpdate struct {
	err error
}

// TryUpdate runs a fallible mutation through set.
//
// When update returns an error the update is aborted before anything is
// committed and the error is returned. Middlewares that apply the Updater to
// a local copy see the same abort. Panics unrelated to the abort are re-raised.
func TryUpdate[S any](set Setter[S], update func(draft *S) error) (err error) {
	if set == nil || update == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			if a, ok := r.(abortUpdate); ok {
				err = a.err
				return
			}
			panic(r)
		}
	}()
	set(func(draft *S) {
		if e := update(draft); e != nil {
			panic(abortUpdate{err: e})
		}
	})
	return nil
}

// AbortError returns the error carried by a recovered TryUpdate abort, or nil
// when r is any other panic value. Middlewares that recover panics use it to
// report the Updater's error instead of a generic panic.
func AbortError(r any) error {
	if a, ok := r.(abortUpdate); ok {
		return a.err
	}
	return nil
}
