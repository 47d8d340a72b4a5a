//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

// Package slice composes independently defined sub-stores into one store.
//
// A Slice owns a sub-state and the actions that update it. CreateWithSlices
// combines slices into a single store whose state embeds every sub-state and
// whose action aggregates every slice's actions plus optional cross-slice
// actions that see the whole combined state.
//
// Slices are constructed twice: once with a no-op Setter to obtain the
// initial sub-state, and once with the projected Setter to bind the actions.
// Create must therefore be deterministic and free of side effects.
//
// Combined values expose their members through a flattened, name-based view
// (Get, Set, Lookup). Members are declared, not reflected: a slice or its state
// implements FieldProvider, an action value implements ActionProvider. When two
// slices declare the same name the earlier slice wins: slice 1, then slice 2,
// then slice 3, then the cross action. Shadowed names are reported by Shadowed
// and logged when the store is composed.
package slice

import (
	"errors"
	"fmt"

	"trpc.group/trpc-go/trpc-store-go/store"
)

var (
	// ErrUnknownMember is returned when a flattened lookup names no member.
	ErrUnknownMember = errors.New("unknown member")
	// ErrMemberType is returned when a member does not have the requested type.
	ErrMemberType = errors.New("member type mismatch")
	// ErrReadOnly is returned when assigning a field declared without a setter.
	ErrReadOnly = errors.New("member is read-only")

	errNilSlice = errors.New("slice: nil slice")
)

// Slice defines a sub-state and the actions bound to it.
type Slice[S, A any] interface {
	// Create returns the initial sub-state and the actions that update it
	// through set.
	Create(set store.Setter[S]) (state S, action A)
}

// Func adapts a function to the Slice interface.
type Func[S, A any] func(set store.Setter[S]) (S, A)

// Create implements Slice.
func (f Func[S, A]) Create(set store.Setter[S]) (S, A) {
	return f(set)
}

// Of wraps a create function, typically a method value, as a Slice.
// Unlike a conversion to Func it lets the compiler infer S and A:
//
//	slice.CreateWithSlices(slice.Of(FishSlice{}.Create), slice.Of(BearSlice{}.Create), nil, cross)
func Of[S, A any](create func(set store.Setter[S]) (S, A)) Slice[S, A] {
	return Func[S, A](create)
}

// Project lifts a Setter over C into a Setter over the sub-state selected by
// lens. Updates issued through the result mutate only that sub-state and are
// committed through set, so they still pass the whole middleware chain.
func Project[C, S any](set store.Setter[C], lens func(combined *C) *S) store.Setter[S] {
	return func(update store.Updater[S]) {
		if update == nil {
			return
		}
		set(func(draft *C) {
			update(lens(draft))
		})
	}
}

// Lookuper resolves flattened member names.
// CombinedState and CombinedAction implement it.
type Lookuper interface {
	Lookup(name string) (any, error)
}

// As resolves name on src and asserts the member to T.
func As[T any](src Lookuper, name string) (T, error) {
	var zero T
	v, err := src.Lookup(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, want %T", ErrMemberType, name, v, zero)
	}
	return t, nil
}

// Call invokes the zero-argument action registered under name.
func Call(src Lookuper, name string) error {
	fn, err := As[func()](src, name)
	if err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: %q is a nil func", ErrMemberType, name)
	}
	fn()
	return nil
}
