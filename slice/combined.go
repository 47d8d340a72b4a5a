//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

package slice

import (
	"fmt"
	"io"

	"trpc.group/trpc-go/trpc-store-go/store"
)

// CombinedState embeds the state of two slices.
//
// Slice1 and Slice2 are the typed sub-states. Get, Set and Lookup give the
// flattened view over the members both slices declare.
type CombinedState[S1, S2 any] struct {
	Slice1 S1
	Slice2 S2

	fields *index[accessor[CombinedState[S1, S2]]]
}

// Get returns the flattened member name and whether it exists.
func (c CombinedState[S1, S2]) Get(name string) (any, bool) {
	return getField(c.fields, &c, name)
}

// Lookup is Get with an ErrUnknownMember error for missing names.
func (c CombinedState[S1, S2]) Lookup(name string) (any, error) {
	return lookupField(c.fields, &c, name)
}

// Set assigns the flattened member name. It is meant to be called on the draft
// inside an Updater:
//
//	set(func(d *slice.CombinedState[Fish, Bear]) { _ = d.Set("fishes", 0) })
func (c *CombinedState[S1, S2]) Set(name string, value any) error {
	return setField(c.fields, c, name, value)
}

// Has reports whether name is a flattened member.
func (c CombinedState[S1, S2]) Has(name string) bool {
	_, ok := c.fields.lookup(name)
	return ok
}

// Members returns the flattened member names in registration order.
func (c CombinedState[S1, S2]) Members() []string {
	return c.fields.members()
}

// Owner returns the slice position that owns name.
func (c CombinedState[S1, S2]) Owner(name string) (int, bool) {
	return c.fields.owner(name)
}

// Shadowed returns the names a later slice declared but an earlier slice won.
func (c CombinedState[S1, S2]) Shadowed() []string {
	return c.fields.shadowedNames()
}

// Clone implements store.Cloner by cloning each sub-state.
func (c CombinedState[S1, S2]) Clone() CombinedState[S1, S2] {
	return CombinedState[S1, S2]{
		Slice1: store.CloneValue(c.Slice1),
		Slice2: store.CloneValue(c.Slice2),
		fields: c.fields,
	}
}

// Format prints the sub-states only, so %v and %+v in logs stay readable.
func (c CombinedState[S1, S2]) Format(f fmt.State, verb rune) {
	formatSubStates(f, verb, c.Slice1, c.Slice2)
}

// CombinedAction aggregates the actions of two slices and the cross action.
type CombinedAction[A1, A2, X any] struct {
	Slice1 A1
	Slice2 A2
	Cross  X

	actions *index[any]
}

// Action returns the flattened action member name.
func (a CombinedAction[A1, A2, X]) Action(name string) (any, error) {
	return lookupAction(a.actions, name)
}

// Lookup implements Lookuper.
func (a CombinedAction[A1, A2, X]) Lookup(name string) (any, error) {
	return a.Action(name)
}

// Has reports whether name is a flattened action member.
func (a CombinedAction[A1, A2, X]) Has(name string) bool {
	_, ok := a.actions.lookup(name)
	return ok
}

// Members returns the flattened action names in registration order.
func (a CombinedAction[A1, A2, X]) Members() []string {
	return a.actions.members()
}

// Owner returns the slice position, or OwnerCross, that owns name.
func (a CombinedAction[A1, A2, X]) Owner(name string) (int, bool) {
	return a.actions.owner(name)
}

// Shadowed returns action names hidden by an earlier registration.
func (a CombinedAction[A1, A2, X]) Shadowed() []string {
	return a.actions.shadowedNames()
}

// CreateWithSlices composes two slices into one store.
//
// Each slice is created once with a no-op Setter to obtain its initial state
// and once with a Setter projected onto its own sub-state to bind its actions.
// cross, when not nil, receives the unprojected Setter and builds actions that
// update both sub-states in a single Updater. Every update, projected or not,
// passes the whole middleware chain.
//
// When cross is nil, X cannot be inferred and must be given explicitly.
// CreateWithSlices panics if either slice is nil.
func CreateWithSlices[S1, A1, S2, A2, X any](
	slice1 Slice[S1, A1],
	slice2 Slice[S2, A2],
	middlewares []store.Middleware[CombinedState[S1, S2]],
	cross func(set store.Setter[CombinedState[S1, S2]]) X,
	opts ...store.Option[CombinedState[S1, S2]],
) (*store.Store[CombinedState[S1, S2]], CombinedAction[A1, A2, X]) {
	if slice1 == nil || slice2 == nil {
		panic(errNilSlice)
	}
	init1, _ := slice1.Create(store.Noop[S1]())
	init2, _ := slice2.Create(store.Noop[S2]())

	fields := buildIndex("state",
		liftFields(1, fieldsOf(1, slice1, init1), first[S1, S2]),
		liftFields(2, fieldsOf(2, slice2, init2), second[S1, S2]),
	)
	initial := CombinedState[S1, S2]{Slice1: init1, Slice2: init2, fields: fields}
	mws := withIndex(middlewares, func(c *CombinedState[S1, S2]) {
		c.fields = fields
	})

	return store.Create(initial, mws, func(set store.Setter[CombinedState[S1, S2]]) CombinedAction[A1, A2, X] {
		_, a1 := slice1.Create(Project(set, first[S1, S2]))
		_, a2 := slice2.Create(Project(set, second[S1, S2]))
		var x X
		if cross != nil {
			x = cross(set)
		}
		return CombinedAction[A1, A2, X]{
			Slice1: a1,
			Slice2: a2,
			Cross:  x,
			actions: buildIndex("action",
				actionGroup(1, a1),
				actionGroup(2, a2),
				actionGroup(OwnerCross, x),
			),
		}
	}, opts...)
}

func first[S1, S2 any](c *CombinedState[S1, S2]) *S1  { return &c.Slice1 }
func second[S1, S2 any](c *CombinedState[S1, S2]) *S2 { return &c.Slice2 }

// withIndex appends an innermost middleware that restores the member index
// on drafts whose Updater replaced the whole combined value.
func withIndex[C any](middlewares []store.Middleware[C], attach func(*C)) []store.Middleware[C] {
	out := make([]store.Middleware[C], 0, len(middlewares)+1)
	out = append(out, middlewares...)
	return append(out, store.MiddlewareFunc[C](func(_ C, next store.Setter[C]) store.Setter[C] {
		return func(update store.Updater[C]) {
			next(func(draft *C) {
				update(draft)
				attach(draft)
			})
		}
	}))
}

// formatSubStates writes {Slice1:... Slice2:...} for %+v and {... ...} otherwise.
func formatSubStates(f fmt.State, verb rune, subs ...any) {
	format := fmt.FormatString(f, verb)
	_, _ = io.WriteString(f, "{")
	for i, sub := range subs {
		if i > 0 {
			_, _ = io.WriteString(f, " ")
		}
		if f.Flag('+') {
			_, _ = fmt.Fprintf(f, "Slice%d:", i+1)
		}
		_, _ = fmt.Fprintf(f, format, sub)
	}
	_, _ = io.WriteString(f, "}")
}
