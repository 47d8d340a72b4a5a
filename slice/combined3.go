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

	"trpc.group/trpc-go/trpc-store-go/store"
)

// CombinedState3 embeds the state of three slices.
type CombinedState3[S1, S2, S3 any] struct {
	Slice1 S1
	Slice2 S2
	Slice3 S3

	fields *index[accessor[CombinedState3[S1, S2, S3]]]
}

// Get returns the flattened member name and whether it exists.
func (c CombinedState3[S1, S2, S3]) Get(name string) (any, bool) {
	return getField(c.fields, &c, name)
}

// Lookup is Get with an ErrUnknownMember error for missing names.
func (c CombinedState3[S1, S2, S3]) Lookup(name string) (any, error) {
	return lookupField(c.fields, &c, name)
}

// Set assigns the flattened member name on the draft.
func (c *CombinedState3[S1, S2, S3]) Set(name string, value any) error {
	return setField(c.fields, c, name, value)
}

// Has reports whether name is a flattened member.
func (c CombinedState3[S1, S2, S3]) Has(name string) bool {
	_, ok := c.fields.lookup(name)
	return ok
}

// Members returns the flattened member names in registration order.
func (c CombinedState3[S1, S2, S3]) Members() []string {
	return c.fields.members()
}

// Owner returns the slice position that owns name.
func (c CombinedState3[S1, S2, S3]) Owner(name string) (int, bool) {
	return c.fields.owner(name)
}

// Shadowed returns the names a later slice declared but an earlier slice won.
func (c CombinedState3[S1, S2, S3]) Shadowed() []string {
	return c.fields.shadowedNames()
}

// Clone implements store.Cloner.
func (c CombinedState3[S1, S2, S3]) Clone() CombinedState3[S1, S2, S3] {
	return CombinedState3[S1, S2, S3]{
		Slice1: store.CloneValue(c.Slice1),
		Slice2: store.CloneValue(c.Slice2),
		Slice3: store.CloneValue(c.Slice3),
		fields: c.fields,
	}
}

// Format prints the sub-states only.
func (c CombinedState3[S1, S2, S3]) Format(f fmt.State, verb rune) {
	formatSubStates(f, verb, c.Slice1, c.Slice2, c.Slice3)
}

// CombinedAction3 aggregates the actions of three slices and the cross action.
type CombinedAction3[A1, A2, A3, X any] struct {
	Slice1 A1
	Slice2 A2
	Slice3 A3
	Cross  X

	actions *index[any]
}

// Action returns the flattened action member name.
func (a CombinedAction3[A1, A2, A3, X]) Action(name string) (any, error) {
	return lookupAction(a.actions, name)
}

// Lookup implements Lookuper.
func (a CombinedAction3[A1, A2, A3, X]) Lookup(name string) (any, error) {
	return a.Action(name)
}

// Has reports whether name is a flattened action member.
func (a CombinedAction3[A1, A2, A3, X]) Has(name string) bool {
	_, ok := a.actions.lookup(name)
	return ok
}

// Members returns the flattened action names in registration order.
func (a CombinedAction3[A1, A2, A3, X]) Members() []string {
	return a.actions.members()
}

// Owner returns the slice position, or OwnerCross, that owns name.
func (a CombinedAction3[A1, A2, A3, X]) Owner(name string) (int, bool) {
	return a.actions.owner(name)
}

// Shadowed returns action names hidden by an earlier registration.
func (a CombinedAction3[A1, A2, A3, X]) Shadowed() []string {
	return a.actions.shadowedNames()
}

// CreateWithSlices3 is CreateWithSlices for three slices.
// Precedence for colliding names is slice 1, slice 2, slice 3, then cross.
func CreateWithSlices3[S1, A1, S2, A2, S3, A3, X any](
	slice1 Slice[S1, A1],
	slice2 Slice[S2, A2],
	slice3 Slice[S3, A3],
	middlewares []store.Middleware[CombinedState3[S1, S2, S3]],
	cross func(set store.Setter[CombinedState3[S1, S2, S3]]) X,
	opts ...store.Option[CombinedState3[S1, S2, S3]],
) (*store.Store[CombinedState3[S1, S2, S3]], CombinedAction3[A1, A2, A3, X]) {
	if slice1 == nil || slice2 == nil || slice3 == nil {
		panic(errNilSlice)
	}
	init1, _ := slice1.Create(store.Noop[S1]())
	init2, _ := slice2.Create(store.Noop[S2]())
	init3, _ := slice3.Create(store.Noop[S3]())

	fields := buildIndex("state",
		liftFields(1, fieldsOf(1, slice1, init1), first3[S1, S2, S3]),
		liftFields(2, fieldsOf(2, slice2, init2), second3[S1, S2, S3]),
		liftFields(3, fieldsOf(3, slice3, init3), third3[S1, S2, S3]),
	)
	initial := CombinedState3[S1, S2, S3]{Slice1: init1, Slice2: init2, Slice3: init3, fields: fields}
	mws := withIndex(middlewares, func(c *CombinedState3[S1, S2, S3]) {
		c.fields = fields
	})

	return store.Create(initial, mws, func(set store.Setter[CombinedState3[S1, S2, S3]]) CombinedAction3[A1, A2, A3, X] {
		_, a1 := slice1.Create(Project(set, first3[S1, S2, S3]))
		_, a2 := slice2.Create(Project(set, second3[S1, S2, S3]))
		_, a3 := slice3.Create(Project(set, third3[S1, S2, S3]))
		var x X
		if cross != nil {
			x = cross(set)
		}
		return CombinedAction3[A1, A2, A3, X]{
			Slice1: a1,
			Slice2: a2,
			Slice3: a3,
			Cross:  x,
			actions: buildIndex("action",
				actionGroup(1, a1),
				actionGroup(2, a2),
				actionGroup(3, a3),
				actionGroup(OwnerCross, x),
			),
		}
	}, opts...)
}

func first3[S1, S2, S3 any](c *CombinedState3[S1, S2, S3]) *S1  { return &c.Slice1 }
func second3[S1, S2, S3 any](c *CombinedState3[S1, S2, S3]) *S2 { return &c.Slice2 }
func third3[S1, S2, S3 any](c *CombinedState3[S1, S2, S3]) *S3  { return &c.Slice3 }
