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
	"sort"

	"github.com/agnivade/levenshtein"

	"trpc.group/trpc-go/trpc-store-go/log"
)

// OwnerCross identifies members declared by the cross action.
// Slice members are owned by their 1-based slice position.
const OwnerCross = 0

// Field exposes one named member of a state S.
// Set may be nil for read-only members.
type Field[S any] struct {
	Get func(state *S) any
	Set func(state *S, value any) error
}

// Fields maps member names to fields.
type Fields[S any] map[string]Field[S]

// FieldProvider declares the flattened members of a sub-state.
// It may be implemented by the Slice or by its state type, with a value or a
// pointer receiver.
type FieldProvider[S any] interface {
	Fields() Fields[S]
}

// ActionProvider declares the flattened members of an action value, with a
// value or a pointer receiver.
// Values are usually funcs; Call invokes zero-argument ones.
type ActionProvider interface {
	Actions() map[string]any
}

// Ref builds a read-write Field from a pointer accessor:
//
//	slice.Fields[FishState]{"fishes": slice.Ref(func(s *FishState) *int { return &s.Fishes })}
func Ref[S, T any](ref func(state *S) *T) Field[S] {
	return Field[S]{
		Get: func(state *S) any {
			return *ref(state)
		},
		Set: func(state *S, value any) error {
			v, ok := value.(T)
			if !ok {
				var want T
				return fmt.Errorf("%w: got %T, want %T", ErrMemberType, value, want)
			}
			*ref(state) = v
			return nil
		},
	}
}

// ReadOnly builds a Field that can be read but not assigned.
func ReadOnly[S, T any](get func(state *S) T) Field[S] {
	return Field[S]{
		Get: func(state *S) any { return get(state) },
	}
}

// accessor reads and writes one member through the combined state.
type accessor[C any] struct {
	get func(combined *C) any
	set func(combined *C, value any) error
}

type group[V any] struct {
	owner   int
	members map[string]V
}

type entry[V any] struct {
	owner int
	value V
}

// index is the flattened member table built once at composition time.
type index[V any] struct {
	kind     string
	entries  map[string]entry[V]
	names    []string
	shadowed []string
}

func liftFields[C, S any](owner int, fields Fields[S], lens func(combined *C) *S) group[accessor[C]] {
	members := make(map[string]accessor[C], len(fields))
	for name, f := range fields {
		if f.Get == nil {
			continue
		}
		a := accessor[C]{
			get: func(c *C) any { return f.Get(lens(c)) },
		}
		if f.Set != nil {
			a.set = func(c *C, value any) error { return f.Set(lens(c), value) }
		}
		members[name] = a
	}
	return group[accessor[C]]{owner: owner, members: members}
}

// actionGroup collects the members of action. Providers with a pointer
// receiver are found through a copy of the value.
func actionGroup[A any](owner int, action A) group[any] {
	p, ok := any(action).(ActionProvider)
	if !ok {
		p, ok = any(&action).(ActionProvider)
	}
	if !ok {
		if owner != OwnerCross {
			log.Debugf("slice: %s declares no action members; %T does not implement ActionProvider",
				ownerName(owner), action)
		}
		return group[any]{owner: owner}
	}
	return group[any]{owner: owner, members: p.Actions()}
}

// fieldsOf asks the slice, then its initial state, for field declarations.
// Providers with a pointer receiver are found through a copy of the value.
func fieldsOf[S, A any](owner int, sl Slice[S, A], initial S) Fields[S] {
	if p, ok := sl.(FieldProvider[S]); ok {
		return p.Fields()
	}
	if p, ok := any(initial).(FieldProvider[S]); ok {
		return p.Fields()
	}
	if p, ok := any(&initial).(FieldProvider[S]); ok {
		return p.Fields()
	}
	log.Debugf("slice: %s declares no state members; neither the slice nor %T implements FieldProvider",
		ownerName(owner), initial)
	return nil
}

// buildIndex registers groups in order; the first group to declare a name owns it.
func buildIndex[V any](kind string, groups ...group[V]) *index[V] {
	ix := &index[V]{
		kind:    kind,
		entries: make(map[string]entry[V]),
	}
	for _, g := range groups {
		names := make([]string, 0, len(g.members))
		for name := range g.members {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if prev, ok := ix.entries[name]; ok {
				ix.shadowed = append(ix.shadowed, name)
				log.Warnf("slice: %s member %q of %s is shadowed by %s",
					kind, name, ownerName(g.owner), ownerName(prev.owner))
				continue
			}
			ix.entries[name] = entry[V]{owner: g.owner, value: g.members[name]}
			ix.names = append(ix.names, name)
		}
	}
	return ix
}

func (ix *index[V]) lookup(name string) (entry[V], bool) {
	if ix == nil {
		return entry[V]{}, false
	}
	e, ok := ix.entries[name]
	return e, ok
}

func (ix *index[V]) owner(name string) (int, bool) {
	e, ok := ix.lookup(name)
	return e.owner, ok
}

func (ix *index[V]) members() []string {
	if ix == nil {
		return nil
	}
	out := make([]string, len(ix.names))
	copy(out, ix.names)
	return out
}

func (ix *index[V]) shadowedNames() []string {
	if ix == nil || len(ix.shadowed) == 0 {
		return nil
	}
	out := make([]string, len(ix.shadowed))
	copy(out, ix.shadowed)
	return out
}

// unknown builds ErrUnknownMember, suggesting the closest declared name.
func (ix *index[V]) unknown(name string) error {
	if s := ix.suggest(name); s != "" {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownMember, name, s)
	}
	return fmt.Errorf("%w %q", ErrUnknownMember, name)
}

func (ix *index[V]) suggest(name string) string {
	if ix == nil {
		return ""
	}
	best, bestDist := "", len(name)/2+1
	for _, candidate := range ix.names {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

func getField[C any](ix *index[accessor[C]], combined *C, name string) (any, bool) {
	e, ok := ix.lookup(name)
	if !ok {
		return nil, false
	}
	return e.value.get(combined), true
}

func lookupField[C any](ix *index[accessor[C]], combined *C, name string) (any, error) {
	e, ok := ix.lookup(name)
	if !ok {
		return nil, ix.unknown(name)
	}
	return e.value.get(combined), nil
}

func setField[C any](ix *index[accessor[C]], combined *C, name string, value any) error {
	e, ok := ix.lookup(name)
	if !ok {
		return ix.unknown(name)
	}
	if e.value.set == nil {
		return fmt.Errorf("%w: %q", ErrReadOnly, name)
	}
	if err := e.value.set(combined, value); err != nil {
		return fmt.Errorf("set %q: %w", name, err)
	}
	return nil
}

func lookupAction(ix *index[any], name string) (any, error) {
	e, ok := ix.lookup(name)
	if !ok {
		return nil, ix.unknown(name)
	}
	return e.value, nil
}

func ownerName(owner int) string {
	if owner == OwnerCross {
		return "cross action"
	}
	return fmt.Sprintf("slice %d", owner)
}
