//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

package store

// Cloner is implemented by state types that hold maps, slices or pointers.
// Clone must return a deep copy that shares no mutable memory with the receiver.
type Cloner[S any] interface {
	Clone() S
}

// CloneValue returns an independent copy of v.
// Values implementing Cloner are deep-copied through Clone; all other values
// are copied by assignment, which is sufficient for plain value structs.
func CloneValue[S any](v S) S {
	if c, ok := any(v).(Cloner[S]); ok {
		return c.Clone()
	}
	return v
}
