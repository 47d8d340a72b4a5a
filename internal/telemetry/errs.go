//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"errors"
	"fmt"

	"trpc.group/trpc-go/trpc-store-go/store"
)

// typedError is implemented by errors that carry their own error.type value.
type typedError interface {
	ErrorType() string
}

// ToErrorType converts an error to an error type.
func ToErrorType(err error, errorType string) string {
	var te typedError
	if errors.As(err, &te) && te.ErrorType() != "" {
		return te.ErrorType()
	}
	return errorType
}

// SetRecovered records a recovered panic value as the update error.
// Errors returned through store.TryUpdate keep their own error type; any
// other panic is typed as a panic.
func (a *UpdateAttributes) SetRecovered(r any) {
	if err := store.AbortError(r); err != nil {
		a.Error = err
		return
	}
	a.ErrorType = ValuePanicErrorType
	if err, ok := r.(error); ok {
		a.Error = err
		return
	}
	a.Error = fmt.Errorf("%v", r)
}
