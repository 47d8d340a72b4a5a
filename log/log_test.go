//
// Tencent is pleased to support the open source community by making trpc-store-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-store-go is licensed under the Apache License Version 2.0.
//
//

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })

	cases := []struct {
		in       string
		expected zapcore.Level
	}{
		{LevelDebug, zapcore.DebugLevel},
		{LevelInfo, zapcore.InfoLevel},
		{LevelWarn, zapcore.WarnLevel},
		{LevelError, zapcore.ErrorLevel},
		{LevelFatal, zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
	}
	for _, c := range cases {
		SetLevel(c.in)
		require.Equal(t, c.expected, zapLevel.Level(), "SetLevel(%q)", c.in)
	}

	SetLevel(LevelWarn)
	require.Equal(t, "warn", Level())
}

func TestTracef(t *testing.T) {
	stub := &stubLogger{}
	oldDefault, oldTrace := Default, traceEnabled
	Default = stub
	t.Cleanup(func() {
		Default = oldDefault
		traceEnabled = oldTrace
	})

	Tracef("commit %d", 1)
	require.Zero(t, stub.debugfCalls, "trace is disabled by default")

	SetTraceEnabled(true)
	Tracef("commit %d", 2)
	require.Equal(t, 1, stub.debugfCalls)
	require.Equal(t, "[TRACE] commit %d", stub.lastFormat)
}

func TestPackageHelpersUseDefault(t *testing.T) {
	stub := &stubLogger{}
	oldDefault := Default
	Default = stub
	t.Cleanup(func() { Default = oldDefault })

	Debug("d")
	Debugf("d")
	Info("i")
	Infof("i")
	Warn("w")
	Warnf("w %s", "x")
	Error("e")
	Errorf("e")

	require.Equal(t, 1, stub.warnfCalls)
	require.Equal(t, "w %s", stub.lastFormat)
}

func TestContextHelpersUseContextDefault(t *testing.T) {
	stub := &stubLogger{}
	oldDefault := ContextDefault
	ContextDefault = stub
	t.Cleanup(func() { ContextDefault = oldDefault })

	ctx := context.Background()
	DebugfContext(ctx, "a")
	InfofContext(ctx, "b")
	WarnfContext(ctx, "c")
	ErrorfContext(ctx, "d")

	require.Equal(t, 1, stub.debugfCalls)
	require.Equal(t, 1, stub.warnfCalls)
}

type stubLogger struct {
	lastFormat  string
	debugfCalls int
	warnfCalls  int
}

func (s *stubLogger) Debug(args ...any) {}
func (s *stubLogger) Debugf(format string, args ...any) {
	s.debugfCalls++
	s.lastFormat = format
}
func (s *stubLogger) Info(args ...any)                 {}
func (s *stubLogger) Infof(format string, args ...any) {}
func (s *stubLogger) Warn(args ...any)                 {}
func (s *stubLogger) Warnf(format string, args ...any) {
	s.warnfCalls++
	s.lastFormat = format
}
func (s *stubLogger) Error(args ...any)                 {}
func (s *stubLogger) Errorf(format string, args ...any) {}
func (s *stubLogger) Fatal(args ...any)                 {}
func (s *stubLogger) Fatalf(format string, args ...any) {}
