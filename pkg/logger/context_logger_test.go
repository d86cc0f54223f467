package logger

import (
	"context"
	"errors"
	"testing"

	ctxutil "github.com/teamtime/clockwork/pkg/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })
	return logs
}

func TestContextFieldsAreExtracted(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	ctx := ctxutil.WithRequestID(context.Background(), "req-1")
	ctx = ctxutil.WithUserID(ctx, 42)
	ctx = ctxutil.WithFunction(ctx, "service", "Login")

	WarnWithContext(ctx, "login failed").
		String("email", "kevin@example.com").
		Err(errors.New("bad password")).
		Log()

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" {
		t.Errorf("request_id = %v", fields["request_id"])
	}
	if fields["user_id"] != uint64(42) {
		t.Errorf("user_id = %v (%T)", fields["user_id"], fields["user_id"])
	}
	if fields["function"] != "Login" {
		t.Errorf("function = %v", fields["function"])
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v", entries[0].Level)
	}
}

func TestDisabledLevelIsSkipped(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	DebugWithContext(context.Background(), "noise").String("k", "v").Log()

	if logs.Len() != 0 {
		t.Errorf("debug entry written at info level")
	}
}

func TestCancelledContextIsSkipped(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	InfoWithContext(ctx, "late").Log()

	if logs.Len() != 0 {
		t.Errorf("entry written for cancelled context")
	}
}

func TestGetLoggerBeforeInit(t *testing.T) {
	SetLogger(nil)
	if GetLogger() == nil {
		t.Fatal("GetLogger() must never return nil")
	}
	InfoWithContext(context.Background(), "no panic").Log()
}
