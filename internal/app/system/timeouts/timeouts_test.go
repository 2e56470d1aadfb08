package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	defer timeouts.Reset()

	timeouts.Configure(timeouts.Config{Short: 7 * time.Second})

	if got := timeouts.Short(); got != 7*time.Second {
		t.Errorf("Short: got %v, want %v", got, 7*time.Second)
	}
	if got := timeouts.Long(); got != timeouts.DefaultLong {
		t.Errorf("Long: got %v, want %v", got, timeouts.DefaultLong)
	}
}

func TestReset(t *testing.T) {
	timeouts.Configure(timeouts.Config{Batch: time.Minute * 5})
	timeouts.Reset()

	if got := timeouts.Current(); got.Batch != timeouts.DefaultBatch {
		t.Errorf("Batch: got %v, want %v", got.Batch, timeouts.DefaultBatch)
	}
}

func TestWithTimeout_LogsOnDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, log, "slow op")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("got %d log entries, want 1", logs.Len())
	}
	if op := logs.All()[0].ContextMap()["operation"]; op != "slow op" {
		t.Errorf("operation: got %v, want %q", op, "slow op")
	}
}

func TestWithTimeout_NoLogWhenCompleted(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	_, cancel := timeouts.WithTimeout(context.Background(), time.Second, zap.New(core), "fast op")
	cancel()

	if logs.Len() != 0 {
		t.Errorf("got %d log entries, want 0", logs.Len())
	}
}
