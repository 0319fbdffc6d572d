package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithLogging(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		obsCore, logs := observer.New(zapcore.DebugLevel)
		ctx := WithLogging(context.Background(), zap.New(obsCore))

		consume(ctx, nil, "abc", "de")

		if n := logs.FilterMessage("stream consumption started").Len(); n != 1 {
			t.Errorf("start logged %d times, want 1", n)
		}
		if n := logs.FilterMessage("chunk received").Len(); n != 2 {
			t.Errorf("chunks logged %d times, want 2", n)
		}
		done := logs.FilterMessage("stream consumption completed").All()
		if len(done) != 1 {
			t.Fatalf("completion logged %d times, want 1", len(done))
		}
		if done[0].Level != zapcore.InfoLevel {
			t.Errorf("completion level = %v, want info", done[0].Level)
		}
		fields := done[0].ContextMap()
		if fields["chunks"] != int64(2) || fields["bytes"] != int64(5) {
			t.Errorf("completion fields = %v", fields)
		}
		if _, ok := fields["duration"].(time.Duration); !ok {
			t.Errorf("duration field = %#v, want a time.Duration", fields["duration"])
		}
	})

	t.Run("failure", func(t *testing.T) {
		obsCore, logs := observer.New(zapcore.InfoLevel)
		ctx := WithLogging(context.Background(), zap.New(obsCore))

		consume(ctx, errors.New("boom"), "a")

		if n := logs.FilterMessage("chunk received").Len(); n != 0 {
			t.Errorf("debug entries logged at info level: %d", n)
		}
		failed := logs.FilterMessage("stream consumption failed").All()
		if len(failed) != 1 {
			t.Fatalf("failure logged %d times, want 1", len(failed))
		}
		if failed[0].Level != zapcore.ErrorLevel {
			t.Errorf("failure level = %v, want error", failed[0].Level)
		}
		if failed[0].ContextMap()["error"] != "boom" {
			t.Errorf("error field = %v, want boom", failed[0].ContextMap()["error"])
		}
	})
}
