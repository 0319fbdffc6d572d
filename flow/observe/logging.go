package observe

import (
	"context"

	"go.uber.org/zap"

	"github.com/lguimbarda/readall/flow/core"
)

// WithLogging attaches hooks that log consumption through logger: chunks at
// debug level, the outcome at info level on success and error level on
// failure.
func WithLogging(ctx context.Context, logger *zap.Logger) context.Context {
	return core.WithHooks(ctx, core.Hooks{
		OnStart: func() {
			logger.Debug("stream consumption started")
		},
		OnChunk: func(b []byte) {
			logger.Debug("chunk received", zap.Int("size", len(b)))
		},
		OnComplete: func(o core.Outcome) {
			fields := []zap.Field{
				zap.Int("chunks", o.Chunks),
				zap.Int64("bytes", o.Bytes),
				zap.Duration("duration", o.Duration),
			}
			if o.Err != nil {
				logger.Error("stream consumption failed", append(fields, zap.Error(o.Err))...)
				return
			}
			logger.Info("stream consumption completed", fields...)
		},
	})
}
