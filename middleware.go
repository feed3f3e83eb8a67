package toolrun

import (
	"context"
	"log/slog"
	"time"
)

// ExecFunc is one step of the execution chain a Registry runs for a call.
type ExecFunc func(ctx context.Context, call ToolCall, rc *RunContext) (Message, error)

// Middleware wraps the execution chain with cross-cutting behavior
// (logging, recovery, timeout).
type Middleware func(next ExecFunc) ExecFunc

// WithLogging returns a middleware that logs start, outcome, duration, and
// errors through slog.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ExecFunc) ExecFunc {
		return func(ctx context.Context, call ToolCall, rc *RunContext) (Message, error) {
			logger.Info("tool start", "tool", call.ToolName, "call_id", call.ID)
			start := time.Now()
			msg, err := next(ctx, call, rc)
			dur := time.Since(start)
			switch {
			case err != nil:
				logger.Error("tool error", "tool", call.ToolName, "call_id", call.ID, "duration", dur, "error", err)
			case isRetryPrompt(msg):
				logger.Warn("tool retry", "tool", call.ToolName, "call_id", call.ID, "duration", dur)
			default:
				logger.Info("tool end", "tool", call.ToolName, "call_id", call.ID, "duration", dur)
			}
			return msg, err
		}
	}
}

func isRetryPrompt(msg Message) bool {
	_, ok := msg.(*RetryPrompt)
	return ok
}

// WithRecovery returns a middleware that recovers panics from the tool
// function and returns them as a fatal error.
func WithRecovery() Middleware {
	return func(next ExecFunc) ExecFunc {
		return func(ctx context.Context, call ToolCall, rc *RunContext) (msg Message, err error) {
			defer func() {
				if p := recover(); p != nil {
					msg = nil
					err = &panicError{p: p}
				}
			}()
			return next(ctx, call, rc)
		}
	}
}

// WithTimeoutMiddleware returns a middleware that enforces a timeout on the
// whole attempt. Named with "Middleware" suffix to avoid collision with the
// ToolOption WithTimeout. When a registry default timeout also applies, the
// effective timeout is whichever context cancels first.
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next ExecFunc) ExecFunc {
		return func(ctx context.Context, call ToolCall, rc *RunContext) (Message, error) {
			if d <= 0 {
				return next(ctx, call, rc)
			}
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, call, rc)
		}
	}
}
