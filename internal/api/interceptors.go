package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vdt.ai/dashboard/common/logger"
	"vdt.ai/dashboard/internal/metrics"
	"vdt.ai/dashboard/internal/rpc"
)

const codeOK = "OK"

// Observe wraps every call in a span, tags the context with the procedure
// path, and reports the outcome to recorder.
func Observe(recorder metrics.Recorder) rpc.Interceptor {
	if recorder == nil {
		recorder = metrics.Nop
	}

	return func(next rpc.Invoker) rpc.Invoker {
		return func(ctx context.Context, rc *rpc.Context, call rpc.Call, input json.RawMessage) (any, error) {
			sc := logger.StartSpan(ctx, "rpc."+call.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("rpc.path", call.Path),
					attribute.String("rpc.kind", call.Kind.String()),
				),
			)
			defer sc.End()

			ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
				Path:      logger.Ptr(call.Path),
				Component: "dashboard.rpc",
			})

			start := time.Now()
			out, err := next(ctx, rc, call, input)
			elapsed := time.Since(start)

			code := resultCode(err)
			recorder.RecordCall(call.Path, call.Kind.String(), code, elapsed)

			switch {
			case err == nil:
				slog.DebugContext(ctx, "procedure call", "kind", call.Kind.String(), "duration_ms", elapsed.Milliseconds())
			case code == string(rpc.CodeInternal):
				sc.RecordError(err)
				sc.Span().SetStatus(codes.Error, err.Error())
				slog.ErrorContext(ctx, "procedure call failed", "error", err, "duration_ms", elapsed.Milliseconds())
			case rpc.IsValidation(err):
				rpcErr, _ := rpc.AsError(err)
				slog.InfoContext(ctx, "procedure input rejected", "issues", rpcErr.Issues)
			default:
				slog.InfoContext(ctx, "procedure call rejected", "code", code, "error", err)
			}

			return out, err
		}
	}
}

func resultCode(err error) string {
	if err == nil {
		return codeOK
	}
	if rpcErr, ok := rpc.AsError(err); ok {
		return string(rpcErr.Code)
	}
	return string(rpc.CodeInternal)
}
