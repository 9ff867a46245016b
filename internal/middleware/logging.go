package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/sharethebill/internal/metrics"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// and records its latency.
// It logs the procedure name, fid, duration, and any error codes/messages.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure
			fid := GetFID(ctx) // 0 if pre-auth

			resp, err := next(ctx, req)

			elapsed := time.Since(start)
			duration := elapsed.Milliseconds()
			code := "ok"
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					code = connectErr.Code().String()
					slog.Warn("RPC error",
						"procedure", procedure,
						"code", connectErr.Code(),
						"error", connectErr.Message(),
						"fid", fid,
						"duration_ms", duration,
					)
				} else {
					code = connect.CodeUnknown.String()
					slog.Error("RPC error",
						"procedure", procedure,
						"error", err,
						"fid", fid,
						"duration_ms", duration,
					)
				}
			} else {
				slog.Info("RPC ok",
					"procedure", procedure,
					"fid", fid,
					"duration_ms", duration,
				)
			}
			metrics.RPCDuration.WithLabelValues(procedure, code).Observe(elapsed.Seconds())

			return resp, err
		}
	}
}
