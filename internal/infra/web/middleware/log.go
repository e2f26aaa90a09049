package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/DioGolang/GoTrack/pkg/logger"
)

// RequestLogger logs one line per request: server errors at error level,
// WebSocket upgrades at debug.
func RequestLogger(log logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.String("request_id", middleware.GetReqID(r.Context())),
				logger.Int("status", ww.Status()),
				logger.Int("bytes", ww.BytesWritten()),
				logger.Duration("latency", time.Since(start)),
			}
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				log.Error(r.Context(), "http request failed", fields...)
			case ww.Status() == http.StatusSwitchingProtocols:
				log.Debug(r.Context(), "connection upgraded", fields...)
			default:
				log.Info(r.Context(), "http request processed", fields...)
			}
		})
	}
}
