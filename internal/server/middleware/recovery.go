package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/namelens/dentalnames/internal/metrics"
	"github.com/namelens/dentalnames/internal/observability"
)

// PanicError carries a value recovered from a handler.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recovery turns a handler panic into an error passed to respond.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(respond func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				metrics.RecordPanic(RoutePattern(r))
				if logger := observability.ServerLogger; logger != nil {
					logger.Error("Recovered handler panic",
						zap.Any("panic", recovered),
						zap.String("request_id", GetRequestID(r.Context())),
						zap.ByteString("stack", debug.Stack()))
				}
				respond(w, r, PanicError{Value: recovered})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
