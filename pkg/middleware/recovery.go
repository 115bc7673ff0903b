package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/kitchencart/ecommerce/pkg/httputil"
	"github.com/kitchencart/ecommerce/pkg/logger"
)

// Recovery turns a handler panic into a 500 envelope and logs the stack.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromContextOr(r.Context(), l).ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				httputil.WriteFailure(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal Server Error", nil)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
