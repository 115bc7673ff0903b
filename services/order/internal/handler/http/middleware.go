package http

import (
	"net/http"
	"strings"

	"github.com/kitchencart/ecommerce/pkg/httputil"
	"github.com/kitchencart/ecommerce/pkg/middleware"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
)

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteFailure(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json", nil)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// actorFrom returns the authenticated caller. Routes using it sit behind
// middleware.Auth, so claims are always present.
func actorFrom(r *http.Request) domain.Actor {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		return domain.Actor{}
	}
	return domain.Actor{UserID: c.UserID, Email: c.Email, Role: c.Role}
}
