// Package requesttime pins one "now" per request so session TTLs, webhook
// timestamps and audit records written while serving it agree.
package requesttime

import (
	"net/http"
	"time"

	"didgate/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
