package router

import (
	"fmt"
	"net/http"

	gorillacontext "github.com/gorilla/context"
	"go.uber.org/zap"

	"github.com/imagematch/match-api/pkg/utils/httputil"
)

// TokenAuthMiddleware enforces the shared access token carried by the `token`
// query parameter. An empty configured token disables the check entirely. A
// mismatch answers 403 with an empty JSON object, which is what existing
// clients of the API expect.
func TokenAuthMiddleware(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.URL.Query().Get("token") != token {
				zap.L().Warn("Invalid access token", zap.String("remoteaddr", r.RemoteAddr))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, "{}")
				return
			}

			if token != "" {
				loggerR := r.Context().Value(httputil.ContextKeyLoggerR)
				if loggerR != nil {
					gorillacontext.Set(loggerR.(*http.Request), httputil.ClientLabel, "token")
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
