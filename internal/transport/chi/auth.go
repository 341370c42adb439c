package chi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/osinter/osinter/internal/domain"
	domuser "github.com/osinter/osinter/internal/domain/user"
	"github.com/osinter/osinter/internal/logger"
	"github.com/osinter/osinter/internal/metrics"
)

// Authenticator verifies basic-auth credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password, email string) (*domuser.User, error)
}

// EmailHeader optionally carries the account email as a second factor.
const EmailHeader = "X-User-Email"

type userCtxKey struct{}

// ContextWithUser stores the authenticated user in the context.
func ContextWithUser(ctx context.Context, u *domuser.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns the authenticated user, nil outside BasicAuthMiddleware.
func UserFromContext(ctx context.Context) *domuser.User {
	u, _ := ctx.Value(userCtxKey{}).(*domuser.User)
	return u
}

// BasicAuthMiddleware returns a middleware that authenticates HTTP Basic
// credentials and stores the user in the request context.
func BasicAuthMiddleware(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				metrics.AuthFailuresTotal.WithLabelValues(metrics.AuthMissing).Inc()
				unauthorized(w, ErrorResponseCodeUnauthorized, "missing basic credentials")
				return
			}

			u, err := authn.Authenticate(r.Context(), username, password, r.Header.Get(EmailHeader))
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrInvalidCredentials):
				metrics.AuthFailuresTotal.WithLabelValues(metrics.AuthRejected).Inc()
				unauthorized(w, ErrorResponseCodeInvalidCredentials, "could not validate credentials")
				return
			default:
				metrics.AuthFailuresTotal.WithLabelValues(metrics.AuthUnavailable).Inc()
				logger.FromContext(r.Context()).Error("authentication failed", zap.Error(err))
				status, code := http.StatusInternalServerError, ErrorResponseCodeInternalError
				if errors.Is(err, domain.ErrStoreUnavailable) {
					status, code = http.StatusServiceUnavailable, ErrorResponseCodeStoreUnavailable
				}
				writeError(w, status, code, "authentication unavailable")
				return
			}

			ctx := ContextWithUser(r.Context(), u)
			ctx = logger.WithFields(ctx, zap.String("user_id", u.ID()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, code ErrorResponseCode, msg string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="osinter", charset="UTF-8"`)
	writeError(w, http.StatusUnauthorized, code, msg)
}
