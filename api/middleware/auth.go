package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/boost-backend/api/responses"
	pkgerrors "github.com/angelmondragon/boost-backend/pkg/errors"
	"github.com/angelmondragon/boost-backend/pkg/identity"
	"github.com/angelmondragon/boost-backend/pkg/logger"
)

// Auth verifies the bearer credential with the identity provider and seeds the
// request context with the resulting caller.
func Auth(verifier identity.Verifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			caller, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, identity.ErrInvalidCredential) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify credential"))
				return
			}
			if caller.UID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token"))
				return
			}

			ctx := WithCaller(r.Context(), caller)
			if logg != nil {
				var merchantID string
				if caller.MerchantID != nil {
					merchantID = caller.MerchantID.String()
				}
				ctx = logg.WithCaller(ctx, caller.UID, string(caller.Role), merchantID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
