package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/platefinderz-backend/api/responses"
	pkgAuth "github.com/angelmondragon/platefinderz-backend/pkg/auth"
	"github.com/angelmondragon/platefinderz-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/platefinderz-backend/pkg/errors"
	"github.com/angelmondragon/platefinderz-backend/pkg/logger"
)

// AuthCookieName is the HTTP-only cookie carrying the bearer token.
const AuthCookieName = "auth_token"

// TokenLedger checks whether a token is still recorded for the user. A token
// absent from the ledger is revoked no matter how valid its signature is.
type TokenLedger interface {
	HasToken(ctx context.Context, userID uuid.UUID, token string) (bool, error)
}

// ExtractToken pulls the bearer token from the request: the auth cookie wins,
// the Authorization header is the fallback for non-browser clients.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AuthCookieName); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token
		}
	}

	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

// Auth validates the bearer token and re-checks the user's token ledger, so
// revocation takes effect on the very next request. Only the user id and role
// are attached to the context, never the raw token.
func Auth(cfg config.JWTConfig, ledger TokenLedger, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				message := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					message = "token expired"
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, message))
				return
			}

			if ledger != nil {
				live, err := ledger.HasToken(r.Context(), claims.UserID, token)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !live {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
