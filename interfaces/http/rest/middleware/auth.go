package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"energy-dashboard/pkg/auth"
	"energy-dashboard/pkg/common"
	apperrors "energy-dashboard/pkg/errors"
)

// Authenticate requires a valid bearer token and stores its subject in the
// request context.
func Authenticate(validator *auth.JWTValidator, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				errorHandler.Handle(w, r, apperrors.NewUnauthorizedError("Missing or invalid authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Debug("Token rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				errorHandler.Handle(w, r, apperrors.NewUnauthorizedError("Invalid or expired token"))
				return
			}

			ctx := common.WithSubject(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
