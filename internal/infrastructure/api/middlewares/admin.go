package middlewares

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/primeedge/transfer-service/internal/errors"
	http2 "github.com/primeedge/transfer-service/internal/infrastructure/api/http"
	"github.com/primeedge/transfer-service/internal/usecases/interactor"
	"github.com/primeedge/transfer-service/pkg/log"
)

// AdminValidationMiddleware gates the review surface. Authentication is an
// external collaborator's job; this only verifies the claimed admin id maps
// to an active admin user and stashes it for the handlers.
func AdminValidationMiddleware(userInt *interactor.UserInteractor) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.GetLogger()
			adminId := r.Header.Get(http2.AdminIDHeader)
			if adminId == "" {
				logger.Error().Msg(apperrors.ErrAdminIDRequired)
				apperrors.HandleHTTPError(w, apperrors.NewBadRequestError(apperrors.ErrAdminIDRequired))
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if isAdmin, _ := userInt.IsActiveAdmin(ctx, adminId); !isAdmin {
				logger.Error().Str("admin_id", adminId).Msg(apperrors.ErrAdminRoleRequired)
				apperrors.HandleHTTPError(w, apperrors.NewBadRequestError(apperrors.ErrAdminRoleRequired))
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), http2.AdminIDContextKey, adminId))
			next.ServeHTTP(w, r)
		})
	}
}
