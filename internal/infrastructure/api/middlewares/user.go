package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	apperrors "github.com/primeedge/transfer-service/internal/errors"
	http2 "github.com/primeedge/transfer-service/internal/infrastructure/api/http"
	"github.com/primeedge/transfer-service/internal/usecases/interactor"
	"github.com/primeedge/transfer-service/pkg/log"
)

// UserValidationMiddleware validates the user id.
func UserValidationMiddleware(userInt *interactor.UserInteractor) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.GetLogger()
			userId := chi.URLParam(r, http2.UserIDParam)
			if userId == "" {
				logger.Error().Msg(apperrors.ErrUserIDRequired)
				apperrors.HandleHTTPError(w, apperrors.NewBadRequestError(apperrors.ErrUserIDRequired))
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if exists, _ := userInt.ExistsByID(ctx, userId); !exists {
				logger.Error().Msg(apperrors.ErrInvalidUserID)
				apperrors.HandleHTTPError(w, apperrors.NewBadRequestError(apperrors.ErrInvalidUserID))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
