package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	apperrors "github.com/primeedge/transfer-service/internal/errors"
	http2 "github.com/primeedge/transfer-service/internal/infrastructure/api/http"
	"github.com/primeedge/transfer-service/internal/usecases/dtos"
	"github.com/primeedge/transfer-service/internal/usecases/interactor"
	"github.com/primeedge/transfer-service/pkg/log"
	"github.com/rs/zerolog"
)

type BalanceHandler struct {
	interactor *interactor.UserInteractor
	logger     *zerolog.Logger
}

func NewBalanceHandler(interactor *interactor.UserInteractor) *BalanceHandler {
	logger := log.GetLogger()
	return &BalanceHandler{interactor: interactor, logger: &logger}
}

func (uh *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userId := chi.URLParam(r, http2.UserIDParam)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	balance, err := uh.interactor.GetBalance(ctx, userId)
	if err != nil {
		uh.logger.Error().Err(err).Msg("failed to get balance")
		apperrors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dtos.Envelope{
		Success: true,
		Data: struct {
			Balance float64 `json:"balance"`
		}{Balance: balance},
	})
}
