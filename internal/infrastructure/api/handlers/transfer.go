package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	apperrors "github.com/primeedge/transfer-service/internal/errors"
	http2 "github.com/primeedge/transfer-service/internal/infrastructure/api/http"
	"github.com/primeedge/transfer-service/internal/usecases/dtos"
	"github.com/primeedge/transfer-service/internal/usecases/interactor"
	"github.com/primeedge/transfer-service/pkg/log"
	"github.com/rs/zerolog"
)

type TransferHandler struct {
	interactor *interactor.TransferInteractor
	logger     *zerolog.Logger
}

func NewTransferHandler(interactor *interactor.TransferInteractor) *TransferHandler {
	logger := log.GetLogger()
	return &TransferHandler{interactor: interactor, logger: &logger}
}

// Create accepts a transfer request and returns the PENDING record.
// Settlement happens later, asynchronously.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CreateTransferDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.Error().Err(err).Msg(apperrors.ErrFailedDecodeRequestBody)
		apperrors.HandleHTTPError(w, apperrors.NewBadRequestError(apperrors.ErrInvalidRequestBody))
		return
	}

	userID := chi.URLParam(r, http2.UserIDParam)
	transfer, err := h.interactor.Create(userID, &dto)
	if err != nil {
		h.logger.Error().Err(err).Msg(apperrors.ErrFailedCreateTransfer)
		apperrors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dtos.Envelope{
		Success: true,
		Message: "Transfer submitted for review",
		Data:    dtos.TransferData{Transaction: transfer},
	})
}

// ListUpdates is the polling fallback for clients without a live push
// connection. It always answers 200; internal failures degrade to an empty
// list inside the interactor.
func (h *TransferHandler) ListUpdates(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, http2.UserIDParam)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			since = &parsed
		}
	}

	updates := h.interactor.ListUpdates(userID, limit, since)
	writeJSON(w, http.StatusOK, dtos.Envelope{Success: true, Data: updates})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
