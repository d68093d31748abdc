package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	apperrors "github.com/primeedge/transfer-service/internal/errors"
	http2 "github.com/primeedge/transfer-service/internal/infrastructure/api/http"
	"github.com/primeedge/transfer-service/internal/usecases/dtos"
	"github.com/primeedge/transfer-service/internal/usecases/interactor"
	"github.com/primeedge/transfer-service/pkg/log"
	"github.com/rs/zerolog"
)

type AdminHandler struct {
	interactor *interactor.AdminInteractor
	logger     *zerolog.Logger
}

func NewAdminHandler(interactor *interactor.AdminInteractor) *AdminHandler {
	logger := log.GetLogger()
	return &AdminHandler{interactor: interactor, logger: &logger}
}

func adminID(r *http.Request) string {
	id, _ := r.Context().Value(http2.AdminIDContextKey).(string)
	return id
}

// PendingTransfers lists the review queue oldest-first.
func (h *AdminHandler) PendingTransfers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.interactor.PendingTransfers(page, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list pending transfers")
		apperrors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dtos.Envelope{Success: true, Data: result})
}

// Approve moves a pending transfer into processing; settlement follows on
// the background queue.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var dto dtos.ApproveTransferDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.logger.Error().Err(err).Msg(apperrors.ErrFailedDecodeRequestBody)
			apperrors.HandleHTTPError(w, apperrors.NewBadRequestError(apperrors.ErrInvalidRequestBody))
			return
		}
	}

	transferID := chi.URLParam(r, http2.TransferIDParam)
	transfer, err := h.interactor.Approve(transferID, adminID(r), dto.Notes)
	if err != nil {
		h.logger.Error().Err(err).Msg(apperrors.ErrFailedApproveTransfer)
		apperrors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dtos.Envelope{
		Success: true,
		Message: "Transfer approved, settlement in progress",
		Data:    dtos.TransferData{Transaction: transfer},
	})
}

// Reject terminally declines a pending transfer; a reason is required.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var dto dtos.RejectTransferDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.Error().Err(err).Msg(apperrors.ErrFailedDecodeRequestBody)
		apperrors.HandleHTTPError(w, apperrors.NewBadRequestError(apperrors.ErrInvalidRequestBody))
		return
	}

	transferID := chi.URLParam(r, http2.TransferIDParam)
	transfer, err := h.interactor.Reject(transferID, adminID(r), dto.Reason)
	if err != nil {
		h.logger.Error().Err(err).Msg(apperrors.ErrFailedRejectTransfer)
		apperrors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dtos.Envelope{
		Success: true,
		Message: "Transfer rejected",
		Data:    dtos.TransferData{Transaction: transfer},
	})
}

// Stats reports per-status counts and total completed volume.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.interactor.Stats()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get transfer stats")
		apperrors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dtos.Envelope{Success: true, Data: stats})
}
