package interactor

import (
	"context"
	"strings"
	"time"

	"github.com/primeedge/transfer-service/internal/domain/models"
	"github.com/primeedge/transfer-service/internal/domain/repositories"
	apperrors "github.com/primeedge/transfer-service/internal/errors"
	"github.com/primeedge/transfer-service/internal/notifier"
	"github.com/primeedge/transfer-service/internal/queue"
	"github.com/primeedge/transfer-service/internal/usecases/dtos"
	"github.com/primeedge/transfer-service/pkg/log"
	"github.com/rs/zerolog"
)

const (
	defaultPendingPageLimit = 20
	maxPendingPageLimit     = 100
)

// AdminInteractor applies review decisions to pending transfers. Legality of
// the transition is enforced here and at the storage layer; who may call is
// the admin middleware's problem.
type AdminInteractor struct {
	transferRepository repositories.TransferRepository
	settlement         *SettlementInteractor
	notifier           notifier.Notifier
	queue              Enqueuer
	logger             *zerolog.Logger
}

func NewAdminInteractor(
	transferRepository repositories.TransferRepository,
	settlement *SettlementInteractor,
	ntf notifier.Notifier,
	q Enqueuer,
) *AdminInteractor {
	l := log.GetLogger()
	return &AdminInteractor{
		transferRepository: transferRepository,
		settlement:         settlement,
		notifier:           ntf,
		queue:              q,
		logger:             &l,
	}
}

// PendingTransfers returns the review queue oldest-first, annotated with the
// owning user's identity.
func (i *AdminInteractor) PendingTransfers(page, limit int) (*dtos.PendingTransfersPage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPendingPageLimit
	}
	if limit > maxPendingPageLimit {
		limit = maxPendingPageLimit
	}

	rows, total, err := i.transferRepository.ListPending(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	items := make([]*dtos.PendingTransferItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dtos.NewPendingTransferItem(row))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &dtos.PendingTransfersPage{
		Items: items,
		Pagination: dtos.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Approve moves a PENDING transfer into PROCESSING and schedules settlement.
// The conditional update at the storage layer is the safety net against
// double-approval races: the loser sees an InvalidStateError.
func (i *AdminInteractor) Approve(transferID, adminID, notes string) (*dtos.TransferResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	meta := models.Metadata{
		models.MetaApprovedBy:          adminID,
		models.MetaApprovedAt:          now,
		models.MetaProcessingStartedAt: now,
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		meta[models.MetaApprovalNotes] = notes
	}

	updated, err := i.transferRepository.UpdateStatusIf(ctx, transferID, models.StatusPending, models.StatusProcessing, meta)
	if err != nil {
		return nil, err
	}

	job := queue.Job{
		Name: "settle-transfer:" + transferID,
		Run: func(ctx context.Context) error {
			return i.settlement.Settle(ctx, transferID)
		},
	}
	if err = i.queue.Enqueue(job); err != nil {
		// The transfer stays in PROCESSING; operator intervention needed.
		i.logger.Error().Err(err).Str("transfer_id", transferID).Msg("settlement not scheduled")
	}

	response := dtos.NewTransferResponse(updated)
	safeEmit(i.logger, func() { i.notifier.EmitUpdate(updated.UserID, response) })

	i.logger.Info().
		Str("transfer_id", transferID).
		Str("admin_id", adminID).
		Msg("transfer approved")

	return response, nil
}

// Reject terminally declines a PENDING transfer. A reason is mandatory.
func (i *AdminInteractor) Reject(transferID, adminID, reason string) (*dtos.TransferResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("rejection reason is required")
	}

	meta := models.Metadata{
		models.MetaRejectedBy:      adminID,
		models.MetaRejectedAt:      time.Now().UTC().Format(time.RFC3339Nano),
		models.MetaRejectionReason: reason,
	}

	updated, err := i.transferRepository.UpdateStatusIf(ctx, transferID, models.StatusPending, models.StatusRejected, meta)
	if err != nil {
		return nil, err
	}

	response := dtos.NewTransferResponse(updated)
	safeEmit(i.logger, func() { i.notifier.EmitUpdate(updated.UserID, response) })

	i.logger.Info().
		Str("transfer_id", transferID).
		Str("admin_id", adminID).
		Str("reason", reason).
		Msg("transfer rejected")

	return response, nil
}

// Stats reports per-status counts and the total completed volume.
func (i *AdminInteractor) Stats() (*dtos.TransferStatsResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := i.transferRepository.Stats(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(stats.CountByStatus))
	for status, count := range stats.CountByStatus {
		counts[string(status)] = count
	}
	volume, _ := stats.CompletedVolume.Float64()

	return &dtos.TransferStatsResponse{
		CountByStatus:   counts,
		CompletedVolume: volume,
	}, nil
}
