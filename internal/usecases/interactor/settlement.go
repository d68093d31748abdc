package interactor

import (
	"context"
	"strconv"
	"time"

	"github.com/primeedge/transfer-service/internal/config"
	"github.com/primeedge/transfer-service/internal/domain/models"
	"github.com/primeedge/transfer-service/internal/domain/repositories"
	"github.com/primeedge/transfer-service/internal/notifier"
	"github.com/primeedge/transfer-service/internal/usecases/dtos"
	"github.com/primeedge/transfer-service/pkg/log"
	"github.com/rs/zerolog"
)

// SettlementInteractor runs the background settlement step for approved
// transfers. Every run resolves the transfer to COMPLETED or FAILED; a
// PROCESSING row is never left behind silently.
type SettlementInteractor struct {
	transferRepository repositories.TransferRepository
	gateway            SettlementClient
	notifier           notifier.Notifier
	timeout            time.Duration
	logger             *zerolog.Logger
}

func NewSettlementInteractor(
	transferRepository repositories.TransferRepository,
	gateway SettlementClient,
	ntf notifier.Notifier,
	cfg config.Gateway,
) *SettlementInteractor {
	l := log.GetLogger()

	timeoutSec, err := strconv.Atoi(cfg.TimeoutSeconds)
	if err != nil || timeoutSec <= 0 {
		timeoutSec = 10
	}

	return &SettlementInteractor{
		transferRepository: transferRepository,
		gateway:            gateway,
		notifier:           ntf,
		timeout:            time.Duration(timeoutSec) * time.Second,
		logger:             &l,
	}
}

// Settle submits one PROCESSING transfer to the rail. Gateway success leads
// to a single atomic debit-and-complete; gateway failure, timeout and any
// system error all resolve to FAILED with the cause recorded. Safe to
// re-deliver: a transfer no longer in PROCESSING is skipped.
func (i *SettlementInteractor) Settle(ctx context.Context, transferID string) error {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	transfer, err := i.transferRepository.GetByID(ctx, transferID)
	if err != nil {
		i.logger.Error().Err(err).Str("transfer_id", transferID).Msg("failed to load transfer for settlement")
		i.markFailed(transferID, "system error while loading transfer")
		return err
	}
	if transfer.Status != models.StatusProcessing {
		i.logger.Warn().
			Str("transfer_id", transferID).
			Str("status", string(transfer.Status)).
			Msg("skipping settlement, transfer not in processing")
		return nil
	}

	result, err := i.gateway.Submit(ctx, SettlementRequest{
		TransferID: transfer.ID,
		Amount:     transfer.Amount,
		Currency:   transfer.Currency,
		Recipient:  transfer.Recipient,
	})
	if err != nil {
		// Timeouts and transport errors count as gateway failure.
		i.markFailed(transferID, "settlement gateway error: "+err.Error())
		return nil
	}
	if !result.Success {
		reason := result.Error
		if reason == "" {
			reason = "settlement rejected by gateway"
		}
		i.markFailed(transferID, reason)
		return nil
	}

	meta := models.Metadata{
		models.MetaCompletedAt:         time.Now().UTC().Format(time.RFC3339Nano),
		models.MetaSettlementReference: result.Reference,
	}
	row, err := i.transferRepository.SettleComplete(ctx, transferID, result.Reference, meta)
	if err != nil {
		i.logger.Error().Err(err).Str("transfer_id", transferID).Msg("settlement write failed")
		i.markFailed(transferID, "system error during settlement")
		return err
	}
	if !row.Debited {
		// Balance moved under us between creation and settlement.
		i.markFailed(transferID, "insufficient balance at settlement")
		return nil
	}

	response := dtos.NewTransferResponse(row.Transfer)
	safeEmit(i.logger, func() { i.notifier.EmitUpdate(row.Transfer.UserID, response) })

	i.logger.Info().
		Str("transfer_id", transferID).
		Str("reference", result.Reference).
		Str("balance", row.UserBalance.String()).
		Msg("transfer settled")

	return nil
}

// markFailed resolves the transfer to FAILED on a fresh context, so a job
// whose deadline expired can still record its outcome.
func (i *SettlementInteractor) markFailed(transferID, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	meta := models.Metadata{
		models.MetaFailedAt:      time.Now().UTC().Format(time.RFC3339Nano),
		models.MetaFailureReason: reason,
	}

	updated, err := i.transferRepository.UpdateStatusIf(ctx, transferID, models.StatusProcessing, models.StatusFailed, meta)
	if err != nil {
		i.logger.Error().Err(err).
			Str("transfer_id", transferID).
			Str("reason", reason).
			Msg("failed to mark transfer as failed")
		return
	}

	response := dtos.NewTransferResponse(updated)
	safeEmit(i.logger, func() { i.notifier.EmitUpdate(updated.UserID, response) })

	i.logger.Warn().
		Str("transfer_id", transferID).
		Str("reason", reason).
		Msg("transfer failed")
}
