package interactor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/primeedge/transfer-service/internal/config"
	"github.com/primeedge/transfer-service/internal/domain/models"
	"github.com/primeedge/transfer-service/internal/domain/repositories"
	apperrors "github.com/primeedge/transfer-service/internal/errors"
	"github.com/primeedge/transfer-service/internal/notifier"
	"github.com/primeedge/transfer-service/internal/queue"
	"github.com/primeedge/transfer-service/internal/usecases/dtos"
	"github.com/primeedge/transfer-service/pkg/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	defaultUpdatesLimit = 20
	maxUpdatesLimit     = 100
)

type TransferInteractor struct {
	transferRepository repositories.TransferRepository
	userRepository     repositories.UserRepository
	verifier           VerificationClient
	notifier           notifier.Notifier
	queue              Enqueuer
	maxAmount          decimal.Decimal
	defaultCurrency    string
	logger             *zerolog.Logger
}

func NewTransferInteractor(
	transferRepository repositories.TransferRepository,
	userRepository repositories.UserRepository,
	verifier VerificationClient,
	ntf notifier.Notifier,
	q Enqueuer,
	cfg config.Transfer,
) *TransferInteractor {
	l := log.GetLogger()

	maxAmount, err := decimal.NewFromString(cfg.MaxAmount)
	if err != nil {
		maxAmount = decimal.NewFromInt(100000)
	}

	return &TransferInteractor{
		transferRepository: transferRepository,
		userRepository:     userRepository,
		verifier:           verifier,
		notifier:           ntf,
		queue:              q,
		maxAmount:          maxAmount,
		defaultCurrency:    cfg.DefaultCurrency,
		logger:             &l,
	}
}

// Create validates the request, persists a PENDING transfer, pushes the
// pending event and schedules the advisory recipient verification. The
// balance check here is an early UX check; the authoritative one happens
// atomically at settlement time.
func (i *TransferInteractor) Create(userID string, dto *dtos.CreateTransferDTO) (*dtos.TransferResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	amount, err := dto.Amount()
	if err != nil {
		return nil, err
	}
	if err = models.ValidateAmount(amount, i.maxAmount); err != nil {
		return nil, err
	}

	currency, err := models.NormalizeCurrency(dto.Currency, i.defaultCurrency)
	if err != nil {
		return nil, err
	}

	recipient := models.RecipientInfo{
		Name:          strings.TrimSpace(dto.Recipient.Name),
		AccountNumber: strings.TrimSpace(dto.Recipient.AccountNumber),
		BankCode:      strings.TrimSpace(dto.Recipient.BankCode),
	}
	if err = recipient.Validate(); err != nil {
		return nil, err
	}

	user, err := i.userRepository.GetByID(ctx, userID)
	if err != nil {
		i.logger.Error().Err(err).Msg("Failed to get user")
		return nil, apperrors.NewBadRequestError("Invalid user ID")
	}
	if !user.Active {
		return nil, apperrors.NewBadRequestError("User account is inactive")
	}
	if user.Balance.LessThan(amount) {
		return nil, apperrors.NewInsufficientFundsError()
	}

	description := strings.TrimSpace(dto.Description)
	if description == "" {
		description = fmt.Sprintf("Transfer to %s", recipient.Name)
	}

	transfer := &models.Transfer{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        models.TransferType,
		Amount:      amount,
		Currency:    currency,
		Status:      models.StatusPending,
		Recipient:   recipient,
		Description: description,
		Metadata: models.Metadata{
			models.MetaSubmittedAt: time.Now().UTC().Format(time.RFC3339Nano),
			models.MetaSubmittedBy: userID,
		},
	}

	created, err := i.transferRepository.Create(ctx, transfer)
	if err != nil {
		return nil, err
	}

	response := dtos.NewTransferResponse(created)
	safeEmit(i.logger, func() { i.notifier.EmitPending(userID, response) })

	job := queue.Job{
		Name: "verify-recipient:" + created.ID,
		Run: func(ctx context.Context) error {
			return i.verifyRecipient(ctx, created.ID, recipient)
		},
	}
	if err = i.queue.Enqueue(job); err != nil {
		i.logger.Warn().Err(err).Str("transfer_id", created.ID).Msg("recipient verification not scheduled")
	}

	return response, nil
}

// verifyRecipient runs on the background queue. Its result only annotates
// metadata; any failure is logged and absorbed.
func (i *TransferInteractor) verifyRecipient(ctx context.Context, transferID string, recipient models.RecipientInfo) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := i.verifier.Verify(ctx, recipient)
	if err != nil {
		i.logger.Warn().Err(err).Str("transfer_id", transferID).Msg("recipient verification unavailable")
		return nil
	}

	verification := map[string]interface{}{
		"isValid":    result.IsValid,
		"verifiedAt": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if result.AccountName != "" {
		verification["accountName"] = result.AccountName
	}

	meta := models.Metadata{models.MetaVerification: verification}
	if err = i.transferRepository.MergeMetadata(ctx, transferID, meta); err != nil {
		i.logger.Warn().Err(err).Str("transfer_id", transferID).Msg("failed to record verification result")
	}
	return nil
}

// ListUpdates is the polling fallback to the push channel. It never surfaces
// an error for normal operation: internal failures degrade to an empty list.
func (i *TransferInteractor) ListUpdates(userID string, limit int, since *time.Time) *dtos.UpdatesData {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = defaultUpdatesLimit
	}
	if limit > maxUpdatesLimit {
		limit = maxUpdatesLimit
	}

	empty := &dtos.UpdatesData{Transfers: []*dtos.TransferResponse{}, Count: 0}

	transfers, err := i.transferRepository.ListUpdates(ctx, userID, limit, since)
	if err != nil {
		i.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list transfer updates")
		return empty
	}

	responses := make([]*dtos.TransferResponse, 0, len(transfers))
	for idx := range transfers {
		responses = append(responses, dtos.NewTransferResponse(&transfers[idx]))
	}

	return &dtos.UpdatesData{Transfers: responses, Count: len(responses)}
}
