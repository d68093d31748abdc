package interactor

import (
	"context"

	"github.com/primeedge/transfer-service/internal/domain/models"
	"github.com/primeedge/transfer-service/internal/queue"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SettlementRequest is handed to the external rail binding.
type SettlementRequest struct {
	TransferID string
	Amount     decimal.Decimal
	Currency   string
	Recipient  models.RecipientInfo
}

type SettlementResult struct {
	Success   bool
	Reference string
	Error     string
}

// SettlementClient submits a transfer to the external banking rail. Its
// outcome is the sole authority for the COMPLETED/FAILED decision.
type SettlementClient interface {
	Submit(ctx context.Context, req SettlementRequest) (SettlementResult, error)
}

type VerificationResult struct {
	IsValid     bool
	AccountName string
}

// VerificationClient confirms or refutes recipient plausibility. Advisory
// only; it never blocks or reverses a transfer.
type VerificationClient interface {
	Verify(ctx context.Context, recipient models.RecipientInfo) (VerificationResult, error)
}

// Enqueuer decouples interactors from the concrete background queue.
type Enqueuer interface {
	Enqueue(job queue.Job) error
}

// safeEmit shields ledger operations from a misbehaving push notifier.
func safeEmit(logger *zerolog.Logger, emit func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("push notifier panicked")
		}
	}()
	emit()
}
