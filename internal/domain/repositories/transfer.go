package repositories

import (
	"context"
	"time"

	"github.com/primeedge/transfer-service/internal/domain/models"
	"github.com/shopspring/decimal"
)

const (
	SerializationError   = "40001"
	UniqueViolationError = "23505"
)

type TransferRepository interface {
	Create(ctx context.Context, transfer *models.Transfer) (*models.Transfer, error)
	GetByID(ctx context.Context, id string) (*models.Transfer, error)
	ListUpdates(ctx context.Context, userID string, limit int, since *time.Time) ([]models.Transfer, error)
	ListPending(ctx context.Context, page, limit int) ([]PendingTransferRow, int64, error)
	// UpdateStatusIf performs the conditional transition: the row changes only
	// if its status still equals from. Anything else is an InvalidStateError
	// (or NotFoundError when the id is unknown).
	UpdateStatusIf(ctx context.Context, id string, from, to models.TransferStatus, meta models.Metadata) (*models.Transfer, error)
	// MergeMetadata appends keys to the audit bag without touching status.
	MergeMetadata(ctx context.Context, id string, meta models.Metadata) error
	// SettleComplete debits the owner's balance and flips PROCESSING to
	// COMPLETED in a single atomic statement. Debited is false when the
	// balance re-check failed; the transfer is then left in PROCESSING for the
	// caller to fail explicitly.
	SettleComplete(ctx context.Context, id string, reference string, meta models.Metadata) (SettleRow, error)
	Stats(ctx context.Context) (TransferStats, error)
}

// PendingTransferRow annotates a pending transfer with the owning user's
// identity for the admin review list.
type PendingTransferRow struct {
	Transfer      models.Transfer
	OwnerFullName string
	OwnerEmail    string
}

type SettleRow struct {
	Transfer    *models.Transfer
	UserID      string
	UserBalance decimal.Decimal
	Debited     bool
}

type TransferStats struct {
	CountByStatus   map[models.TransferStatus]int64
	CompletedVolume decimal.Decimal
}
