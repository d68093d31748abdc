package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primeedge/transfer-service/internal/domain/models"
	"github.com/primeedge/transfer-service/internal/domain/repositories"
	apperrors "github.com/primeedge/transfer-service/internal/errors"
	"github.com/primeedge/transfer-service/pkg/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const transferColumns = `id, user_id, type, amount, currency, status, recipient_name, recipient_account, recipient_bank, description, reference, metadata, created_at, updated_at`

type TransferRepositoryImpl struct {
	db     *pgxpool.Pool
	logger *zerolog.Logger
}

// NewTransferRepositoryImpl creates new instance of TransferRepositoryImpl.
func NewTransferRepositoryImpl(db *pgxpool.Pool) repositories.TransferRepository {
	l := log.GetLogger()
	return &TransferRepositoryImpl{
		db:     db,
		logger: &l,
	}
}

func scanTransfer(row pgx.Row) (*models.Transfer, error) {
	t := &models.Transfer{}
	var status string
	var metadata []byte

	err := row.Scan(
		&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Currency, &status,
		&t.Recipient.Name, &t.Recipient.AccountNumber, &t.Recipient.BankCode,
		&t.Description, &t.Reference, &metadata, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = models.TransferStatus(status)
	if len(metadata) > 0 {
		if err = json.Unmarshal(metadata, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return t, nil
}

func marshalMetadata(meta models.Metadata) ([]byte, error) {
	if meta == nil {
		meta = models.Metadata{}
	}
	return json.Marshal(meta)
}

const insertTransfer = `
INSERT INTO transactions (id, user_id, type, amount, currency, status, recipient_name, recipient_account, recipient_bank, description, metadata)
VALUES ($1, $2, $3, $4::NUMERIC(12,2), $5, $6, $7, $8, $9, $10, $11::jsonb)
RETURNING ` + transferColumns

// Create persists a new PENDING transfer row and returns it as stored.
func (r *TransferRepositoryImpl) Create(ctx context.Context, transfer *models.Transfer) (*models.Transfer, error) {
	meta, err := marshalMetadata(transfer.Metadata)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, insertTransfer,
		transfer.ID,
		transfer.UserID,
		transfer.Type,
		transfer.Amount,
		transfer.Currency,
		string(transfer.Status),
		transfer.Recipient.Name,
		transfer.Recipient.AccountNumber,
		transfer.Recipient.BankCode,
		transfer.Description,
		meta,
	)

	created, err := scanTransfer(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.SQLState() == repositories.UniqueViolationError {
			return nil, apperrors.NewBadRequestError("Transfer already exists")
		}
		return nil, fmt.Errorf("insert transfer: %w", err)
	}
	return created, nil
}

// GetByID returns the transfer or a NotFoundError.
func (r *TransferRepositoryImpl) GetByID(ctx context.Context, id string) (*models.Transfer, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+transferColumns+` FROM transactions WHERE id = $1 AND type = $2`,
		id, models.TransferType,
	)

	transfer, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Transfer")
		}
		return nil, err
	}
	return transfer, nil
}

const listUpdates = `
SELECT ` + transferColumns + `
FROM transactions
WHERE user_id = $1 AND type = $2 AND ($3::timestamptz IS NULL OR updated_at >= $3)
ORDER BY updated_at DESC
LIMIT $4`

// ListUpdates returns the user's transfers newest-updated-first.
func (r *TransferRepositoryImpl) ListUpdates(ctx context.Context, userID string, limit int, since *time.Time) ([]models.Transfer, error) {
	rows, err := r.db.Query(ctx, listUpdates, userID, models.TransferType, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transfers := make([]models.Transfer, 0, limit)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}

const listPending = `
SELECT t.id, t.user_id, t.type, t.amount, t.currency, t.status,
       t.recipient_name, t.recipient_account, t.recipient_bank,
       t.description, t.reference, t.metadata, t.created_at, t.updated_at,
       u.full_name, u.email, COUNT(*) OVER() AS total
FROM transactions t
JOIN users u ON u.id = t.user_id
WHERE t.type = $1 AND t.status = $2
ORDER BY t.created_at ASC
LIMIT $3 OFFSET $4`

// ListPending pages the review queue oldest-first, annotated with the owner.
func (r *TransferRepositoryImpl) ListPending(ctx context.Context, page, limit int) ([]repositories.PendingTransferRow, int64, error) {
	offset := (page - 1) * limit

	rows, err := r.db.Query(ctx, listPending, models.TransferType, string(models.StatusPending), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var total int64
	result := make([]repositories.PendingTransferRow, 0, limit)
	for rows.Next() {
		var item repositories.PendingTransferRow
		var status string
		var metadata []byte

		t := &item.Transfer
		err = rows.Scan(
			&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Currency, &status,
			&t.Recipient.Name, &t.Recipient.AccountNumber, &t.Recipient.BankCode,
			&t.Description, &t.Reference, &metadata, &t.CreatedAt, &t.UpdatedAt,
			&item.OwnerFullName, &item.OwnerEmail, &total,
		)
		if err != nil {
			return nil, 0, err
		}
		t.Status = models.TransferStatus(status)
		if len(metadata) > 0 {
			if err = json.Unmarshal(metadata, &t.Metadata); err != nil {
				return nil, 0, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		result = append(result, item)
	}
	return result, total, rows.Err()
}

const updateStatusIf = `
UPDATE transactions
SET status = $3, metadata = metadata || $4::jsonb, updated_at = NOW()
WHERE id = $1 AND status = $2 AND type = $5
RETURNING ` + transferColumns

// UpdateStatusIf is the compare-and-swap on status: of two concurrent
// transitions only one can match the WHERE clause, the other gets an
// InvalidStateError with the status it actually found.
func (r *TransferRepositoryImpl) UpdateStatusIf(ctx context.Context, id string, from, to models.TransferStatus, meta models.Metadata) (*models.Transfer, error) {
	metaJSON, err := marshalMetadata(meta)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, updateStatusIf, id, string(from), string(to), metaJSON, models.TransferType)
	updated, err := scanTransfer(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update transfer status: %w", err)
	}

	var current string
	err = r.db.QueryRow(ctx,
		`SELECT status FROM transactions WHERE id = $1 AND type = $2`,
		id, models.TransferType,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Transfer")
		}
		return nil, err
	}
	return nil, apperrors.NewInvalidStateError(current, string(from))
}

// MergeMetadata appends audit keys without a status transition.
func (r *TransferRepositoryImpl) MergeMetadata(ctx context.Context, id string, meta models.Metadata) error {
	metaJSON, err := marshalMetadata(meta)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE transactions SET metadata = metadata || $2::jsonb WHERE id = $1 AND type = $3`,
		id, metaJSON, models.TransferType,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("Transfer")
	}
	return nil
}

const settleComplete = `
WITH target AS (
  SELECT id, user_id, amount
  FROM transactions
  WHERE id = $1 AND status = $4 AND type = $5
  FOR UPDATE
),
debited AS (
  UPDATE users u
  SET balance = u.balance - t.amount
  FROM target t
  WHERE u.id = t.user_id AND u.balance >= t.amount
  RETURNING u.id, u.balance
),
completed AS (
  UPDATE transactions tx
  SET status = $6, reference = $2, metadata = tx.metadata || $3::jsonb, updated_at = NOW()
  FROM target t
  WHERE tx.id = t.id AND EXISTS (SELECT 1 FROM debited)
  RETURNING tx.id
)
SELECT t.user_id, COALESCE(d.balance, u.balance) AS user_balance, EXISTS (SELECT 1 FROM debited) AS debited
FROM target t
JOIN users u ON u.id = t.user_id
LEFT JOIN debited d ON d.id = t.user_id;`

// SettleComplete performs the only balance write for a transfer: the debit
// and the PROCESSING to COMPLETED flip happen in one statement inside one
// transaction, so "debited but still PROCESSING" is unobservable. When the
// balance re-check fails nothing changes and Debited comes back false.
func (r *TransferRepositoryImpl) SettleComplete(ctx context.Context, id string, reference string, meta models.Metadata) (repositories.SettleRow, error) {
	metaJSON, err := marshalMetadata(meta)
	if err != nil {
		return repositories.SettleRow{}, err
	}

	for {
		row, err := r.settleOnce(ctx, id, reference, metaJSON)
		if err == nil {
			return row, nil
		}

		if isSerializationError(err) {
			// retry transaction if serialization error occurs (SQLSTATE 40001)
			continue
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return row, apperrors.NewInvalidStateError("resolved", string(models.StatusProcessing))
		}
		return row, fmt.Errorf("settle transfer: %w", err)
	}
}

func (r *TransferRepositoryImpl) settleOnce(ctx context.Context, id, reference string, metaJSON []byte) (repositories.SettleRow, error) {
	var result repositories.SettleRow

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return result, err
	}

	err = tx.QueryRow(ctx, settleComplete,
		id, reference, metaJSON,
		string(models.StatusProcessing), models.TransferType, string(models.StatusCompleted),
	).Scan(&result.UserID, &result.UserBalance, &result.Debited)
	if err != nil {
		tx.Rollback(ctx)
		return result, err
	}

	if result.Debited {
		row := tx.QueryRow(ctx,
			`SELECT `+transferColumns+` FROM transactions WHERE id = $1 AND type = $2`,
			id, models.TransferType,
		)
		result.Transfer, err = scanTransfer(row)
		if err != nil {
			tx.Rollback(ctx)
			return result, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		tx.Rollback(ctx)
		return result, err
	}
	return result, nil
}

const transferStats = `
SELECT status, COUNT(*), COALESCE(SUM(amount), 0)
FROM transactions
WHERE type = $1
GROUP BY status`

// Stats returns per-status counts and the completed volume.
func (r *TransferRepositoryImpl) Stats(ctx context.Context) (repositories.TransferStats, error) {
	stats := repositories.TransferStats{
		CountByStatus: make(map[models.TransferStatus]int64),
	}

	rows, err := r.db.Query(ctx, transferStats, models.TransferType)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		var volume decimal.Decimal
		if err = rows.Scan(&status, &count, &volume); err != nil {
			return stats, err
		}
		stats.CountByStatus[models.TransferStatus(status)] = count
		if models.TransferStatus(status) == models.StatusCompleted {
			stats.CompletedVolume = volume
		}
	}
	return stats, rows.Err()
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == repositories.SerializationError
}
