package repositories

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primeedge/transfer-service/internal/config"
	"github.com/primeedge/transfer-service/internal/domain/models"
	"github.com/primeedge/transfer-service/internal/domain/repositories"
	apperrors "github.com/primeedge/transfer-service/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a running PostgreSQL with the migrations applied. They are
// skipped unless TRANSFER_TEST_DB is set, e.g.
//
//	TRANSFER_TEST_DB=1 DB_DATABASE=transfer_service_test go test ./...
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TRANSFER_TEST_DB") == "" {
		t.Skip("TRANSFER_TEST_DB not set, skipping database tests")
	}

	cnf := config.Load()

	poolConfig, err := pgxpool.ParseConfig(cnf.DSN())
	require.NoError(t, err)

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	db, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.Exec(context.Background(), "TRUNCATE TABLE transactions")
	require.NoError(t, err)

	return db
}

func seedUser(t *testing.T, db *pgxpool.Pool, balance float64) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(context.Background(),
		`INSERT INTO users (id, full_name, email, balance) VALUES ($1, $2, $3, $4)`,
		id, "Jane Smith", id+"@example.com", balance,
	)
	require.NoError(t, err)
	return id
}

func userBalance(t *testing.T, db *pgxpool.Pool, id string) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(context.Background(), "SELECT balance FROM users WHERE id = $1", id).Scan(&balance)
	require.NoError(t, err)
	return balance
}

func newDBTransfer(userID string, amount float64) *models.Transfer {
	return &models.Transfer{
		ID:       uuid.New().String(),
		UserID:   userID,
		Type:     models.TransferType,
		Amount:   decimal.NewFromFloat(amount),
		Currency: "USD",
		Status:   models.StatusPending,
		Recipient: models.RecipientInfo{
			Name:          "John Doe",
			AccountNumber: "1234567890",
			BankCode:      "044",
		},
		Description: "Transfer to John Doe",
		Metadata:    models.Metadata{models.MetaSubmittedBy: userID},
	}
}

func TestTransferRepositoryRoundTrip(t *testing.T) {
	db := setupDB(t)
	repo := NewTransferRepositoryImpl(db)
	userID := seedUser(t, db, 1000)

	created, err := repo.Create(context.Background(), newDBTransfer(userID, 250.50))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.True(t, created.Amount.Equal(decimal.NewFromFloat(250.50)))
	assert.Equal(t, userID, created.Metadata[models.MetaSubmittedBy])
	assert.Nil(t, created.Reference)

	loaded, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, "1234567890", loaded.Recipient.AccountNumber)

	_, err = repo.GetByID(context.Background(), uuid.New().String())
	var notFound *apperrors.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestTransferRepositoryListUpdates(t *testing.T) {
	db := setupDB(t)
	repo := NewTransferRepositoryImpl(db)
	userID := seedUser(t, db, 10000)
	otherID := seedUser(t, db, 10000)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(context.Background(), newDBTransfer(userID, 10))
		require.NoError(t, err)
	}
	_, err := repo.Create(context.Background(), newDBTransfer(otherID, 10))
	require.NoError(t, err)

	updates, err := repo.ListUpdates(context.Background(), userID, 2, nil)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.True(t, !updates[0].UpdatedAt.Before(updates[1].UpdatedAt))
	for _, u := range updates {
		assert.Equal(t, userID, u.UserID)
	}

	future := time.Now().UTC().Add(time.Hour)
	updates, err = repo.ListUpdates(context.Background(), userID, 10, &future)
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestTransferRepositoryListPending(t *testing.T) {
	db := setupDB(t)
	repo := NewTransferRepositoryImpl(db)
	userID := seedUser(t, db, 10000)

	var ids []string
	for i := 0; i < 3; i++ {
		created, err := repo.Create(context.Background(), newDBTransfer(userID, 10))
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	rows, total, err := repo.ListPending(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, ids[i], row.Transfer.ID)
		assert.Equal(t, "Jane Smith", row.OwnerFullName)
	}

	rows, total, err = repo.ListPending(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 1)
	assert.Equal(t, ids[2], rows[0].Transfer.ID)
}

func TestTransferRepositoryUpdateStatusIf(t *testing.T) {
	db := setupDB(t)
	repo := NewTransferRepositoryImpl(db)
	userID := seedUser(t, db, 10000)

	t.Run("matching precondition flips the status", func(t *testing.T) {
		created, err := repo.Create(context.Background(), newDBTransfer(userID, 10))
		require.NoError(t, err)

		updated, err := repo.UpdateStatusIf(context.Background(), created.ID,
			models.StatusPending, models.StatusProcessing,
			models.Metadata{models.MetaApprovedBy: "admin-1"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusProcessing, updated.Status)
		assert.Equal(t, "admin-1", updated.Metadata[models.MetaApprovedBy])
		assert.Equal(t, userID, updated.Metadata[models.MetaSubmittedBy], "merge must keep earlier keys")
	})

	t.Run("stale precondition reports the actual status", func(t *testing.T) {
		created, err := repo.Create(context.Background(), newDBTransfer(userID, 10))
		require.NoError(t, err)
		_, err = repo.UpdateStatusIf(context.Background(), created.ID, models.StatusPending, models.StatusRejected,
			models.Metadata{models.MetaRejectionReason: "dup"})
		require.NoError(t, err)

		_, err = repo.UpdateStatusIf(context.Background(), created.ID, models.StatusPending, models.StatusProcessing, nil)
		var stateErr *apperrors.InvalidStateError
		require.True(t, errors.As(err, &stateErr))
		assert.Equal(t, string(models.StatusRejected), stateErr.Current)
	})

	t.Run("unknown transfer", func(t *testing.T) {
		_, err := repo.UpdateStatusIf(context.Background(), uuid.New().String(), models.StatusPending, models.StatusProcessing, nil)
		var notFound *apperrors.NotFoundError
		assert.True(t, errors.As(err, &notFound))
	})

	t.Run("concurrent transitions admit exactly one winner", func(t *testing.T) {
		created, err := repo.Create(context.Background(), newDBTransfer(userID, 10))
		require.NoError(t, err)

		n := 10
		errs := make(chan error, n)
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				_, err := repo.UpdateStatusIf(context.Background(), created.ID,
					models.StatusPending, models.StatusProcessing, nil)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		winners := 0
		for err := range errs {
			if err == nil {
				winners++
			} else {
				var stateErr *apperrors.InvalidStateError
				assert.True(t, errors.As(err, &stateErr))
			}
		}
		assert.Equal(t, 1, winners)
	})
}

func TestTransferRepositorySettleComplete(t *testing.T) {
	db := setupDB(t)
	repo := NewTransferRepositoryImpl(db)

	approve := func(t *testing.T, id string) {
		_, err := repo.UpdateStatusIf(context.Background(), id, models.StatusPending, models.StatusProcessing, nil)
		require.NoError(t, err)
	}

	t.Run("debit and completion land together", func(t *testing.T) {
		userID := seedUser(t, db, 1000)
		created, err := repo.Create(context.Background(), newDBTransfer(userID, 400))
		require.NoError(t, err)
		approve(t, created.ID)

		row, err := repo.SettleComplete(context.Background(), created.ID, "STL-ABC",
			models.Metadata{models.MetaSettlementReference: "STL-ABC"})
		require.NoError(t, err)
		assert.True(t, row.Debited)
		assert.True(t, row.UserBalance.Equal(decimal.NewFromInt(600)))
		require.NotNil(t, row.Transfer)
		assert.Equal(t, models.StatusCompleted, row.Transfer.Status)
		require.NotNil(t, row.Transfer.Reference)
		assert.Equal(t, "STL-ABC", *row.Transfer.Reference)

		assert.True(t, userBalance(t, db, userID).Equal(decimal.NewFromInt(600)))
	})

	t.Run("insufficient balance changes nothing", func(t *testing.T) {
		userID := seedUser(t, db, 100)
		created, err := repo.Create(context.Background(), newDBTransfer(userID, 400))
		require.NoError(t, err)
		approve(t, created.ID)

		row, err := repo.SettleComplete(context.Background(), created.ID, "STL-DEF", nil)
		require.NoError(t, err)
		assert.False(t, row.Debited)
		assert.True(t, row.UserBalance.Equal(decimal.NewFromInt(100)))

		loaded, err := repo.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusProcessing, loaded.Status)
		assert.True(t, userBalance(t, db, userID).Equal(decimal.NewFromInt(100)))
	})

	t.Run("second settle of the same transfer fails without a second debit", func(t *testing.T) {
		userID := seedUser(t, db, 1000)
		created, err := repo.Create(context.Background(), newDBTransfer(userID, 400))
		require.NoError(t, err)
		approve(t, created.ID)

		_, err = repo.SettleComplete(context.Background(), created.ID, "STL-GHI", nil)
		require.NoError(t, err)

		_, err = repo.SettleComplete(context.Background(), created.ID, "STL-JKL", nil)
		var stateErr *apperrors.InvalidStateError
		require.True(t, errors.As(err, &stateErr))
		assert.True(t, userBalance(t, db, userID).Equal(decimal.NewFromInt(600)))
	})

	t.Run("concurrent settles debit exactly once", func(t *testing.T) {
		userID := seedUser(t, db, 1000)
		created, err := repo.Create(context.Background(), newDBTransfer(userID, 400))
		require.NoError(t, err)
		approve(t, created.ID)

		n := 10
		debits := make(chan bool, n)
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				row, err := repo.SettleComplete(context.Background(), created.ID, "STL-MNO", nil)
				debits <- err == nil && row.Debited
			}()
		}
		wg.Wait()
		close(debits)

		debited := 0
		for d := range debits {
			if d {
				debited++
			}
		}
		assert.Equal(t, 1, debited)
		assert.True(t, userBalance(t, db, userID).Equal(decimal.NewFromInt(600)))
	})
}

func TestTransferRepositoryStats(t *testing.T) {
	db := setupDB(t)
	repo := NewTransferRepositoryImpl(db)
	userID := seedUser(t, db, 10000)

	first, err := repo.Create(context.Background(), newDBTransfer(userID, 100))
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), newDBTransfer(userID, 200))
	require.NoError(t, err)

	_, err = repo.UpdateStatusIf(context.Background(), first.ID, models.StatusPending, models.StatusProcessing, nil)
	require.NoError(t, err)
	_, err = repo.SettleComplete(context.Background(), first.ID, "STL-PQR", nil)
	require.NoError(t, err)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.CountByStatus[models.StatusCompleted])
	assert.Equal(t, int64(1), stats.CountByStatus[models.StatusPending])
	assert.True(t, stats.CompletedVolume.Equal(decimal.NewFromInt(100)))
}

var _ repositories.TransferRepository = (*TransferRepositoryImpl)(nil)
