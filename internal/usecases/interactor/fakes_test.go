package interactor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/primeedge/transfer-service/internal/domain/models"
	"github.com/primeedge/transfer-service/internal/domain/repositories"
	apperrors "github.com/primeedge/transfer-service/internal/errors"
	"github.com/primeedge/transfer-service/internal/queue"
	"github.com/shopspring/decimal"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NewBadRequestError("User not found")
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) balance(id string) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id].Balance
}

type fakeTransferRepo struct {
	mu        sync.Mutex
	transfers map[string]*models.Transfer
	users     *fakeUserRepo
	listErr   error
}

func newFakeTransferRepo(users *fakeUserRepo) *fakeTransferRepo {
	return &fakeTransferRepo{
		transfers: make(map[string]*models.Transfer),
		users:     users,
	}
}

func copyTransfer(t *models.Transfer) *models.Transfer {
	copied := *t
	copied.Metadata = make(models.Metadata, len(t.Metadata))
	for k, v := range t.Metadata {
		copied.Metadata[k] = v
	}
	return &copied
}

func (r *fakeTransferRepo) Create(_ context.Context, transfer *models.Transfer) (*models.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := copyTransfer(transfer)
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.transfers[stored.ID] = stored
	return copyTransfer(stored), nil
}

func (r *fakeTransferRepo) GetByID(_ context.Context, id string) (*models.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.transfers[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Transfer")
	}
	return copyTransfer(stored), nil
}

func (r *fakeTransferRepo) ListUpdates(_ context.Context, userID string, limit int, since *time.Time) ([]models.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}

	var result []models.Transfer
	for _, t := range r.transfers {
		if t.UserID != userID {
			continue
		}
		if since != nil && t.UpdatedAt.Before(*since) {
			continue
		}
		result = append(result, *copyTransfer(t))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *fakeTransferRepo) ListPending(_ context.Context, page, limit int) ([]repositories.PendingTransferRow, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []*models.Transfer
	for _, t := range r.transfers {
		if t.Status == models.StatusPending {
			pending = append(pending, t)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	total := int64(len(pending))
	start := (page - 1) * limit
	if start > len(pending) {
		start = len(pending)
	}
	end := start + limit
	if end > len(pending) {
		end = len(pending)
	}

	rows := make([]repositories.PendingTransferRow, 0, end-start)
	for _, t := range pending[start:end] {
		row := repositories.PendingTransferRow{Transfer: *copyTransfer(t)}
		if owner, ok := r.users.users[t.UserID]; ok {
			row.OwnerFullName = owner.FullName
			row.OwnerEmail = owner.Email
		}
		rows = append(rows, row)
	}
	return rows, total, nil
}

func (r *fakeTransferRepo) UpdateStatusIf(_ context.Context, id string, from, to models.TransferStatus, meta models.Metadata) (*models.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.transfers[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("Transfer")
	}
	if stored.Status != from {
		return nil, apperrors.NewInvalidStateError(string(stored.Status), string(from))
	}

	stored.Status = to
	for k, v := range meta {
		stored.Metadata[k] = v
	}
	stored.UpdatedAt = time.Now().UTC()
	return copyTransfer(stored), nil
}

func (r *fakeTransferRepo) MergeMetadata(_ context.Context, id string, meta models.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.transfers[id]
	if !ok {
		return apperrors.NewNotFoundError("Transfer")
	}
	for k, v := range meta {
		stored.Metadata[k] = v
	}
	return nil
}

func (r *fakeTransferRepo) SettleComplete(_ context.Context, id string, reference string, meta models.Metadata) (repositories.SettleRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.transfers[id]
	if !ok || stored.Status != models.StatusProcessing {
		return repositories.SettleRow{}, apperrors.NewInvalidStateError("resolved", string(models.StatusProcessing))
	}

	r.users.mu.Lock()
	owner := r.users.users[stored.UserID]
	if owner.Balance.LessThan(stored.Amount) {
		balance := owner.Balance
		r.users.mu.Unlock()
		return repositories.SettleRow{UserID: stored.UserID, UserBalance: balance, Debited: false}, nil
	}
	owner.Balance = owner.Balance.Sub(stored.Amount)
	balance := owner.Balance
	r.users.mu.Unlock()

	stored.Status = models.StatusCompleted
	stored.Reference = &reference
	for k, v := range meta {
		stored.Metadata[k] = v
	}
	stored.UpdatedAt = time.Now().UTC()

	return repositories.SettleRow{
		Transfer:    copyTransfer(stored),
		UserID:      stored.UserID,
		UserBalance: balance,
		Debited:     true,
	}, nil
}

func (r *fakeTransferRepo) Stats(_ context.Context) (repositories.TransferStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := repositories.TransferStats{CountByStatus: make(map[models.TransferStatus]int64)}
	for _, t := range r.transfers {
		stats.CountByStatus[t.Status]++
		if t.Status == models.StatusCompleted {
			stats.CompletedVolume = stats.CompletedVolume.Add(t.Amount)
		}
	}
	return stats, nil
}

// recordingNotifier captures emitted events for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	pending []string
	updates []string
}

func (n *recordingNotifier) EmitPending(userID string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, userID)
}

func (n *recordingNotifier) EmitUpdate(userID string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, userID)
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending), len(n.updates)
}

// panickyNotifier proves emit failures never reach the caller.
type panickyNotifier struct{}

func (panickyNotifier) EmitPending(string, interface{}) { panic("push channel down") }

func (panickyNotifier) EmitUpdate(string, interface{}) { panic("push channel down") }

// fakeQueue collects jobs; tests drain it explicitly to control when
// background work happens.
type fakeQueue struct {
	mu   sync.Mutex
	jobs []queue.Job
}

func (q *fakeQueue) Enqueue(job queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) drainAll() {
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()
		_ = job.Run(context.Background())
	}
}

// stubSettlementClient resolves according to the scripted outcome.
type stubSettlementClient struct {
	result SettlementResult
	err    error
	calls  int
}

func (c *stubSettlementClient) Submit(_ context.Context, _ SettlementRequest) (SettlementResult, error) {
	c.calls++
	return c.result, c.err
}

type stubVerificationClient struct {
	result VerificationResult
	err    error
}

func (c *stubVerificationClient) Verify(_ context.Context, _ models.RecipientInfo) (VerificationResult, error) {
	return c.result, c.err
}
