package gateway

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/primeedge/transfer-service/internal/config"
	"github.com/primeedge/transfer-service/internal/usecases/interactor"
	"github.com/primeedge/transfer-service/pkg/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MockSettlementClient simulates the external banking rail. It sleeps for the
// configured latency, honors context cancellation, and deterministically
// fails any amount above the configured ceiling, modeling a rail-imposed
// limit. Swappable with a real rail binding without touching the service.
type MockSettlementClient struct {
	ceiling decimal.Decimal
	latency time.Duration
	logger  *zerolog.Logger
}

func NewMockSettlementClient(cfg config.Gateway) *MockSettlementClient {
	l := log.GetLogger()

	ceiling, err := decimal.NewFromString(cfg.AmountCeiling)
	if err != nil {
		ceiling = decimal.NewFromInt(50000)
	}
	latencyMs, err := strconv.Atoi(cfg.LatencyMs)
	if err != nil {
		latencyMs = 150
	}

	return &MockSettlementClient{
		ceiling: ceiling,
		latency: time.Duration(latencyMs) * time.Millisecond,
		logger:  &l,
	}
}

// Submit sends the transfer to the rail. The outcome is the sole authority
// for the COMPLETED/FAILED decision.
func (c *MockSettlementClient) Submit(ctx context.Context, req interactor.SettlementRequest) (interactor.SettlementResult, error) {
	select {
	case <-time.After(c.latency):
	case <-ctx.Done():
		return interactor.SettlementResult{}, ctx.Err()
	}

	if req.Amount.GreaterThan(c.ceiling) {
		c.logger.Warn().
			Str("transfer_id", req.TransferID).
			Str("amount", req.Amount.String()).
			Msg("settlement rejected by rail limit")
		return interactor.SettlementResult{
			Success: false,
			Error:   "amount exceeds the rail transfer limit",
		}, nil
	}

	reference := "STL-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:16])
	c.logger.Info().
		Str("transfer_id", req.TransferID).
		Str("reference", reference).
		Msg("settlement accepted by rail")

	return interactor.SettlementResult{Success: true, Reference: reference}, nil
}
