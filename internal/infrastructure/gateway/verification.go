package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/primeedge/transfer-service/internal/domain/models"
	"github.com/primeedge/transfer-service/internal/usecases/interactor"
	"github.com/primeedge/transfer-service/pkg/log"
	"github.com/rs/zerolog"
)

// MockVerificationClient simulates the recipient plausibility check. It is
// purely advisory: results are merged into transfer metadata and never block
// or reverse a transfer.
type MockVerificationClient struct {
	latency time.Duration
	logger  *zerolog.Logger
}

func NewMockVerificationClient() *MockVerificationClient {
	l := log.GetLogger()
	return &MockVerificationClient{latency: 50 * time.Millisecond, logger: &l}
}

func (c *MockVerificationClient) Verify(ctx context.Context, recipient models.RecipientInfo) (interactor.VerificationResult, error) {
	select {
	case <-time.After(c.latency):
	case <-ctx.Done():
		return interactor.VerificationResult{}, ctx.Err()
	}

	// An account number of all zeros is the one implausible pattern the mock
	// rail refutes.
	if strings.Trim(recipient.AccountNumber, "0") == "" {
		return interactor.VerificationResult{IsValid: false}, nil
	}

	return interactor.VerificationResult{
		IsValid:     true,
		AccountName: strings.ToUpper(recipient.Name),
	}, nil
}
