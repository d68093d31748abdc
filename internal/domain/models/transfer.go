package models

import (
	"regexp"
	"strings"
	"time"

	apperrors "github.com/primeedge/transfer-service/internal/errors"
	"github.com/shopspring/decimal"
)

// TransferType discriminates external transfers from ordinary ledger rows
// stored in the same transactions table.
const TransferType = "external_transfer"

type TransferStatus string

const (
	StatusPending    TransferStatus = "PENDING"
	StatusProcessing TransferStatus = "PROCESSING"
	StatusCompleted  TransferStatus = "COMPLETED"
	StatusRejected   TransferStatus = "REJECTED"
	StatusFailed     TransferStatus = "FAILED"
)

// validTransitions is the whole state machine. Terminal states have no entry.
var validTransitions = map[TransferStatus][]TransferStatus{
	StatusPending:    {StatusProcessing, StatusRejected},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s TransferStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// ValidCurrencies is the enumerated set accepted at creation.
var ValidCurrencies = map[string]struct{}{
	"USD": {},
	"EUR": {},
	"GBP": {},
	"NGN": {},
}

// Metadata is the append-only audit bag persisted as JSONB. Stages merge
// their own keys in; nothing ever overwrites the whole document.
type Metadata map[string]interface{}

// Audit vocabulary. Keeping the key set closed here is what stands in for a
// schema on the JSONB column.
const (
	MetaSubmittedAt         = "submittedAt"
	MetaSubmittedBy         = "submittedBy"
	MetaVerification        = "verification"
	MetaApprovedBy          = "approvedBy"
	MetaApprovedAt          = "approvedAt"
	MetaApprovalNotes       = "approvalNotes"
	MetaProcessingStartedAt = "processingStartedAt"
	MetaRejectedBy          = "rejectedBy"
	MetaRejectedAt          = "rejectedAt"
	MetaRejectionReason     = "rejectionReason"
	MetaCompletedAt         = "completedAt"
	MetaSettlementReference = "settlementReference"
	MetaFailedAt            = "failedAt"
	MetaFailureReason       = "failureReason"
)

type RecipientInfo struct {
	Name          string `json:"name"`
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
}

var (
	recipientNameRegexp = regexp.MustCompile(`^[a-zA-Z][a-zA-Z .'-]+$`)
	accountNumberRegexp = regexp.MustCompile(`^\d{10}$`)
	bankCodeRegexp      = regexp.MustCompile(`^\d{3}$`)
)

// Validate checks recipient details against the rail conventions: a human
// name, a 10-digit account number and a 3-digit bank code.
func (r RecipientInfo) Validate() error {
	name := strings.TrimSpace(r.Name)
	if len(name) < 2 || !recipientNameRegexp.MatchString(name) {
		return apperrors.NewValidationError("invalid recipient name")
	}
	if !accountNumberRegexp.MatchString(r.AccountNumber) {
		return apperrors.NewValidationError("recipient account number must be 10 digits")
	}
	if !bankCodeRegexp.MatchString(r.BankCode) {
		return apperrors.NewValidationError("recipient bank code must be 3 digits")
	}
	return nil
}

// Transfer is an external transfer row in the transactions ledger.
type Transfer struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	Type        string          `db:"type"`
	Amount      decimal.Decimal `db:"amount"`
	Currency    string          `db:"currency"`
	Status      TransferStatus  `db:"status"`
	Recipient   RecipientInfo   `db:"-"`
	Description string          `db:"description"`
	Reference   *string         `db:"reference"`
	Metadata    Metadata        `db:"metadata"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// ValidateAmount enforces the creation rules: positive, at most two
// fractional digits, no larger than the configured maximum.
func ValidateAmount(amount, max decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.NewValidationError("amount must be greater than zero")
	}
	if amount.Exponent() < -2 {
		return apperrors.NewValidationError("amount must have at most 2 decimal places")
	}
	if amount.GreaterThan(max) {
		return apperrors.NewValidationError("amount exceeds the maximum transfer limit")
	}
	return nil
}

// NormalizeCurrency uppercases and validates the currency, applying the
// configured default when the field is absent.
func NormalizeCurrency(currency, defaultCurrency string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(currency))
	if c == "" {
		c = defaultCurrency
	}
	if _, ok := ValidCurrencies[c]; !ok {
		return "", apperrors.NewValidationError("unsupported currency")
	}
	return c, nil
}
