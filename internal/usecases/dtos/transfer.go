package dtos

import (
	"encoding/json"
	"time"

	"github.com/primeedge/transfer-service/internal/domain/models"
	"github.com/primeedge/transfer-service/internal/domain/repositories"
	apperrors "github.com/primeedge/transfer-service/internal/errors"
	"github.com/shopspring/decimal"
)

// CreateTransferDTO is the create-transfer request body. Amount is kept raw
// because clients send it both as a JSON number and as a string.
type CreateTransferDTO struct {
	RawAmount   json.RawMessage      `json:"amount"`
	Currency    string               `json:"currency"`
	Recipient   models.RecipientInfo `json:"recipientInfo"`
	Description string               `json:"description"`
}

// Amount parses the raw amount into a decimal.
func (d *CreateTransferDTO) Amount() (decimal.Decimal, error) {
	raw := string(d.RawAmount)
	if raw == "" || raw == "null" {
		return decimal.Decimal{}, apperrors.NewValidationError("amount is required")
	}
	if len(raw) >= 2 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(d.RawAmount, &s); err != nil {
			return decimal.Decimal{}, apperrors.NewValidationError("invalid amount")
		}
		raw = s
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, apperrors.NewValidationError("invalid amount")
	}
	return amount, nil
}

type ApproveTransferDTO struct {
	Notes string `json:"notes"`
}

type RejectTransferDTO struct {
	Reason string `json:"reason"`
}

// TransferResponse is the sanitized transfer surfaced over HTTP and the push
// channel. Amount goes out as a plain number, not a ledger-internal type.
type TransferResponse struct {
	ID            string               `json:"id"`
	UserID        string               `json:"userId"`
	Amount        float64              `json:"amount"`
	Currency      string               `json:"currency"`
	Status        string               `json:"status"`
	RecipientInfo models.RecipientInfo `json:"recipientInfo"`
	Description   string               `json:"description"`
	Reference     *string              `json:"reference"`
	Metadata      models.Metadata      `json:"metadata"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func NewTransferResponse(t *models.Transfer) *TransferResponse {
	amount, _ := t.Amount.Float64()
	return &TransferResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		Amount:        amount,
		Currency:      t.Currency,
		Status:        string(t.Status),
		RecipientInfo: t.Recipient,
		Description:   t.Description,
		Reference:     t.Reference,
		Metadata:      t.Metadata,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// Envelope is the uniform JSON response wrapper.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type TransferData struct {
	Transaction *TransferResponse `json:"transaction"`
}

type UpdatesData struct {
	Transfers []*TransferResponse `json:"transfers"`
	Count     int                 `json:"count"`
}

type OwnerInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type PendingTransferItem struct {
	*TransferResponse
	Owner OwnerInfo `json:"owner"`
}

func NewPendingTransferItem(row repositories.PendingTransferRow) *PendingTransferItem {
	return &PendingTransferItem{
		TransferResponse: NewTransferResponse(&row.Transfer),
		Owner: OwnerInfo{
			FullName: row.OwnerFullName,
			Email:    row.OwnerEmail,
		},
	}
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type PendingTransfersPage struct {
	Items      []*PendingTransferItem `json:"items"`
	Pagination Pagination             `json:"pagination"`
}

type TransferStatsResponse struct {
	CountByStatus   map[string]int64 `json:"countByStatus"`
	CompletedVolume float64          `json:"completedVolume"`
}
