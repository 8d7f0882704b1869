package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmcosta/billfold/internal/money"
	"github.com/dmcosta/billfold/internal/transaction"
)

type transactionResponse struct {
	ID          uuid.UUID        `json:"id"`
	WalletID    uuid.UUID        `json:"wallet_id"`
	Type        transaction.Type `json:"type"`
	Amount      string           `json:"amount"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Date        time.Time        `json:"date"`
	ReceiptURL  *string          `json:"receipt,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

func toResponse(t *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		WalletID:    t.WalletID,
		Type:        t.Type,
		Amount:      money.CentsString(t.Amount),
		Description: t.Description,
		Category:    t.Category,
		Date:        t.Date,
		ReceiptURL:  t.ReceiptURL,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, t := range txs {
		resp[i] = toResponse(t)
	}

	return resp
}
