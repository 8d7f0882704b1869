package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmcosta/billfold/internal/money"
	"github.com/dmcosta/billfold/internal/wallet"
)

type walletResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ImageURL      *string   `json:"image,omitempty"`
	Balance       string    `json:"balance"`
	TotalIncome   string    `json:"total_income"`
	TotalExpenses string    `json:"total_expenses"`
	CreatedAt     time.Time `json:"created_at"`
}

func toResponse(w *wallet.Wallet) walletResponse {
	return walletResponse{
		ID:            w.ID,
		Name:          w.Name,
		ImageURL:      w.ImageURL,
		Balance:       money.CentsString(w.Balance),
		TotalIncome:   money.CentsString(w.TotalIncome),
		TotalExpenses: money.CentsString(w.TotalExpenses),
		CreatedAt:     w.CreatedAt,
	}
}

func toResponseList(wallets []*wallet.Wallet) []walletResponse {
	resp := make([]walletResponse, len(wallets))
	for i, w := range wallets {
		resp[i] = toResponse(w)
	}

	return resp
}
