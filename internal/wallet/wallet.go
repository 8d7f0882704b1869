package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("wallet not found")

// Wallet is a balance-holding account owned by one user. Balance and the
// two lifetime totals are kept in cents and only ever change through
// Service.ApplyAdjustment, so balance == totalIncome - totalExpenses holds
// across every committed operation.
type Wallet struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Name          string
	ImageURL      *string
	Balance       int64
	TotalIncome   int64
	TotalExpenses int64
	CreatedAt     time.Time
}
