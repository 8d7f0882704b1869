package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmcosta/billfold/internal/money"
)

// Type represents the type of transaction (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

var (
	ErrNotFound     = errors.New("transaction not found")
	ErrInvalidInput = errors.New("invalid transaction data")

	// ErrInsufficientFunds is returned when an expense would drive the
	// wallet balance negative. Checked before any wallet is written.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCannotDelete is returned when deleting an income transaction
	// would leave the wallet with a negative balance.
	ErrCannotDelete = errors.New("transaction cannot be deleted")
)

// InsufficientFundsError reports how short the wallet is.
type InsufficientFundsError struct {
	WalletID  uuid.UUID
	Available int64
	Requested int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("wallet %s has %s available, expense needs %s",
		e.WalletID, money.Format(e.Available), money.Format(e.Requested))
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// Transaction is a single income or expense event attributed to one wallet.
// Amount is strictly positive cents; the signed contribution to the wallet
// is +Amount for income and -Amount for expense.
type Transaction struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	WalletID    uuid.UUID
	Type        Type
	Amount      int64
	Description string
	Category    string
	Date        time.Time
	ReceiptURL  *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// SignedAmount is the transaction's contribution to its wallet balance.
func (t *Transaction) SignedAmount() int64 {
	if t.Type == TypeIncome {
		return t.Amount
	}

	return -t.Amount
}
