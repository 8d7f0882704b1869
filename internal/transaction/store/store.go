package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmcosta/billfold/internal/transaction"
	"github.com/dmcosta/billfold/internal/wallet"
	walletstore "github.com/dmcosta/billfold/internal/wallet/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectTransactionColumns = `
	id, owner_id, wallet_id, type, amount, description, category, date,
	receipt_url, created_at, updated_at
`

func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var t transaction.Transaction

	var typeStr string

	var receiptURL sql.NullString

	if err := s.Scan(
		&t.ID, &t.OwnerID, &t.WalletID, &typeStr, &t.Amount,
		&t.Description, &t.Category, &t.Date,
		&receiptURL, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t.Type = transaction.Type(typeStr)

	if receiptURL.Valid {
		t.ReceiptURL = &receiptURL.String
	}

	return &t, nil
}

func (s *Store) GetTransaction(ctx context.Context, ownerID, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE id = $1 AND owner_id = $2`

	t, err := scanTransaction(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, ownerID uuid.UUID, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE owner_id = $1`

	args := []any{ownerID}

	argIdx := 2

	if filter.WalletID != nil {
		query += fmt.Sprintf(" AND wallet_id = $%d", argIdx)

		args = append(args, *filter.WalletID)
		argIdx++
	}

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argIdx)

		args = append(args, *filter.Type)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

func (s *Store) Begin(ctx context.Context) (transaction.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning db transaction: %w", err)
	}

	return &reconcileTx{tx: dbTx}, nil
}

// reconcileTx runs one reconciliation as a single database transaction.
// Wallet mutations go through the wallet store helpers so every balance
// change in the system funnels through one statement.
type reconcileTx struct {
	tx *sql.Tx
}

func (r *reconcileTx) Commit() error   { return r.tx.Commit() }
func (r *reconcileTx) Rollback() error { return r.tx.Rollback() }

func (r *reconcileTx) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE id = $1`

	t, err := scanTransaction(r.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return t, nil
}

func (r *reconcileTx) LockWallet(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	return walletstore.Lock(ctx, r.tx, id)
}

func (r *reconcileTx) AdjustWallet(ctx context.Context, id uuid.UUID, balanceDelta, incomeDelta, expenseDelta int64) (*wallet.Wallet, error) {
	return walletstore.Adjust(ctx, r.tx, id, balanceDelta, incomeDelta, expenseDelta)
}

func (r *reconcileTx) InsertTransaction(ctx context.Context, t *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (owner_id, wallet_id, type, amount, description, category, date, receipt_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := r.tx.QueryRowContext(ctx, query,
		t.OwnerID,
		t.WalletID,
		t.Type,
		t.Amount,
		t.Description,
		t.Category,
		t.Date,
		t.ReceiptURL,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}

	return nil
}

func (r *reconcileTx) UpdateTransaction(ctx context.Context, t *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET wallet_id = $1, type = $2, amount = $3, description = $4,
		    category = $5, date = $6, receipt_url = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`

	err := r.tx.QueryRowContext(ctx, query,
		t.WalletID,
		t.Type,
		t.Amount,
		t.Description,
		t.Category,
		t.Date,
		t.ReceiptURL,
		t.ID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return transaction.ErrNotFound
		}

		return fmt.Errorf("updating transaction: %w", err)
	}

	return nil
}

func (r *reconcileTx) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if _, err := r.tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	return nil
}
