package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmcosta/billfold/internal/wallet"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Querier is satisfied by both *sql.DB and *sql.Tx, so the adjustment
// helpers below can run standalone or inside a reconciliation transaction.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectWalletColumns = `
	id, owner_id, name, image_url, balance, total_income, total_expenses, created_at
`

func scanWallet(s scanner) (*wallet.Wallet, error) {
	var w wallet.Wallet

	var imageURL sql.NullString

	if err := s.Scan(
		&w.ID, &w.OwnerID, &w.Name, &imageURL,
		&w.Balance, &w.TotalIncome, &w.TotalExpenses, &w.CreatedAt,
	); err != nil {
		return nil, err
	}

	if imageURL.Valid {
		w.ImageURL = &imageURL.String
	}

	return &w, nil
}

func (s *Store) CreateWallet(ctx context.Context, w *wallet.Wallet) error {
	query := `
		INSERT INTO wallets (owner_id, name, image_url, balance, total_income, total_expenses, created_at)
		VALUES ($1, $2, $3, 0, 0, 0, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, w.OwnerID, w.Name, w.ImageURL).
		Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating wallet: %w", err)
	}

	w.Balance = 0
	w.TotalIncome = 0
	w.TotalExpenses = 0

	return nil
}

func (s *Store) GetWallet(ctx context.Context, ownerID, id uuid.UUID) (*wallet.Wallet, error) {
	query := `SELECT ` + selectWalletColumns + `
		FROM wallets
		WHERE id = $1 AND owner_id = $2`

	w, err := scanWallet(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, wallet.ErrNotFound
		}

		return nil, fmt.Errorf("getting wallet: %w", err)
	}

	return w, nil
}

func (s *Store) ListWallets(ctx context.Context, ownerID uuid.UUID) ([]*wallet.Wallet, error) {
	query := `SELECT ` + selectWalletColumns + `
		FROM wallets
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*wallet.Wallet

	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning wallet: %w", err)
		}

		wallets = append(wallets, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating wallet rows: %w", err)
	}

	return wallets, nil
}

func (s *Store) UpdateWallet(ctx context.Context, w *wallet.Wallet) error {
	query := `
		UPDATE wallets
		SET name = $1, image_url = $2
		WHERE id = $3 AND owner_id = $4
	`

	res, err := s.db.ExecContext(ctx, query, w.Name, w.ImageURL, w.ID, w.OwnerID)
	if err != nil {
		return fmt.Errorf("updating wallet: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return wallet.ErrNotFound
	}

	return nil
}

func (s *Store) ApplyAdjustment(ctx context.Context, id uuid.UUID, balanceDelta, incomeDelta, expenseDelta int64) (*wallet.Wallet, error) {
	return Adjust(ctx, s.db, id, balanceDelta, incomeDelta, expenseDelta)
}

func (s *Store) DeleteWallet(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM wallets WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting wallet: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return wallet.ErrNotFound
	}

	return nil
}

// DeleteTransactionBatch removes up to limit transactions referencing the
// wallet. ctid keeps the delete bounded without needing an ORDER BY.
func (s *Store) DeleteTransactionBatch(ctx context.Context, walletID uuid.UUID, limit int) (int, error) {
	query := `
		DELETE FROM transactions
		WHERE ctid IN (
			SELECT ctid FROM transactions WHERE wallet_id = $1 LIMIT $2
		)
	`

	res, err := s.db.ExecContext(ctx, query, walletID, limit)
	if err != nil {
		return 0, fmt.Errorf("deleting transaction batch: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted transactions: %w", err)
	}

	return int(n), nil
}

// Lock reads a wallet FOR UPDATE so concurrent reconciliations against the
// same wallet serialize instead of racing read-then-write.
func Lock(ctx context.Context, q Querier, id uuid.UUID) (*wallet.Wallet, error) {
	query := `SELECT ` + selectWalletColumns + `
		FROM wallets
		WHERE id = $1
		FOR UPDATE`

	w, err := scanWallet(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, wallet.ErrNotFound
		}

		return nil, fmt.Errorf("locking wallet: %w", err)
	}

	return w, nil
}

// Adjust applies balance and total deltas in one statement. Every balance
// change in the system goes through here.
func Adjust(ctx context.Context, q Querier, id uuid.UUID, balanceDelta, incomeDelta, expenseDelta int64) (*wallet.Wallet, error) {
	query := `
		UPDATE wallets
		SET balance = balance + $1,
		    total_income = total_income + $2,
		    total_expenses = total_expenses + $3
		WHERE id = $4
		RETURNING ` + selectWalletColumns

	w, err := scanWallet(q.QueryRowContext(ctx, query, balanceDelta, incomeDelta, expenseDelta, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, wallet.ErrNotFound
		}

		return nil, fmt.Errorf("adjusting wallet: %w", err)
	}

	return w, nil
}
