package transaction

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmcosta/billfold/internal/notify"
	"github.com/dmcosta/billfold/internal/wallet"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	GetTransaction(ctx context.Context, ownerID, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Transaction, error)

	// Begin opens the transactional unit every reconciliation runs in.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one atomic reconciliation unit. LockWallet takes a row lock, so two
// concurrent reconciliations against the same wallet serialize instead of
// losing an update; Rollback after a failure leaves the ledger untouched.
type Tx interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	LockWallet(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error)
	AdjustWallet(ctx context.Context, id uuid.UUID, balanceDelta, incomeDelta, expenseDelta int64) (*wallet.Wallet, error)
	InsertTransaction(ctx context.Context, t *Transaction) error
	UpdateTransaction(ctx context.Context, t *Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	Commit() error
	Rollback() error
}

// Uploader stores a receipt image externally and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, folder string) (string, error)
}

type Service struct {
	repo     Repository
	uploader Uploader
	events   *notify.Broker
}

func NewService(repo Repository, uploader Uploader, events *notify.Broker) *Service {
	return &Service{repo: repo, uploader: uploader, events: events}
}

type SubmitParams struct {
	// ID absent means create, present means update.
	ID          *uuid.UUID
	Type        Type
	WalletID    uuid.UUID
	Amount      int64
	Description string
	Category    string
	Date        time.Time
	Receipt     []byte
}

func (p *SubmitParams) validate() error {
	if p.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	if p.WalletID == uuid.Nil {
		return fmt.Errorf("%w: wallet id is required", ErrInvalidInput)
	}

	if !p.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, p.Type)
	}

	if p.Type == TypeExpense && p.Category == "" {
		return fmt.Errorf("%w: category is required for expenses", ErrInvalidInput)
	}

	return nil
}

// deltas returns the wallet adjustment for applying a transaction of the
// given type and amount: the balance moves by the signed contribution and
// the matching lifetime total grows by the amount.
func deltas(typ Type, amount int64) (balance, income, expense int64) {
	switch typ {
	case TypeIncome:
		return amount, amount, 0
	default:
		return -amount, 0, amount
	}
}

// revertDeltas returns the adjustment that undoes t's contribution.
func revertDeltas(t *Transaction) (balance, income, expense int64) {
	b, i, e := deltas(t.Type, t.Amount)
	return -b, -i, -e
}

// Submit creates or updates a transaction and reconciles the affected
// wallet(s) in the same database transaction. Validation and the receipt
// upload happen before any mutation, so a failure at either stage leaves
// the ledger untouched.
func (s *Service) Submit(ctx context.Context, ownerID uuid.UUID, p SubmitParams) (*Transaction, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var receiptURL *string

	if len(p.Receipt) > 0 {
		url, err := s.uploader.Upload(ctx, p.Receipt, "transactions")
		if err != nil {
			return nil, fmt.Errorf("uploading receipt: %w", err)
		}

		receiptURL = &url
	}

	if p.ID != nil {
		return s.update(ctx, ownerID, p, receiptURL)
	}

	return s.create(ctx, ownerID, p, receiptURL)
}

func (s *Service) create(ctx context.Context, ownerID uuid.UUID, p SubmitParams, receiptURL *string) (*Transaction, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning reconciliation: %w", err)
	}
	defer tx.Rollback()

	w, err := tx.LockWallet(ctx, p.WalletID)
	if err != nil {
		return nil, err
	}

	if w.OwnerID != ownerID {
		return nil, wallet.ErrNotFound
	}

	if p.Type == TypeExpense && w.Balance-p.Amount < 0 {
		return nil, &InsufficientFundsError{
			WalletID:  w.ID,
			Available: w.Balance,
			Requested: p.Amount,
		}
	}

	balance, income, expense := deltas(p.Type, p.Amount)
	if _, err := tx.AdjustWallet(ctx, p.WalletID, balance, income, expense); err != nil {
		return nil, err
	}

	t := &Transaction{
		OwnerID:     ownerID,
		WalletID:    p.WalletID,
		Type:        p.Type,
		Amount:      p.Amount,
		Description: p.Description,
		Category:    p.Category,
		Date:        p.Date,
		ReceiptURL:  receiptURL,
	}

	if err := tx.InsertTransaction(ctx, t); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reconciliation: %w", err)
	}

	s.publish(ownerID, notify.KindCreated, t.ID, p.WalletID)

	return t, nil
}

func (s *Service) update(ctx context.Context, ownerID uuid.UUID, p SubmitParams, receiptURL *string) (*Transaction, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning reconciliation: %w", err)
	}
	defer tx.Rollback()

	old, err := tx.GetTransaction(ctx, *p.ID)
	if err != nil {
		return nil, err
	}

	if old.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	origWalletID := old.WalletID

	// A pure field edit (description, category, date, receipt) leaves the
	// ledger alone.
	if old.Type != p.Type || old.Amount != p.Amount || old.WalletID != p.WalletID {
		if err := s.reconcileMove(ctx, tx, ownerID, old, p); err != nil {
			return nil, err
		}
	}

	old.Type = p.Type
	old.Amount = p.Amount
	old.WalletID = p.WalletID
	old.Description = p.Description
	old.Category = p.Category
	old.Date = p.Date

	if receiptURL != nil {
		old.ReceiptURL = receiptURL
	}

	if err := tx.UpdateTransaction(ctx, old); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reconciliation: %w", err)
	}

	// A cross-wallet move changed both balances, so both wallets notify.
	if origWalletID != p.WalletID {
		s.publish(ownerID, notify.KindUpdated, old.ID, origWalletID, p.WalletID)
	} else {
		s.publish(ownerID, notify.KindUpdated, old.ID, p.WalletID)
	}

	return old, nil
}

// reconcileMove reverts old's contribution from its wallet and applies the
// new (type, amount, wallet) triple. The revert is written before the new
// contribution so the apply always sees post-revert state, which matters
// when both land on the same wallet. All sufficiency checks precede any
// write.
func (s *Service) reconcileMove(ctx context.Context, tx Tx, ownerID uuid.UUID, old *Transaction, p SubmitParams) error {
	sameWallet := old.WalletID == p.WalletID

	orig, target, err := lockWalletPair(ctx, tx, old.WalletID, p.WalletID)
	if err != nil {
		return err
	}

	if target.OwnerID != ownerID {
		return wallet.ErrNotFound
	}

	revBalance, revIncome, revExpense := revertDeltas(old)

	if p.Type == TypeExpense {
		if sameWallet {
			if orig.Balance+revBalance < p.Amount {
				return &InsufficientFundsError{
					WalletID:  orig.ID,
					Available: orig.Balance + revBalance,
					Requested: p.Amount,
				}
			}
		} else if target.Balance < p.Amount {
			return &InsufficientFundsError{
				WalletID:  target.ID,
				Available: target.Balance,
				Requested: p.Amount,
			}
		}
	}

	if _, err := tx.AdjustWallet(ctx, old.WalletID, revBalance, revIncome, revExpense); err != nil {
		return err
	}

	balance, income, expense := deltas(p.Type, p.Amount)
	if _, err := tx.AdjustWallet(ctx, p.WalletID, balance, income, expense); err != nil {
		return err
	}

	return nil
}

// lockWalletPair locks the original and target wallets in a stable order so
// two concurrent moves between the same pair cannot deadlock.
func lockWalletPair(ctx context.Context, tx Tx, origID, targetID uuid.UUID) (orig, target *wallet.Wallet, err error) {
	if origID == targetID {
		orig, err = tx.LockWallet(ctx, origID)
		return orig, orig, err
	}

	first, second := origID, targetID
	if bytes.Compare(targetID[:], origID[:]) < 0 {
		first, second = targetID, origID
	}

	a, err := tx.LockWallet(ctx, first)
	if err != nil {
		return nil, nil, err
	}

	b, err := tx.LockWallet(ctx, second)
	if err != nil {
		return nil, nil, err
	}

	if first == origID {
		return a, b, nil
	}

	return b, a, nil
}

// Delete reverts the transaction's contribution from its wallet and removes
// the record, atomically. Deleting an income that the wallet has already
// spent is refused so the balance never goes negative.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning reconciliation: %w", err)
	}
	defer tx.Rollback()

	t, err := tx.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	if t.OwnerID != ownerID {
		return ErrNotFound
	}

	w, err := tx.LockWallet(ctx, t.WalletID)
	if err != nil {
		return err
	}

	revBalance, revIncome, revExpense := revertDeltas(t)

	if t.Type == TypeIncome && w.Balance+revBalance < 0 {
		return fmt.Errorf("%w: wallet %s has already spent this income", ErrCannotDelete, w.ID)
	}

	if _, err := tx.AdjustWallet(ctx, t.WalletID, revBalance, revIncome, revExpense); err != nil {
		return err
	}

	if err := tx.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reconciliation: %w", err)
	}

	s.publish(ownerID, notify.KindDeleted, id, t.WalletID)

	return nil
}

type ListFilter struct {
	WalletID  *uuid.UUID
	Type      *Type
	StartDate *time.Time
	EndDate   *time.Time
}

func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, ownerID, filter)
}

func (s *Service) publish(ownerID uuid.UUID, kind notify.Kind, txID uuid.UUID, walletIDs ...uuid.UUID) {
	s.events.Publish(notify.Event{
		Topic: "transactions/" + ownerID.String(),
		Kind:  kind,
		ID:    txID,
	})

	for _, id := range walletIDs {
		s.events.Publish(notify.Event{
			Topic: "wallets/" + ownerID.String(),
			Kind:  notify.KindUpdated,
			ID:    id,
		})
	}
}
