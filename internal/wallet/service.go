package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmcosta/billfold/internal/notify"
)

// cascadeBatchSize bounds a single round of the wallet-delete cascade.
const cascadeBatchSize = 500

type Repository interface {
	CreateWallet(ctx context.Context, w *Wallet) error
	GetWallet(ctx context.Context, ownerID, id uuid.UUID) (*Wallet, error)
	ListWallets(ctx context.Context, ownerID uuid.UUID) ([]*Wallet, error)
	UpdateWallet(ctx context.Context, w *Wallet) error
	ApplyAdjustment(ctx context.Context, id uuid.UUID, balanceDelta, incomeDelta, expenseDelta int64) (*Wallet, error)
	DeleteWallet(ctx context.Context, ownerID, id uuid.UUID) error

	// DeleteTransactionBatch removes up to limit transactions referencing the
	// wallet and reports how many went. Used by the delete cascade.
	DeleteTransactionBatch(ctx context.Context, walletID uuid.UUID, limit int) (int, error)
}

// Uploader stores raw image bytes with an external provider and returns a
// stable reference URL.
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

type CreateParams struct {
	Name string
	Icon []byte
}

// Create stores a new wallet for ownerID. Balance and totals always start
// at zero; the creation timestamp is stamped by the store.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, params CreateParams) (*Wallet, error) {
	w := &Wallet{
		OwnerID: ownerID,
		Name:    params.Name,
	}

	if len(params.Icon) > 0 {
		url, err := s.uploader.Upload(ctx, params.Icon, "wallets")
		if err != nil {
			return nil, fmt.Errorf("uploading wallet icon: %w", err)
		}

		w.ImageURL = &url
	}

	if err := s.repo.CreateWallet(ctx, w); err != nil {
		return nil, err
	}

	s.publish(ownerID, notify.KindCreated, w.ID)

	return w, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*Wallet, error) {
	return s.repo.GetWallet(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]*Wallet, error) {
	return s.repo.ListWallets(ctx, ownerID)
}

type UpdateParams struct {
	Name *string
	Icon []byte
}

// Update edits a wallet's name or icon. Balance and totals are never
// touched here.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, params UpdateParams) (*Wallet, error) {
	w, err := s.repo.GetWallet(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		w.Name = *params.Name
	}

	if len(params.Icon) > 0 {
		url, err := s.uploader.Upload(ctx, params.Icon, "wallets")
		if err != nil {
			return nil, fmt.Errorf("uploading wallet icon: %w", err)
		}

		w.ImageURL = &url
	}

	if err := s.repo.UpdateWallet(ctx, w); err != nil {
		return nil, err
	}

	s.publish(ownerID, notify.KindUpdated, w.ID)

	return w, nil
}

// ApplyAdjustment is the single mutation primitive for balances: the
// reconciliation service funnels every balance change through here so the
// balance/totals invariant is enforced in one place.
func (s *Service) ApplyAdjustment(ctx context.Context, id uuid.UUID, balanceDelta, incomeDelta, expenseDelta int64) (*Wallet, error) {
	return s.repo.ApplyAdjustment(ctx, id, balanceDelta, incomeDelta, expenseDelta)
}

// Delete removes the wallet, then cascades over its transactions in bounded
// batches until none remain. No balance reconciliation happens: the wallet
// record is already gone. Batches are independent of each other, so a
// failure mid-cascade can leave orphaned transactions behind; the next
// delete attempt picks them up.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.repo.DeleteWallet(ctx, ownerID, id); err != nil {
		return err
	}

	s.publish(ownerID, notify.KindDeleted, id)

	for {
		n, err := s.repo.DeleteTransactionBatch(ctx, id, cascadeBatchSize)
		if err != nil {
			return fmt.Errorf("cascading transaction delete: %w", err)
		}

		if n == 0 {
			return nil
		}
	}
}

func (s *Service) publish(ownerID uuid.UUID, kind notify.Kind, walletID uuid.UUID) {
	s.events.Publish(notify.Event{
		Topic: "wallets/" + ownerID.String(),
		Kind:  kind,
		ID:    walletID,
	})
}
