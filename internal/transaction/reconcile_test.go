package transaction_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmcosta/billfold/internal/notify"
	"github.com/dmcosta/billfold/internal/transaction"
	"github.com/dmcosta/billfold/internal/wallet"
)

// memStore is an in-memory Repository whose transactional units snapshot
// state at Begin and only publish it at Commit, mirroring the rollback
// behavior of the real store.
type memStore struct {
	wallets map[uuid.UUID]*wallet.Wallet
	txs     map[uuid.UUID]*transaction.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		wallets: make(map[uuid.UUID]*wallet.Wallet),
		txs:     make(map[uuid.UUID]*transaction.Transaction),
	}
}

func (s *memStore) addWallet(ownerID uuid.UUID) uuid.UUID {
	id := uuid.New()
	s.wallets[id] = &wallet.Wallet{
		ID: id, OwnerID: ownerID, Name: "wallet",
		CreatedAt: time.Now(),
	}

	return id
}

func (s *memStore) Begin(_ context.Context) (transaction.Tx, error) {
	snap := &memTx{
		store:   s,
		wallets: make(map[uuid.UUID]*wallet.Wallet, len(s.wallets)),
		txs:     make(map[uuid.UUID]*transaction.Transaction, len(s.txs)),
	}

	for id, w := range s.wallets {
		cp := *w
		snap.wallets[id] = &cp
	}

	for id, t := range s.txs {
		cp := *t
		snap.txs[id] = &cp
	}

	return snap, nil
}

func (s *memStore) GetTransaction(_ context.Context, ownerID, id uuid.UUID) (*transaction.Transaction, error) {
	t, ok := s.txs[id]
	if !ok || t.OwnerID != ownerID {
		return nil, transaction.ErrNotFound
	}

	cp := *t

	return &cp, nil
}

func (s *memStore) ListTransactions(_ context.Context, ownerID uuid.UUID, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction

	for _, t := range s.txs {
		if t.OwnerID != ownerID {
			continue
		}

		if filter.WalletID != nil && t.WalletID != *filter.WalletID {
			continue
		}

		if filter.StartDate != nil && t.Date.Before(*filter.StartDate) {
			continue
		}

		if filter.EndDate != nil && t.Date.After(*filter.EndDate) {
			continue
		}

		cp := *t
		out = append(out, &cp)
	}

	return out, nil
}

type memTx struct {
	store     *memStore
	wallets   map[uuid.UUID]*wallet.Wallet
	txs       map[uuid.UUID]*transaction.Transaction
	committed bool
}

func (m *memTx) GetTransaction(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	t, ok := m.txs[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}

	cp := *t

	return &cp, nil
}

func (m *memTx) LockWallet(_ context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	w, ok := m.wallets[id]
	if !ok {
		return nil, wallet.ErrNotFound
	}

	cp := *w

	return &cp, nil
}

func (m *memTx) AdjustWallet(_ context.Context, id uuid.UUID, balanceDelta, incomeDelta, expenseDelta int64) (*wallet.Wallet, error) {
	w, ok := m.wallets[id]
	if !ok {
		return nil, wallet.ErrNotFound
	}

	w.Balance += balanceDelta
	w.TotalIncome += incomeDelta
	w.TotalExpenses += expenseDelta

	cp := *w

	return &cp, nil
}

func (m *memTx) InsertTransaction(_ context.Context, t *transaction.Transaction) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()

	cp := *t
	m.txs[t.ID] = &cp

	return nil
}

func (m *memTx) UpdateTransaction(_ context.Context, t *transaction.Transaction) error {
	if _, ok := m.txs[t.ID]; !ok {
		return transaction.ErrNotFound
	}

	now := time.Now()
	t.UpdatedAt = &now

	cp := *t
	m.txs[t.ID] = &cp

	return nil
}

func (m *memTx) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	delete(m.txs, id)
	return nil
}

func (m *memTx) Commit() error {
	m.store.wallets = m.wallets
	m.store.txs = m.txs
	m.committed = true

	return nil
}

func (m *memTx) Rollback() error { return nil }

// assertInvariant checks that balance == totalIncome - totalExpenses and
// that both match the live transactions referencing the wallet.
func assertInvariant(t *testing.T, store *memStore, walletID uuid.UUID) {
	t.Helper()

	w := store.wallets[walletID]
	require.NotNil(t, w)
	assert.Equal(t, w.TotalIncome-w.TotalExpenses, w.Balance, "balance must equal totalIncome - totalExpenses")

	var sum, income, expenses int64

	for _, tr := range store.txs {
		if tr.WalletID != walletID {
			continue
		}

		sum += tr.SignedAmount()

		if tr.Type == transaction.TypeIncome {
			income += tr.Amount
		} else {
			expenses += tr.Amount
		}
	}

	assert.Equal(t, sum, w.Balance, "balance must equal the sum of signed contributions")
	assert.Equal(t, income, w.TotalIncome)
	assert.Equal(t, expenses, w.TotalExpenses)
}

func newTestService(store *memStore) *transaction.Service {
	return transaction.NewService(store, nil, nil)
}

// seedIncome funds a wallet through the service so the whole balance
// history is made of live transactions.
func seedIncome(t *testing.T, svc *transaction.Service, ownerID, walletID uuid.UUID, amount int64) {
	t.Helper()

	_, err := svc.Submit(context.Background(), ownerID, transaction.SubmitParams{
		Type:     transaction.TypeIncome,
		WalletID: walletID,
		Amount:   amount,
		Date:     testDate.AddDate(0, 0, -30),
	})
	require.NoError(t, err)
}

func TestReconciliation_CreateSequence(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := newMemStore()
	walletID := store.addWallet(ownerID)
	svc := newTestService(store)

	// Income 200 on an empty wallet.
	_, err := svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeIncome, WalletID: walletID, Amount: 20000, Date: testDate,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), store.wallets[walletID].Balance)
	assert.Equal(t, int64(20000), store.wallets[walletID].TotalIncome)
	assertInvariant(t, store, walletID)

	// Expense 50.
	_, err = svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeExpense, WalletID: walletID, Amount: 5000, Category: "food", Date: testDate,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15000), store.wallets[walletID].Balance)
	assert.Equal(t, int64(5000), store.wallets[walletID].TotalExpenses)
	assertInvariant(t, store, walletID)

	// Expense 200 exceeds the remaining 150 and must change nothing.
	_, err = svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeExpense, WalletID: walletID, Amount: 20000, Category: "rent", Date: testDate,
	})
	assert.ErrorIs(t, err, transaction.ErrInsufficientFunds)
	assert.Equal(t, int64(15000), store.wallets[walletID].Balance)
	assert.Equal(t, int64(5000), store.wallets[walletID].TotalExpenses)
	assertInvariant(t, store, walletID)
}

func TestReconciliation_CreateThenDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := newMemStore()
	walletID := store.addWallet(ownerID)
	svc := newTestService(store)
	seedIncome(t, svc, ownerID, walletID, 10000)

	created, err := svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeExpense, WalletID: walletID, Amount: 2500, Category: "transport", Date: testDate,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7500), store.wallets[walletID].Balance)

	require.NoError(t, svc.Delete(ctx, ownerID, created.ID))

	w := store.wallets[walletID]
	assert.Equal(t, int64(10000), w.Balance)
	assert.Equal(t, int64(10000), w.TotalIncome)
	assert.Equal(t, int64(0), w.TotalExpenses)
	assertInvariant(t, store, walletID)
}

func TestReconciliation_PureFieldEditLeavesWalletAlone(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := newMemStore()
	walletID := store.addWallet(ownerID)
	svc := newTestService(store)
	seedIncome(t, svc, ownerID, walletID, 10000)

	created, err := svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeExpense, WalletID: walletID, Amount: 3000, Category: "food", Date: testDate,
	})
	require.NoError(t, err)

	before := *store.wallets[walletID]

	updated, err := svc.Submit(ctx, ownerID, transaction.SubmitParams{
		ID:          &created.ID,
		Type:        transaction.TypeExpense,
		WalletID:    walletID,
		Amount:      3000,
		Description: "weekly shop",
		Category:    "groceries",
		Date:        testDate.AddDate(0, 0, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, "weekly shop", updated.Description)
	assert.Equal(t, before, *store.wallets[walletID])
	assertInvariant(t, store, walletID)
}

func TestReconciliation_AmountChangeSameWallet(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := newMemStore()
	walletID := store.addWallet(ownerID)
	svc := newTestService(store)
	seedIncome(t, svc, ownerID, walletID, 10000)

	created, err := svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeExpense, WalletID: walletID, Amount: 3000, Category: "food", Date: testDate,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), store.wallets[walletID].Balance)

	// 30 -> 60: the revert restores 100, then 60 is applied.
	_, err = svc.Submit(ctx, ownerID, transaction.SubmitParams{
		ID:   &created.ID,
		Type: transaction.TypeExpense, WalletID: walletID, Amount: 6000, Category: "food", Date: testDate,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), store.wallets[walletID].Balance)
	assert.Equal(t, int64(6000), store.wallets[walletID].TotalExpenses)
	assertInvariant(t, store, walletID)

	// 60 -> 120 exceeds the post-revert balance of 100.
	_, err = svc.Submit(ctx, ownerID, transaction.SubmitParams{
		ID:   &created.ID,
		Type: transaction.TypeExpense, WalletID: walletID, Amount: 12000, Category: "food", Date: testDate,
	})
	assert.ErrorIs(t, err, transaction.ErrInsufficientFunds)
	assert.Equal(t, int64(4000), store.wallets[walletID].Balance)
	assertInvariant(t, store, walletID)
}

func TestReconciliation_TypeChangeSameWallet(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := newMemStore()
	walletID := store.addWallet(ownerID)
	svc := newTestService(store)
	seedIncome(t, svc, ownerID, walletID, 10000)

	created, err := svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeIncome, WalletID: walletID, Amount: 4000, Date: testDate,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(14000), store.wallets[walletID].Balance)

	// Income 40 becomes expense 40: revert to 100, then down to 60.
	_, err = svc.Submit(ctx, ownerID, transaction.SubmitParams{
		ID:   &created.ID,
		Type: transaction.TypeExpense, WalletID: walletID, Amount: 4000, Category: "refund", Date: testDate,
	})
	require.NoError(t, err)

	w := store.wallets[walletID]
	assert.Equal(t, int64(6000), w.Balance)
	assert.Equal(t, int64(10000), w.TotalIncome)
	assert.Equal(t, int64(4000), w.TotalExpenses)
	assertInvariant(t, store, walletID)
}

func TestReconciliation_CrossWalletMove(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := newMemStore()
	walletA := store.addWallet(ownerID)
	walletB := store.addWallet(ownerID)
	svc := newTestService(store)
	seedIncome(t, svc, ownerID, walletA, 10000)
	seedIncome(t, svc, ownerID, walletB, 5000)

	created, err := svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeExpense, WalletID: walletA, Amount: 3000, Category: "food", Date: testDate,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), store.wallets[walletA].Balance)

	// Move the expense to wallet B: A returns to 100, B drops to 20.
	_, err = svc.Submit(ctx, ownerID, transaction.SubmitParams{
		ID:   &created.ID,
		Type: transaction.TypeExpense, WalletID: walletB, Amount: 3000, Category: "food", Date: testDate,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10000), store.wallets[walletA].Balance)
	assert.Equal(t, int64(0), store.wallets[walletA].TotalExpenses)
	assert.Equal(t, int64(2000), store.wallets[walletB].Balance)
	assert.Equal(t, int64(3000), store.wallets[walletB].TotalExpenses)
	assertInvariant(t, store, walletA)
	assertInvariant(t, store, walletB)
}

func TestReconciliation_CrossWalletMovePublishesBothWallets(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := newMemStore()
	walletA := store.addWallet(ownerID)
	walletB := store.addWallet(ownerID)

	broker := notify.NewBroker()
	svc := transaction.NewService(store, nil, broker)
	seedIncome(t, svc, ownerID, walletA, 10000)
	seedIncome(t, svc, ownerID, walletB, 5000)

	created, err := svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeExpense, WalletID: walletA, Amount: 3000, Category: "food", Date: testDate,
	})
	require.NoError(t, err)

	events, cancel := broker.Subscribe("wallets/" + ownerID.String())
	defer cancel()

	_, err = svc.Submit(ctx, ownerID, transaction.SubmitParams{
		ID:   &created.ID,
		Type: transaction.TypeExpense, WalletID: walletB, Amount: 3000, Category: "food", Date: testDate,
	})
	require.NoError(t, err)

	notified := make(map[uuid.UUID]bool)

	for done := false; !done; {
		select {
		case ev := <-events:
			notified[ev.ID] = true
		default:
			done = true
		}
	}

	assert.True(t, notified[walletA], "source wallet subscribers must hear about the move")
	assert.True(t, notified[walletB], "target wallet subscribers must hear about the move")
}

func TestReconciliation_CrossWalletMoveInsufficientTarget(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := newMemStore()
	walletA := store.addWallet(ownerID)
	walletB := store.addWallet(ownerID)
	svc := newTestService(store)
	seedIncome(t, svc, ownerID, walletA, 10000)
	seedIncome(t, svc, ownerID, walletB, 1000)

	created, err := svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeExpense, WalletID: walletA, Amount: 3000, Category: "food", Date: testDate,
	})
	require.NoError(t, err)

	// B only holds 10; the move must fail with neither wallet touched.
	_, err = svc.Submit(ctx, ownerID, transaction.SubmitParams{
		ID:   &created.ID,
		Type: transaction.TypeExpense, WalletID: walletB, Amount: 3000, Category: "food", Date: testDate,
	})
	assert.ErrorIs(t, err, transaction.ErrInsufficientFunds)

	assert.Equal(t, int64(7000), store.wallets[walletA].Balance)
	assert.Equal(t, int64(1000), store.wallets[walletB].Balance)
	assertInvariant(t, store, walletA)
	assertInvariant(t, store, walletB)
}

func TestReconciliation_DeleteSpentIncomeRefused(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	store := newMemStore()
	walletID := store.addWallet(ownerID)
	svc := newTestService(store)

	income, err := svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeIncome, WalletID: walletID, Amount: 20000, Date: testDate,
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeExpense, WalletID: walletID, Amount: 15000, Category: "rent", Date: testDate,
	})
	require.NoError(t, err)

	// Only 50 remains; removing the 200 income would go negative.
	err = svc.Delete(ctx, ownerID, income.ID)
	assert.ErrorIs(t, err, transaction.ErrCannotDelete)

	assert.Equal(t, int64(5000), store.wallets[walletID].Balance)
	assertInvariant(t, store, walletID)
}

func TestReconciliation_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	intruderID := uuid.New()
	store := newMemStore()
	walletID := store.addWallet(ownerID)
	svc := newTestService(store)
	seedIncome(t, svc, ownerID, walletID, 10000)

	created, err := svc.Submit(ctx, ownerID, transaction.SubmitParams{
		Type: transaction.TypeExpense, WalletID: walletID, Amount: 1000, Category: "food", Date: testDate,
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, intruderID, transaction.SubmitParams{
		Type: transaction.TypeIncome, WalletID: walletID, Amount: 1000, Date: testDate,
	})
	assert.ErrorIs(t, err, wallet.ErrNotFound)

	err = svc.Delete(ctx, intruderID, created.ID)
	assert.ErrorIs(t, err, transaction.ErrNotFound)
}
