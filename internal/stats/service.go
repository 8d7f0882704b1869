// Package stats buckets a user's transactions into the income/expense bar
// charts shown on the statistics screen.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmcosta/billfold/internal/transaction"
)

type Service struct {
	transactions *transaction.Service
	now          func() time.Time
}

func NewService(txService *transaction.Service) *Service {
	return &Service{transactions: txService, now: time.Now}
}

// Bucket is one chart group: total income and expenses for its period.
type Bucket struct {
	Label   string
	Income  int64
	Expense int64
}

// Report pairs the chart buckets with the transactions they were built
// from, newest first.
type Report struct {
	Buckets      []Bucket
	Transactions []*transaction.Transaction
}

// Weekly reports the last seven days, one bucket per day.
func (s *Service) Weekly(ctx context.Context, ownerID uuid.UUID) (*Report, error) {
	now := s.now()
	start := truncateDay(now).AddDate(0, 0, -6)

	txs, err := s.listSince(ctx, ownerID, start)
	if err != nil {
		return nil, err
	}

	buckets := make([]Bucket, 7)
	for i := range buckets {
		day := start.AddDate(0, 0, i)
		buckets[i].Label = day.Weekday().String()[:3]
	}

	for _, t := range txs {
		i := int(truncateDay(t.Date).Sub(start).Hours() / 24)
		if i < 0 || i >= len(buckets) {
			continue
		}

		add(&buckets[i], t)
	}

	return &Report{Buckets: buckets, Transactions: txs}, nil
}

// Monthly reports the last twelve months, one bucket per month.
func (s *Service) Monthly(ctx context.Context, ownerID uuid.UUID) (*Report, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -11, 0)

	txs, err := s.listSince(ctx, ownerID, start)
	if err != nil {
		return nil, err
	}

	buckets := make([]Bucket, 12)
	for i := range buckets {
		m := start.AddDate(0, i, 0)
		buckets[i].Label = m.Month().String()[:3]
	}

	for _, t := range txs {
		i := monthsBetween(start, t.Date)
		if i < 0 || i >= len(buckets) {
			continue
		}

		add(&buckets[i], t)
	}

	return &Report{Buckets: buckets, Transactions: txs}, nil
}

// Yearly reports one bucket per calendar year, from the user's first
// transaction through the current year.
func (s *Service) Yearly(ctx context.Context, ownerID uuid.UUID) (*Report, error) {
	txs, err := s.transactions.List(ctx, ownerID, transaction.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	if len(txs) == 0 {
		return &Report{}, nil
	}

	firstYear := s.now().Year()

	for _, t := range txs {
		if y := t.Date.Year(); y < firstYear {
			firstYear = y
		}
	}

	buckets := make([]Bucket, s.now().Year()-firstYear+1)
	for i := range buckets {
		buckets[i].Label = fmt.Sprintf("%d", firstYear+i)
	}

	for _, t := range txs {
		i := t.Date.Year() - firstYear
		if i < 0 || i >= len(buckets) {
			continue
		}

		add(&buckets[i], t)
	}

	return &Report{Buckets: buckets, Transactions: txs}, nil
}

func (s *Service) listSince(ctx context.Context, ownerID uuid.UUID, start time.Time) ([]*transaction.Transaction, error) {
	txs, err := s.transactions.List(ctx, ownerID, transaction.ListFilter{StartDate: &start})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return txs, nil
}

func add(b *Bucket, t *transaction.Transaction) {
	switch t.Type {
	case transaction.TypeIncome:
		b.Income += t.Amount
	case transaction.TypeExpense:
		b.Expense += t.Amount
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func monthsBetween(start, t time.Time) int {
	return (t.Year()-start.Year())*12 + int(t.Month()) - int(start.Month())
}
