package export

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmcosta/billfold/internal/transaction"
)

// Item is a single exported transaction and, when it carried a receipt,
// the local path the receipt was downloaded to.
type Item struct {
	Transaction *transaction.Transaction
	FilePath    string
}

// Service downloads a user's transactions and receipt images for archival.
type Service struct {
	transactions *transaction.Service
	client       *http.Client
}

func NewService(txService *transaction.Service) *Service {
	return &Service{
		transactions: txService,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

// Export lists the owner's transactions matching the filter and downloads
// every attached receipt into outputDir.
func (s *Service) Export(ctx context.Context, ownerID uuid.UUID, filter transaction.ListFilter, outputDir string) ([]Item, error) {
	txs, err := s.transactions.List(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(txs))

	for _, t := range txs {
		item := Item{Transaction: t}

		if t.ReceiptURL != nil && *t.ReceiptURL != "" {
			path, err := s.downloadReceipt(ctx, t, outputDir)
			if err != nil {
				return nil, fmt.Errorf("downloading receipt for transaction %s: %w", t.ID, err)
			}

			item.FilePath = path
		}

		items = append(items, item)
	}

	return items, nil
}

func (s *Service) downloadReceipt(ctx context.Context, t *transaction.Transaction, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, *t.ReceiptURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for url %s", resp.StatusCode, *t.ReceiptURL)
	}

	path := filepath.Join(dir, receiptFilename(resp, t))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

func receiptFilename(resp *http.Response, t *transaction.Transaction) string {
	ext := ".jpg"

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			ext = exts[0]
		}
	}

	safeDesc := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, t.Description)

	if safeDesc == "" {
		safeDesc = t.ID.String()
	}

	return fmt.Sprintf("%s_%s%s", t.Date.Format("20060102"), safeDesc, ext)
}
