package stats

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmcosta/billfold/internal/auth"
	"github.com/dmcosta/billfold/internal/http/respond"
	"github.com/dmcosta/billfold/internal/money"
	"github.com/dmcosta/billfold/internal/stats"
	"github.com/dmcosta/billfold/internal/transaction"
)

type Handler struct {
	svc *stats.Service
}

func NewHandler(svc *stats.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/weekly", h.weekly)
	r.Get("/monthly", h.monthly)
	r.Get("/yearly", h.yearly)
}

type bucketResponse struct {
	Label   string `json:"label"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

type transactionSummary struct {
	ID          string           `json:"id"`
	Type        transaction.Type `json:"type"`
	Amount      string           `json:"amount"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Date        string           `json:"date"`
}

type reportResponse struct {
	Buckets      []bucketResponse     `json:"buckets"`
	Transactions []transactionSummary `json:"transactions"`
}

func toReportResponse(r *stats.Report) reportResponse {
	resp := reportResponse{
		Buckets:      make([]bucketResponse, len(r.Buckets)),
		Transactions: make([]transactionSummary, len(r.Transactions)),
	}

	for i, b := range r.Buckets {
		resp.Buckets[i] = bucketResponse{
			Label:   b.Label,
			Income:  money.CentsString(b.Income),
			Expense: money.CentsString(b.Expense),
		}
	}

	for i, t := range r.Transactions {
		resp.Transactions[i] = transactionSummary{
			ID:          t.ID.String(),
			Type:        t.Type,
			Amount:      money.CentsString(t.Amount),
			Description: t.Description,
			Category:    t.Category,
			Date:        t.Date.Format("2006-01-02"),
		}
	}

	return resp
}

func (h *Handler) weekly(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, h.svc.Weekly)
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, h.svc.Monthly)
}

func (h *Handler) yearly(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, h.svc.Yearly)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, ownerID uuid.UUID) (*stats.Report, error)) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	report, err := fn(r.Context(), ownerID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toReportResponse(report))
}
