package transaction

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmcosta/billfold/internal/auth"
	"github.com/dmcosta/billfold/internal/category"
	"github.com/dmcosta/billfold/internal/http/respond"
	"github.com/dmcosta/billfold/internal/money"
	"github.com/dmcosta/billfold/internal/transaction"
)

type Handler struct {
	svc        *transaction.Service
	categories *category.Service
}

func NewHandler(svc *transaction.Service, categories *category.Service) *Handler {
	return &Handler{svc: svc, categories: categories}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createTransactionRequest struct {
	Type        transaction.Type `json:"type"`
	WalletID    uuid.UUID        `json:"wallet_id"`
	Amount      string           `json:"amount"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Date        time.Time        `json:"date"`
	Receipt     []byte           `json:"receipt,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	amount, err := money.ParseCents(req.Amount)
	if err != nil {
		respond.Error(w, err)
		return
	}

	t, err := h.svc.Submit(r.Context(), ownerID, transaction.SubmitParams{
		Type:        req.Type,
		WalletID:    req.WalletID,
		Amount:      amount,
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
		Receipt:     req.Receipt,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}

	// Remember the description->category pairing for future suggestions.
	if t.Type == transaction.TypeExpense && t.Description != "" {
		if err := h.categories.Learn(r.Context(), ownerID, t.Description, t.Category); err != nil {
			slog.Error("failed to learn category mapping", "error", err)
		}
	}

	respond.JSON(w, http.StatusCreated, toResponse(t))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	filter := transaction.ListFilter{}

	if s := r.URL.Query().Get("wallet_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.WalletID = &id
		}
	}

	if s := r.URL.Query().Get("type"); s != "" {
		t := transaction.Type(s)
		filter.Type = &t
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.StartDate = &t
		}
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.EndDate = &t
		}
	}

	txs, err := h.svc.List(r.Context(), ownerID, filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	t, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(t))
}

type updateTransactionRequest struct {
	Type        *transaction.Type `json:"type,omitempty"`
	WalletID    *uuid.UUID        `json:"wallet_id,omitempty"`
	Amount      *string           `json:"amount,omitempty"`
	Description *string           `json:"description,omitempty"`
	Category    *string           `json:"category,omitempty"`
	Date        *time.Time        `json:"date,omitempty"`
	Receipt     []byte            `json:"receipt,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	existing, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	params := transaction.SubmitParams{
		ID:          &existing.ID,
		Type:        existing.Type,
		WalletID:    existing.WalletID,
		Amount:      existing.Amount,
		Description: existing.Description,
		Category:    existing.Category,
		Date:        existing.Date,
		Receipt:     req.Receipt,
	}

	if req.Type != nil {
		params.Type = *req.Type
	}

	if req.WalletID != nil {
		params.WalletID = *req.WalletID
	}

	if req.Amount != nil {
		amount, err := money.ParseCents(*req.Amount)
		if err != nil {
			respond.Error(w, err)
			return
		}

		params.Amount = amount
	}

	if req.Description != nil {
		params.Description = *req.Description
	}

	if req.Category != nil {
		params.Category = *req.Category
	}

	if req.Date != nil {
		params.Date = *req.Date
	}

	t, err := h.svc.Submit(r.Context(), ownerID, params)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(t))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), ownerID, id); err != nil {
		respond.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
