package category

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmcosta/billfold/internal/auth"
	"github.com/dmcosta/billfold/internal/category"
	"github.com/dmcosta/billfold/internal/http/respond"
)

type Handler struct {
	svc *category.Service
}

func NewHandler(svc *category.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/suggest", h.suggest)
}

type suggestResponse struct {
	Category string `json:"category"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	description := r.URL.Query().Get("description")
	if description == "" {
		http.Error(w, "description is required", http.StatusBadRequest)
		return
	}

	suggested, err := h.svc.Suggest(r.Context(), ownerID, description)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, suggestResponse{Category: suggested})
}
