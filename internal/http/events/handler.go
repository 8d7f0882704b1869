// Package events streams wallet and transaction change notifications to
// clients over server-sent events, replacing the mobile app's real-time
// query subscriptions.
package events

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmcosta/billfold/internal/auth"
	"github.com/dmcosta/billfold/internal/notify"
)

type Handler struct {
	broker *notify.Broker
}

func NewHandler(broker *notify.Broker) *Handler {
	return &Handler{broker: broker}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.stream)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	wallets, cancelWallets := h.broker.Subscribe("wallets/" + ownerID.String())
	defer cancelWallets()

	transactions, cancelTransactions := h.broker.Subscribe("transactions/" + ownerID.String())
	defer cancelTransactions()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		var ev notify.Event

		select {
		case <-r.Context().Done():
			return
		case ev = <-wallets:
		case ev = <-transactions:
		}

		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}
