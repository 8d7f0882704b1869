// Package respond writes the API's uniform response envelope: success
// responses are the payload itself, failures are {"success":false,"msg"}
// with the message meant to be shown to the user as-is.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmcosta/billfold/internal/money"
	"github.com/dmcosta/billfold/internal/transaction"
	"github.com/dmcosta/billfold/internal/upload"
	"github.com/dmcosta/billfold/internal/user"
	"github.com/dmcosta/billfold/internal/wallet"
)

type failure struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error maps domain errors onto HTTP statuses and the failure envelope.
// Unknown errors surface as an opaque store failure.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "the service is temporarily unavailable"

	switch {
	case errors.Is(err, transaction.ErrInvalidInput), errors.Is(err, money.ErrInvalidAmount):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, wallet.ErrNotFound), errors.Is(err, transaction.ErrNotFound), errors.Is(err, user.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, transaction.ErrInsufficientFunds):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, transaction.ErrCannotDelete):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, user.ErrEmailTaken):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, user.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, upload.ErrUploadFailed):
		status, msg = http.StatusBadGateway, "failed to upload attachment"
	default:
		slog.Error("request failed", "error", err)
	}

	JSON(w, status, failure{Success: false, Msg: msg})
}
