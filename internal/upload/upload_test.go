package upload_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmcosta/billfold/internal/upload"
)

func TestClient_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))

			assert.Equal(t, "finance-app", r.FormValue("upload_preset"))
			assert.Equal(t, "transactions", r.FormValue("folder"))

			f, _, err := r.FormFile("file")
			require.NoError(t, err)
			defer f.Close()

			data, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, []byte("receipt-bytes"), data)

			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"secure_url":"https://img.example/v1/receipt.png"}`)
		}))
		defer srv.Close()

		client := upload.NewClient(srv.URL, "finance-app")

		url, err := client.Upload(ctx, []byte("receipt-bytes"), "transactions")
		require.NoError(t, err)
		assert.Equal(t, "https://img.example/v1/receipt.png", url)
	})

	t.Run("ProviderRejects", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "invalid preset", http.StatusBadRequest)
		}))
		defer srv.Close()

		client := upload.NewClient(srv.URL, "wrong-preset")

		_, err := client.Upload(ctx, []byte("x"), "transactions")
		assert.ErrorIs(t, err, upload.ErrUploadFailed)
	})

	t.Run("EmptyURLInResponse", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, `{}`)
		}))
		defer srv.Close()

		client := upload.NewClient(srv.URL, "finance-app")

		_, err := client.Upload(ctx, []byte("x"), "wallets")
		assert.ErrorIs(t, err, upload.ErrUploadFailed)
	})

	t.Run("ServerUnreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		client := upload.NewClient(srv.URL, "finance-app")

		_, err := client.Upload(ctx, []byte("x"), "wallets")
		assert.ErrorIs(t, err, upload.ErrUploadFailed)
	})
}
