package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmcosta/billfold/internal/auth"
	categoryHandler "github.com/dmcosta/billfold/internal/http/category"
	eventsHandler "github.com/dmcosta/billfold/internal/http/events"
	exportHandler "github.com/dmcosta/billfold/internal/http/export"
	statsHandler "github.com/dmcosta/billfold/internal/http/stats"
	transactionHandler "github.com/dmcosta/billfold/internal/http/transaction"
	userHandler "github.com/dmcosta/billfold/internal/http/user"
	walletHandler "github.com/dmcosta/billfold/internal/http/wallet"
)

func New(
	tokens *auth.Tokens,
	usersV1 *userHandler.Handler,
	walletsV1 *walletHandler.Handler,
	transactionsV1 *transactionHandler.Handler,
	statsV1 *statsHandler.Handler,
	categoriesV1 *categoryHandler.Handler,
	exportV1 *exportHandler.Handler,
	eventsV1 *eventsHandler.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			usersV1.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(tokens.Middleware)

			r.Route("/wallets", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				walletsV1.Routes(r)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				transactionsV1.Routes(r)
			})

			r.Route("/statistics", statsV1.Routes)

			r.Route("/categories", categoriesV1.Routes)

			r.Route("/export", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				exportV1.Routes(r)
			})

			r.Route("/events", eventsV1.Routes)
		})
	})

	return router
}
