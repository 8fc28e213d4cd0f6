// Package api exposes the import pipeline over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/SamuelPereira26/Finhouse/internal/bot"
	"github.com/SamuelPereira26/Finhouse/internal/ingest"
)

// maxUploadBytes caps multipart uploads.
const maxUploadBytes = 32 << 20

// Options configures the router.
type Options struct {
	APIToken string
	// Bot answers the chat webhook; nil disables the endpoint.
	Bot *bot.Handler
	Log zerolog.Logger
}

type handler struct {
	svc *ingest.Service
	bot *bot.Handler
	log zerolog.Logger
}

// NewRouter builds the HTTP routes over svc.
func NewRouter(svc *ingest.Service, opts Options) *chi.Mux {
	h := &handler{svc: svc, bot: opts.Bot, log: opts.Log}

	r := chi.NewRouter()
	r.Use(Recovery(opts.Log))
	r.Use(Logger(opts.Log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(TokenAuth(opts.APIToken))

		r.Post("/imports/upload", h.uploadImport)
		r.Get("/imports", h.listImports)
		r.Post("/cash", h.addCash)
		r.Post("/confirm", h.confirm)
		r.Get("/transactions", h.transactions)
		r.Get("/pending", h.pending)
		r.Get("/rules", h.listRules)
		r.Post("/rules", h.saveRule)
		r.Post("/rules/from-pattern", h.ruleFromPattern)
		r.Get("/budgets", h.listBudgets)
		r.Post("/budgets", h.saveBudget)
		r.Get("/budgets/status", h.budgetStatus)
		r.Get("/health-checks", h.healthChecks)
		r.Get("/summary", h.summary)
		r.Get("/comparison", h.comparison)
		r.Get("/accounts", h.accounts)
		r.Get("/categories", h.categories)
		if h.bot != nil {
			r.Post("/telegram/webhook", h.telegramWebhook)
		}
	})
	return r
}
