package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/ledgerview/backend/src/utils"
	"golang.org/x/time/rate"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Auth       *AuthHandler
	CSRF       *CSRFHandler
	Bank       *BankHandler
	Statements *StatementHandler
	Onboarding *OnboardingHandler
}

type RouterOptions struct {
	AllowedOrigins []string
	// Limiter is shared by all requests; nil disables inbound rate limiting.
	Limiter *rate.Limiter
}

func NewRouter(h Handlers, opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware)
	r.Use(ProxyHeadersMiddleware)
	r.Use(CORSMiddleware(opts.AllowedOrigins))
	if opts.Limiter != nil {
		r.Use(RateLimitMiddleware(opts.Limiter))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Ledgerview backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/csrf", h.CSRF.GetCSRFToken)

		r.Group(func(r chi.Router) {
			r.Use(h.CSRF.Middleware)
			r.Post("/auth/register", h.Auth.RegisterUserHandler)
			r.Post("/auth/login", h.Auth.LoginUserHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.CSRF.Middleware)
			r.Use(h.Auth.AuthMiddleware)

			r.Get("/user/me", h.Auth.GetCurrentUserHandler)

			r.Get("/onboarding", h.Onboarding.HandleGetOnboarding)
			r.Post("/onboarding/steps/{step}", h.Onboarding.HandleSubmitStep)

			r.Get("/banks", h.Bank.HandleGetBanks)
			r.Post("/banks/refresh", h.Bank.HandleRefresh)
			r.Get("/accounts", h.Bank.HandleGetAccounts)
			r.Get("/transactions", h.Bank.HandleGetTransactions)

			r.Get("/statements/balance-sheet", h.Statements.HandleGetBalanceSheet)
			r.Get("/statements/profit-loss", h.Statements.HandleGetProfitAndLoss)
			r.Get("/statements/cash-flow", h.Statements.HandleGetCashFlow)
			r.Get("/statements/periods", h.Statements.HandleGetPeriods)
			r.Get("/statements/{kind}/pdf", h.Statements.HandleExportPDF)
			r.Get("/exports", h.Statements.HandleListExports)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			utils.SendJSONError(w, "Not found", http.StatusNotFound)
			return
		}
		http.NotFound(w, r)
	})

	return r
}
