package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/api/handlers"
	custommiddleware "github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/api/middleware"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/config"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	portfolioService *service.PortfolioService,
	transactionService *service.TransactionService,
	valuationService *service.ValuationService,
	navService *service.NAVService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
			r.Get("/", portfolioHandler.Portfolios)
			r.Post("/", portfolioHandler.Create)
			r.Post("/folio", portfolioHandler.CreateFolio)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/summary", portfolioHandler.Summary)
				r.Get("/history", portfolioHandler.History)
			})
		})

		schemeHandler := handlers.NewSchemeHandler(portfolioService, navService)
		r.Route("/scheme", func(r chi.Router) {
			r.Post("/", schemeHandler.Create)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/nav", schemeHandler.NAVHistory)
			})
		})
		r.Post("/holding", schemeHandler.CreateHolding)
		r.Post("/nav/refresh", schemeHandler.RefreshNAVs)

		r.Route("/transaction", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(transactionService, valuationService)
			r.Post("/", transactionHandler.Create)
			r.Post("/import", transactionHandler.Import)
			r.Route("/holding/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", transactionHandler.ListForHolding)
			})
		})

		r.Route("/valuation", func(r chi.Router) {
			valuationHandler := handlers.NewValuationHandler(valuationService)
			r.Post("/recompute", valuationHandler.Recompute)
			r.Route("/realized-gains/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", valuationHandler.RealizedGains)
			})
		})
	})

	return r
}
