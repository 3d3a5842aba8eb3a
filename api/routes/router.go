package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/boost-backend/api/controllers"
	"github.com/angelmondragon/boost-backend/api/middleware"
	"github.com/angelmondragon/boost-backend/internal/ledger"
	"github.com/angelmondragon/boost-backend/internal/merchants"
	"github.com/angelmondragon/boost-backend/internal/offers"
	"github.com/angelmondragon/boost-backend/internal/redemptions"
	"github.com/angelmondragon/boost-backend/internal/users"
	"github.com/angelmondragon/boost-backend/pkg/config"
	"github.com/angelmondragon/boost-backend/pkg/db"
	"github.com/angelmondragon/boost-backend/pkg/identity"
	"github.com/angelmondragon/boost-backend/pkg/logger"
	"github.com/angelmondragon/boost-backend/pkg/redis"
)

// Dependencies are the collaborators the router hands to middleware and
// controllers. Nil services surface as 500s from their handlers.
type Dependencies struct {
	DB          db.Pinger
	Redis       redis.Pinger
	Idempotency redis.IdempotencyStore
	Limiter     redis.RateLimiter
	Verifier    identity.Verifier
	Metrics     http.Handler

	Merchants   merchants.Service
	Offers      offers.Service
	Tokens      controllers.TokenAdmin
	Redemptions redemptions.Service
	Ledger      ledger.Service
	Users       users.Service
	Public      controllers.OfferCardReader
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	defaultPolicy := middleware.NewRateLimitPolicy("api", cfg.RateLimit.Window, cfg.RateLimit.DefaultLimit)
	redeemPolicy := middleware.NewRateLimitPolicy("redeem", cfg.RateLimit.Window, cfg.RateLimit.RedeemLimit)
	publicPolicy := middleware.NewRateLimitPolicy("public", cfg.RateLimit.Window, cfg.RateLimit.DefaultLimit)
	limiter := deps.Limiter
	if cfg.RateLimit.DisableLimits {
		limiter = nil
	}
	idempotent := middleware.Idempotency(deps.Idempotency, cfg.Redis.IdempotencyTTL, logg)

	var checks []controllers.ReadinessCheck
	if deps.DB != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "database", Ping: deps.DB.Ping})
	}
	if deps.Redis != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Ping: deps.Redis.Ping})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/public", func(r chi.Router) {
		r.Use(middleware.RateLimit(publicPolicy, limiter, logg))
		r.Get("/offers/{tokenOrCode}", controllers.PublicOfferCard(deps.Public, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Verifier, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(redeemPolicy, limiter, logg))
			r.With(idempotent).Post("/redeem", controllers.Redeem(deps.Redemptions, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(defaultPolicy, limiter, logg))

			r.Get("/me", controllers.Me(logg))
			r.With(idempotent).Post("/claim-role", controllers.ClaimRole(deps.Users, logg))

			r.With(idempotent).Post("/admin/merchants", controllers.MerchantCreate(deps.Merchants, logg))
			r.Get("/admin/merchants", controllers.MerchantList(deps.Merchants, logg))
			r.Get("/admin/merchants/{merchantId}", controllers.MerchantGet(deps.Merchants, logg))
			r.Patch("/admin/merchants/{merchantId}", controllers.MerchantUpdate(deps.Merchants, logg))
			r.Delete("/admin/merchants/{merchantId}", controllers.MerchantDelete(deps.Merchants, logg))
			r.Post("/admin/merchants/{merchantId}/restore", controllers.MerchantRestore(deps.Merchants, logg))

			r.With(idempotent).Post("/admin/offers", controllers.OfferCreate(deps.Offers, logg))
			r.Get("/admin/offers", controllers.OfferList(deps.Offers, logg))
			r.Get("/admin/offers/{offerId}", controllers.OfferGet(deps.Offers, logg))
			r.Patch("/admin/offers/{offerId}", controllers.OfferUpdate(deps.Offers, logg))
			r.Delete("/admin/offers/{offerId}", controllers.OfferDelete(deps.Offers, logg))
			r.With(idempotent).Post("/admin/offers/{offerId}/tokens", controllers.TokenGenerate(deps.Tokens, logg))
			r.Get("/admin/offers/{offerId}/tokens", controllers.TokenList(deps.Tokens, logg))
			r.Get("/admin/tokens/{tokenId}/qr", controllers.TokenQR(deps.Tokens, logg))

			r.Get("/admin/redemptions", controllers.RedemptionList(deps.Redemptions, logg))

			r.Get("/admin/ledger", controllers.LedgerSummary(deps.Ledger, logg))
			r.Get("/admin/ledger/export.csv", controllers.LedgerExport(deps.Ledger, logg))

			r.With(idempotent).Post("/admin/users", controllers.UserInvite(deps.Users, logg))
			r.Get("/admin/users", controllers.UserList(deps.Users, logg))
			r.Delete("/admin/users/{userId}", controllers.UserDelete(deps.Users, logg))
		})
	})

	return r
}
