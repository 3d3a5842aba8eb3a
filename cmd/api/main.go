package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/boost-backend/api/routes"
	"github.com/angelmondragon/boost-backend/internal/caps"
	"github.com/angelmondragon/boost-backend/internal/ledger"
	"github.com/angelmondragon/boost-backend/internal/merchants"
	"github.com/angelmondragon/boost-backend/internal/offers"
	"github.com/angelmondragon/boost-backend/internal/public"
	"github.com/angelmondragon/boost-backend/internal/redemptions"
	"github.com/angelmondragon/boost-backend/internal/tokens"
	"github.com/angelmondragon/boost-backend/internal/users"
	"github.com/angelmondragon/boost-backend/pkg/config"
	"github.com/angelmondragon/boost-backend/pkg/db"
	"github.com/angelmondragon/boost-backend/pkg/identity"
	"github.com/angelmondragon/boost-backend/pkg/logger"
	"github.com/angelmondragon/boost-backend/pkg/metrics"
	"github.com/angelmondragon/boost-backend/pkg/migrate"
	"github.com/angelmondragon/boost-backend/pkg/outbox"
	"github.com/angelmondragon/boost-backend/pkg/qr"
	"github.com/angelmondragon/boost-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	// Money is rendered as a JSON number.
	decimal.MarshalJSONWithoutQuotes = true

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	provider, err := newIdentityProvider(context.Background(), cfg, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap identity provider", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	merchantRepo := merchants.NewRepository(gormDB)
	offerRepo := offers.NewRepository(gormDB)
	tokenRepo := tokens.NewRepository(gormDB)
	userRepo := users.NewRepository(gormDB)
	pendingRepo := users.NewPendingRoleRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)
	counter := caps.NewCounter(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg, cfg.FeatureFlags.EnableOutboxEvents)

	tokenService, err := tokens.NewService(tokenRepo, offerRepo, qr.NewPNGRenderer(0), cfg.App.QRBaseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create token service", err)
		os.Exit(1)
	}

	merchantService, err := merchants.NewService(merchants.ServiceParams{
		Tx:           dbClient,
		Repo:         merchantRepo,
		Users:        userRepo,
		PendingRoles: pendingRepo,
		Offers:       offerRepo,
		Tokens:       tokenRepo,
		Outbox:       outboxService,
		Directory:    provider,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create merchant service", err)
		os.Exit(1)
	}

	offerService, err := offers.NewService(offerRepo, merchantRepo, counter)
	if err != nil {
		logg.Error(context.Background(), "failed to create offer service", err)
		os.Exit(1)
	}

	redemptionService, err := redemptions.NewService(redemptions.ServiceParams{
		Tx:      dbClient,
		Repo:    redemptions.NewRepository(gormDB),
		Tokens:  tokenService,
		Offers:  offerRepo,
		Caps:    counter,
		Ledger:  ledgerRepo,
		Outbox:  outboxService,
		Metrics: metrics.NewRedemptionMetrics(prometheus.DefaultRegisterer),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create redemption service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(userRepo, pendingRepo, merchantRepo, provider, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	publicService, err := public.NewService(tokenService, offerRepo, merchantRepo, counter, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create public offer service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":               cfg.App.Env,
		"addr":              addr,
		"identity_provider": cfg.Identity.Provider,
		"sqlite":            cfg.FeatureFlags.UseSQLite,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:          dbClient,
			Redis:       redisClient,
			Idempotency: redisClient,
			Limiter:     redisClient,
			Verifier:    provider,
			Metrics:     promhttp.Handler(),
			Merchants:   merchantService,
			Offers:      offerService,
			Tokens:      tokenService,
			Redemptions: redemptionService,
			Ledger:      ledgerService,
			Users:       userService,
			Public:      publicService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// newIdentityProvider returns Firebase in deployed environments and the
// redis-backed local provider when BOOST_IDENTITY_PROVIDER=local.
func newIdentityProvider(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (identity.Provider, error) {
	if cfg.Identity.IsLocal() {
		return identity.NewLocal(cfg.JWT, redisClient)
	}
	return identity.NewFirebase(ctx, cfg.Identity, cfg.GCP)
}
