package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"

	"github.com/kasuwaapp/kasuwa/internal/auth"
	"github.com/kasuwaapp/kasuwa/internal/cache"
	"github.com/kasuwaapp/kasuwa/internal/config"
	"github.com/kasuwaapp/kasuwa/internal/db"
	"github.com/kasuwaapp/kasuwa/internal/email"
	"github.com/kasuwaapp/kasuwa/internal/handlers"
	"github.com/kasuwaapp/kasuwa/internal/logging"
	"github.com/kasuwaapp/kasuwa/internal/money"
	"github.com/kasuwaapp/kasuwa/internal/paystack"
	"github.com/kasuwaapp/kasuwa/internal/pricing"
	"github.com/kasuwaapp/kasuwa/internal/services"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers

	sentryEnabled bool
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
		}); err != nil {
			return nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}
		sentryEnabled = true
	}

	logger := newLogger(cfg, sentryEnabled)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(startupCtx, database); err != nil {
		database.Close()
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	pricingConfig, err := pricingConfigFromEnv(cfg)
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, err
	}

	userStore := db.NewUserStore(database)
	productStore := db.NewProductStore(database)
	orderStore := db.NewOrderStore(database)

	tokens := auth.NewTokenManager(cfg.JWTSecret, handlers.SecureCookiesFromConfig(cfg))
	gateway := paystack.NewClient(cfg.PaystackSecretKey, paystack.WithBaseURL(cfg.PaystackBaseURL))

	var emailProvider email.Provider
	if cfg.EmailProvider != "" {
		emailProvider, err = email.NewProvider(email.Config{
			Provider: cfg.EmailProvider,
			APIKey:   cfg.EmailAPIKey,
			From:     cfg.EmailFrom,
		})
		if err != nil {
			closeCacheProvider(logger, cacheProvider)
			database.Close()
			return nil, fmt.Errorf("failed to initialize email provider: %w", err)
		}
	}
	renderer, err := email.NewRenderer()
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email templates: %w", err)
	}

	var orderEmailer services.OrderEmailSender
	if emailProvider != nil {
		orderEmailer = services.NewStoreOrderEmailSender(emailProvider, cfg.StoreName, cfg.BaseURL)
	}

	orderService := services.NewOrderService(
		orderStore,
		productStore,
		gateway,
		pricing.NewCalculator(pricingConfig),
		orderEmailer,
		logger.With("component", "order_service"),
	)
	userService := services.NewUserService(
		userStore,
		emailProvider,
		renderer,
		cfg.StoreName,
		cfg.BaseURL,
		logger.With("component", "user_service"),
	)
	adminService := services.NewAdminService(orderStore, cacheProvider, logger.With("component", "admin_service"))

	h, err := handlers.New(handlers.Dependencies{
		Config:       cfg,
		DB:           database,
		UserStore:    userStore,
		ProductStore: productStore,
		Tokens:       tokens,
		UserService:  userService,
		OrderService: orderService,
		AdminService: adminService,
		Logger:       logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
		sentryEnabled: sentryEnabled,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
}

func newLogger(cfg *config.Config, sentryEnabled bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var console slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "json":
		console = slog.NewJSONHandler(os.Stdout, opts)
	default:
		console = tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel})
	}

	if !sentryEnabled {
		return slog.New(console)
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	return slog.New(logging.MultiHandler(console, sentryHandler))
}

func pricingConfigFromEnv(cfg *config.Config) (pricing.Config, error) {
	threshold, err := money.Parse(cfg.FreeShippingThreshold)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("FREE_SHIPPING_THRESHOLD: %w", err)
	}
	flatRate, err := money.Parse(cfg.FlatShippingRate)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("FLAT_SHIPPING_RATE: %w", err)
	}
	return pricing.Config{
		FreeShippingThreshold: threshold,
		FlatShippingRate:      flatRate,
		TaxRateBasisPoints:    cfg.TaxRateBasisPoints,
	}, nil
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
