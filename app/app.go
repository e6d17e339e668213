package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tapcardapp/tapcard/internal/auth"
	"github.com/tapcardapp/tapcard/internal/cache"
	"github.com/tapcardapp/tapcard/internal/catalog"
	"github.com/tapcardapp/tapcard/internal/chat"
	"github.com/tapcardapp/tapcard/internal/checkout"
	"github.com/tapcardapp/tapcard/internal/config"
	"github.com/tapcardapp/tapcard/internal/db"
	"github.com/tapcardapp/tapcard/internal/email"
	"github.com/tapcardapp/tapcard/internal/handlers"
	"github.com/tapcardapp/tapcard/internal/payments"
	"github.com/tapcardapp/tapcard/internal/services"
	"github.com/tapcardapp/tapcard/internal/uploader"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	ChatBroker    chat.Broker
	Handlers      *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
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

	chatBroker, err := chat.NewBroker(chat.Config{
		Broker:                cfg.ChatBroker,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize chat broker: %w", err)
	}

	storefront, err := catalog.NewParser().ParseFile(cfg.CatalogPath)
	if err != nil {
		closeChatBroker(logger, chatBroker)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to load storefront catalog: %w", err)
	}
	if err := catalog.NewValidator().Validate(storefront); err != nil {
		closeChatBroker(logger, chatBroker)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("invalid storefront catalog: %w", err)
	}

	emailProvider, err := email.NewProvider(email.Config{
		Provider: cfg.EmailProvider,
		APIKey:   cfg.EmailAPIKey,
		From:     cfg.EmailFrom,
		Domain:   cfg.EmailDomain,
	})
	if err != nil {
		closeChatBroker(logger, chatBroker)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}

	userStore := db.NewUserStore(database)
	designStore := db.NewDesignStore(database)
	orderStore := db.NewOrderStore(database)
	transactionStore := db.NewTransactionStore(database)
	reviewStore := db.NewReviewStore(database)
	messageStore := db.NewMessageStore(database)
	dashboardStore := db.NewDashboardStore(database)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	gateway := payments.NewClient(cfg.StripeSecretKey, storefront.Store.Currency)
	cdn := uploader.NewClient(cfg.UploadURL, cfg.UploadPreset)
	sessions := checkout.NewRepository(cacheProvider)

	authService := services.NewAuthService(userStore, tokens, logger.With("component", "auth_service"))
	checkoutService := services.NewCheckoutService(
		sessions,
		designStore,
		orderStore,
		userStore,
		gateway,
		cdn,
		storefront,
		catalog.NewPricer(),
		emailProvider,
		cfg.CheckoutReturnURL,
		logger.With("component", "checkout_service"),
	)
	chatService := services.NewChatService(messageStore, chatBroker, logger.With("component", "chat_service"))

	h, err := handlers.New(handlers.Dependencies{
		Config:          cfg,
		DB:              database,
		Users:           userStore,
		Designs:         designStore,
		Orders:          orderStore,
		Transactions:    transactionStore,
		Reviews:         reviewStore,
		Dashboard:       dashboardStore,
		Tokens:          tokens,
		AuthService:     authService,
		CheckoutService: checkoutService,
		ChatService:     chatService,
		Logger:          logger,
	})
	if err != nil {
		closeChatBroker(logger, chatBroker)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		ChatBroker:    chatBroker,
		Handlers:      h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.ChatBroker != nil {
		closeChatBroker(a.Logger, a.ChatBroker)
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	case "text", "":
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel}))
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}

func closeChatBroker(logger *slog.Logger, broker chat.Broker) {
	if broker == nil {
		return
	}
	if err := broker.Close(); err != nil && logger != nil {
		logger.Warn("failed to close chat broker", "error", err)
	}
}
