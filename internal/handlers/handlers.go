// Package handlers provides the HTTP layer of the storefront API.
package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tapcardapp/tapcard/internal/auth"
	"github.com/tapcardapp/tapcard/internal/config"
	"github.com/tapcardapp/tapcard/internal/db"
	"github.com/tapcardapp/tapcard/internal/logging"
	"github.com/tapcardapp/tapcard/internal/models"
	"github.com/tapcardapp/tapcard/internal/services"
)

const maxRequestBodyBytes = 10 << 20 // card face images arrive as base64

// Store interfaces are declared here so handler tests can run against fakes.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, limit int) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type DesignStore interface {
	Create(ctx context.Context, design *models.CardDesign) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CardDesign, error)
	List(ctx context.Context, limit int) ([]*models.CardDesign, error)
	Update(ctx context.Context, design *models.CardDesign) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type OrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, limit int) ([]*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type TransactionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, limit int) ([]*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error)
}

type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListByDesign(ctx context.Context, designID uuid.UUID) ([]*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type DashboardStore interface {
	Stats(ctx context.Context) (*db.DashboardStats, error)
}

// Handlers provides the HTTP request handlers for the storefront API.
type Handlers struct {
	config          *config.Config
	db              *pgxpool.Pool
	users           UserStore
	designs         DesignStore
	orders          OrderStore
	transactions    TransactionStore
	reviews         ReviewStore
	dashboard       DashboardStore
	tokens          *auth.TokenService
	authService     *services.AuthService
	checkoutService *services.CheckoutService
	chatService     *services.ChatService
	logger          *slog.Logger
}

type Dependencies struct {
	Config          *config.Config
	DB              *pgxpool.Pool
	Users           UserStore
	Designs         DesignStore
	Orders          OrderStore
	Transactions    TransactionStore
	Reviews         ReviewStore
	Dashboard       DashboardStore
	Tokens          *auth.TokenService
	AuthService     *services.AuthService
	CheckoutService *services.CheckoutService
	ChatService     *services.ChatService
	Logger          *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("handlers dependencies: users store is required")
	}
	if deps.Designs == nil {
		return nil, fmt.Errorf("handlers dependencies: designs store is required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("handlers dependencies: orders store is required")
	}
	if deps.Transactions == nil {
		return nil, fmt.Errorf("handlers dependencies: transactions store is required")
	}
	if deps.Reviews == nil {
		return nil, fmt.Errorf("handlers dependencies: reviews store is required")
	}
	if deps.Dashboard == nil {
		return nil, fmt.Errorf("handlers dependencies: dashboard store is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("handlers dependencies: token service is required")
	}
	if deps.AuthService == nil {
		return nil, fmt.Errorf("handlers dependencies: auth service is required")
	}
	if deps.CheckoutService == nil {
		return nil, fmt.Errorf("handlers dependencies: checkout service is required")
	}
	if deps.ChatService == nil {
		return nil, fmt.Errorf("handlers dependencies: chat service is required")
	}

	return &Handlers{
		config:          deps.Config,
		db:              deps.DB,
		users:           deps.Users,
		designs:         deps.Designs,
		orders:          deps.Orders,
		transactions:    deps.Transactions,
		reviews:         deps.Reviews,
		dashboard:       deps.Dashboard,
		tokens:          deps.Tokens,
		authService:     deps.AuthService,
		checkoutService: deps.CheckoutService,
		chatService:     deps.ChatService,
		logger:          logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			logger.Error("database health check failed", "error", err)
			respondError(w, http.StatusServiceUnavailable, "database unhealthy")
			return
		}
	}

	respondJSON(w, http.StatusOK, "healthy", nil)
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

const defaultListLimit = 100

func listLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}

func pathID(r *http.Request, key string) (uuid.UUID, error) {
	raw, ok := mux.Vars(r)[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("missing path parameter %s", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}
