// Package handlers provides the HTTP surface of the storefront API.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasuwaapp/kasuwa/internal/auth"
	"github.com/kasuwaapp/kasuwa/internal/config"
	"github.com/kasuwaapp/kasuwa/internal/db"
	"github.com/kasuwaapp/kasuwa/internal/logging"
	"github.com/kasuwaapp/kasuwa/internal/services"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

type Handlers struct {
	config       *config.Config
	db           *pgxpool.Pool
	userStore    *db.UserStore
	productStore *db.ProductStore
	tokens       *auth.TokenManager
	userService  *services.UserService
	orderService *services.OrderService
	adminService *services.AdminService
	logger       *slog.Logger
}

type Dependencies struct {
	Config       *config.Config
	DB           *pgxpool.Pool
	UserStore    *db.UserStore
	ProductStore *db.ProductStore
	Tokens       *auth.TokenManager
	UserService  *services.UserService
	OrderService *services.OrderService
	AdminService *services.AdminService
	Logger       *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.UserStore == nil {
		return nil, fmt.Errorf("handlers dependencies: userStore is required")
	}
	if deps.ProductStore == nil {
		return nil, fmt.Errorf("handlers dependencies: productStore is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("handlers dependencies: tokens is required")
	}
	if deps.UserService == nil {
		return nil, fmt.Errorf("handlers dependencies: userService is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: orderService is required")
	}
	if deps.AdminService == nil {
		return nil, fmt.Errorf("handlers dependencies: adminService is required")
	}

	return &Handlers{
		config:       deps.Config,
		db:           deps.DB,
		userStore:    deps.UserStore,
		productStore: deps.ProductStore,
		tokens:       deps.Tokens,
		userService:  deps.UserService,
		orderService: deps.OrderService,
		adminService: deps.AdminService,
		logger:       logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		logger.Error("failed to encode health response", "error", err)
	}
}

// PaystackConfig exposes the public key the checkout page needs to
// initialize the gateway widget.
func (h *Handlers) PaystackConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"public_key": h.config.PaystackPublicKey,
	})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

func SecureCookiesFromConfig(cfg *config.Config) bool {
	if cfg == nil {
		return false
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL != "" {
		if parsed, err := url.Parse(baseURL); err == nil {
			return strings.EqualFold(parsed.Scheme, "https")
		}
	}

	return cfg.Port == "443" || cfg.Port == "8443"
}
