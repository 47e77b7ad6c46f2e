package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kasuwaapp/kasuwa/internal/cache"
	"github.com/kasuwaapp/kasuwa/internal/db"
	"github.com/kasuwaapp/kasuwa/internal/logging"
	"github.com/kasuwaapp/kasuwa/internal/money"
)

const salesSummaryTTL = 30 * time.Second

// AdminService serves dashboard aggregates. The queries scan the whole
// orders table, so results are cached for a short window.
type AdminService struct {
	orderStore adminOrderStore
	cache      cache.Provider
	logger     *slog.Logger
}

type adminOrderStore interface {
	CountOrders(ctx context.Context) (total int64, paid int64, err error)
	TotalSales(ctx context.Context) (money.Cents, error)
	SalesByDay(ctx context.Context) ([]db.DailySales, error)
}

func NewAdminService(orderStore adminOrderStore, cacheProvider cache.Provider, logger *slog.Logger) *AdminService {
	return &AdminService{
		orderStore: orderStore,
		cache:      cacheProvider,
		logger:     logger,
	}
}

type OrderCounts struct {
	TotalOrders int64 `json:"total_orders"`
	PaidOrders  int64 `json:"paid_orders"`
}

type SalesTotal struct {
	TotalSales money.Cents `json:"total_sales"`
}

func (s *AdminService) OrderCounts(ctx context.Context) (*OrderCounts, error) {
	var counts OrderCounts
	err := s.cached(ctx, cache.SalesSummaryKey("order_counts"), &counts, func() (any, error) {
		total, paid, err := s.orderStore.CountOrders(ctx)
		if err != nil {
			return nil, err
		}
		return &OrderCounts{TotalOrders: total, PaidOrders: paid}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	return &counts, nil
}

func (s *AdminService) TotalSales(ctx context.Context) (*SalesTotal, error) {
	var total SalesTotal
	err := s.cached(ctx, cache.SalesSummaryKey("total"), &total, func() (any, error) {
		sum, err := s.orderStore.TotalSales(ctx)
		if err != nil {
			return nil, err
		}
		return &SalesTotal{TotalSales: sum}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sum sales: %w", err)
	}
	return &total, nil
}

func (s *AdminService) SalesByDay(ctx context.Context) ([]db.DailySales, error) {
	var sales []db.DailySales
	err := s.cached(ctx, cache.SalesSummaryKey("by_day"), &sales, func() (any, error) {
		byDay, err := s.orderStore.SalesByDay(ctx)
		if err != nil {
			return nil, err
		}
		return byDay, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load sales by day: %w", err)
	}
	return sales, nil
}

// cached serves dest from the cache when possible, otherwise computes,
// stores and decodes the fresh value. Cache failures fall through to
// the database.
func (s *AdminService) cached(ctx context.Context, key string, dest any, compute func() (any, error)) error {
	logger := logging.FromContext(ctx, s.logger)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			if err := json.Unmarshal([]byte(raw), dest); err == nil {
				return nil
			}
			logger.Warn("discarding undecodable cache entry", "key", key)
		}
	}

	fresh, err := compute()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(fresh)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, string(encoded), salesSummaryTTL); err != nil {
			logger.Warn("failed to cache aggregate", "key", key, "error", err)
		}
	}

	return json.Unmarshal(encoded, dest)
}
