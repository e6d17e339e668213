package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DashboardStats struct {
	Users        int64 `json:"users"`
	CardDesigns  int64 `json:"card_designs"`
	Orders       int64 `json:"orders"`
	Transactions int64 `json:"transactions"`
	RevenueCents int64 `json:"revenue_cents"`
}

type DashboardStore struct {
	pool *pgxpool.Pool
}

func NewDashboardStore(pool *pgxpool.Pool) *DashboardStore {
	return &DashboardStore{pool: pool}
}

func (s *DashboardStore) Stats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	row := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM card_designs WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM orders WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM transactions),
			(SELECT COALESCE(SUM(total_amount_cents), 0) FROM transactions WHERE status = 'Completed')
	`)
	if err := row.Scan(&stats.Users, &stats.CardDesigns, &stats.Orders,
		&stats.Transactions, &stats.RevenueCents); err != nil {
		return nil, err
	}
	return &stats, nil
}
