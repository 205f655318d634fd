package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paul-reitz/relate.io/internal/domain"
)

type PortfolioRepo struct {
	pool *pgxpool.Pool
}

func NewPortfolioRepo(pool *pgxpool.Pool) *PortfolioRepo {
	return &PortfolioRepo{pool: pool}
}

// Upsert replaces the client's portfolio snapshot and all its holdings in a
// single transaction.
func (r *PortfolioRepo) Upsert(ctx context.Context, portfolio *domain.Portfolio) (err error) {
	start := time.Now()
	defer func() { observe("portfolio_upsert", start, err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO portfolios (client_id, total_value, currency, synced_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (client_id) DO UPDATE
		 SET total_value = EXCLUDED.total_value,
		     currency = EXCLUDED.currency,
		     synced_at = EXCLUDED.synced_at
		 RETURNING id`,
		portfolio.ClientID, portfolio.TotalValue, portfolio.Currency, portfolio.SyncedAt,
	).Scan(&portfolio.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM holdings WHERE portfolio_id = $1`, portfolio.ID); err != nil {
		return fmt.Errorf("failed to clear holdings: %w", err)
	}

	for i := range portfolio.Holdings {
		h := &portfolio.Holdings[i]
		h.PortfolioID = portfolio.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO holdings (portfolio_id, symbol, name, quantity, value, asset_class)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			h.PortfolioID, h.Symbol, h.Name, h.Quantity, h.Value, h.AssetClass,
		).Scan(&h.ID)
		if err != nil {
			return fmt.Errorf("failed to insert holding: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PortfolioRepo) GetByClient(ctx context.Context, clientID int64) (portfolio *domain.Portfolio, err error) {
	start := time.Now()
	defer func() { observe("portfolio_get", start, err) }()

	portfolio = &domain.Portfolio{}
	err = r.pool.QueryRow(ctx,
		`SELECT id, client_id, total_value, currency, synced_at
		 FROM portfolios WHERE client_id = $1`, clientID,
	).Scan(&portfolio.ID, &portfolio.ClientID, &portfolio.TotalValue,
		&portfolio.Currency, &portfolio.SyncedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, portfolio_id, symbol, name, quantity, value, asset_class
		 FROM holdings WHERE portfolio_id = $1 ORDER BY value DESC`, portfolio.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.ID, &h.PortfolioID, &h.Symbol, &h.Name,
			&h.Quantity, &h.Value, &h.AssetClass); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		portfolio.Holdings = append(portfolio.Holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read holdings: %w", err)
	}
	return portfolio, nil
}
