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

type AdvisorRepo struct {
	pool *pgxpool.Pool
}

func NewAdvisorRepo(pool *pgxpool.Pool) *AdvisorRepo {
	return &AdvisorRepo{pool: pool}
}

func (r *AdvisorRepo) Create(ctx context.Context, advisor *domain.Advisor) (err error) {
	start := time.Now()
	defer func() { observe("advisor_create", start, err) }()

	err = r.pool.QueryRow(ctx,
		`INSERT INTO advisors (email, name, firm) VALUES ($1, $2, $3) RETURNING id, created_at`,
		advisor.Email, advisor.Name, advisor.Firm,
	).Scan(&advisor.ID, &advisor.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create advisor: %w", err)
	}
	return nil
}

func (r *AdvisorRepo) GetByID(ctx context.Context, id int64) (advisor *domain.Advisor, err error) {
	start := time.Now()
	defer func() { observe("advisor_get", start, err) }()

	advisor = &domain.Advisor{}
	err = r.pool.QueryRow(ctx,
		`SELECT id, email, name, firm, created_at FROM advisors WHERE id = $1`, id,
	).Scan(&advisor.ID, &advisor.Email, &advisor.Name, &advisor.Firm, &advisor.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAdvisorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get advisor: %w", err)
	}
	return advisor, nil
}
