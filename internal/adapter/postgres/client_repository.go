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

type ClientRepo struct {
	pool *pgxpool.Pool
}

func NewClientRepo(pool *pgxpool.Pool) *ClientRepo {
	return &ClientRepo{pool: pool}
}

func (r *ClientRepo) Create(ctx context.Context, client *domain.Client) (err error) {
	start := time.Now()
	defer func() { observe("client_create", start, err) }()

	err = r.pool.QueryRow(ctx,
		`INSERT INTO clients (advisor_id, name, email, risk_profile, momentum_ref)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		client.AdvisorID, client.Name, client.Email, client.RiskProfile, client.MomentumRef,
	).Scan(&client.ID, &client.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (r *ClientRepo) GetByID(ctx context.Context, id int64) (client *domain.Client, err error) {
	start := time.Now()
	defer func() { observe("client_get", start, err) }()

	client = &domain.Client{}
	err = r.pool.QueryRow(ctx,
		`SELECT id, advisor_id, name, email, risk_profile, momentum_ref, created_at
		 FROM clients WHERE id = $1`, id,
	).Scan(&client.ID, &client.AdvisorID, &client.Name, &client.Email,
		&client.RiskProfile, &client.MomentumRef, &client.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

func (r *ClientRepo) ListByAdvisor(ctx context.Context, advisorID int64) (clients []domain.Client, err error) {
	start := time.Now()
	defer func() { observe("client_list", start, err) }()

	rows, err := r.pool.Query(ctx,
		`SELECT id, advisor_id, name, email, risk_profile, momentum_ref, created_at
		 FROM clients WHERE advisor_id = $1 ORDER BY created_at DESC`, advisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	return scanClients(rows)
}

// ListLinked returns the advisor's clients that carry a partner reference and
// can therefore be portfolio-synced.
func (r *ClientRepo) ListLinked(ctx context.Context, advisorID int64) (clients []domain.Client, err error) {
	start := time.Now()
	defer func() { observe("client_list_linked", start, err) }()

	rows, err := r.pool.Query(ctx,
		`SELECT id, advisor_id, name, email, risk_profile, momentum_ref, created_at
		 FROM clients WHERE advisor_id = $1 AND momentum_ref <> '' ORDER BY id`, advisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked clients: %w", err)
	}
	defer rows.Close()

	return scanClients(rows)
}

func scanClients(rows pgx.Rows) ([]domain.Client, error) {
	var clients []domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.AdvisorID, &c.Name, &c.Email,
			&c.RiskProfile, &c.MomentumRef, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read clients: %w", err)
	}
	return clients, nil
}
