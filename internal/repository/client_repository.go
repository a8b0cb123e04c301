package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
)

// ClientRepository defines persistence access for client workspaces.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.ClientRecord) error
	GetByProfileID(ctx context.Context, profileID string) (*domain.ClientRecord, error)
}

type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository returns a Postgres-backed implementation.
func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

func (r *clientRepository) Create(ctx context.Context, client *domain.ClientRecord) error {
	const query = `
        INSERT INTO clients (profile_id, company_name, contact_email)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		client.ProfileID,
		client.CompanyName,
		client.ContactEmail,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
}

func (r *clientRepository) GetByProfileID(ctx context.Context, profileID string) (*domain.ClientRecord, error) {
	const query = `
        SELECT id, profile_id, company_name, contact_email, created_at, updated_at
        FROM clients WHERE profile_id=$1`

	var client domain.ClientRecord
	if err := r.pool.QueryRow(ctx, query, profileID).Scan(
		&client.ID,
		&client.ProfileID,
		&client.CompanyName,
		&client.ContactEmail,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &client, nil
}
