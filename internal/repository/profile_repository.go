package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
)

// ProfileRepository defines persistence access for profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByAccountID(ctx context.Context, accountID string) (*domain.Profile, error)
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	UpdateStatus(ctx context.Context, id string, status domain.ProfileStatus) error
	TouchLastLogin(ctx context.Context, id string) error
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (account_id, email, full_name, role, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		profile.AccountID,
		profile.Email,
		profile.FullName,
		profile.Role,
		profile.Status,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Profile, error) {
	const query = `
        SELECT id, account_id, email, full_name, role, status, last_login_at, created_at, updated_at
        FROM profiles WHERE account_id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, accountID))
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	const query = `
        SELECT id, account_id, email, full_name, role, status, last_login_at, created_at, updated_at
        FROM profiles WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *profileRepository) UpdateStatus(ctx context.Context, id string, status domain.ProfileStatus) error {
	const query = `UPDATE profiles SET status=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) TouchLastLogin(ctx context.Context, id string) error {
	const query = `UPDATE profiles SET last_login_at=NOW(), updated_at=NOW() WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) scanOne(row pgx.Row) (*domain.Profile, error) {
	var profile domain.Profile
	if err := row.Scan(
		&profile.ID,
		&profile.AccountID,
		&profile.Email,
		&profile.FullName,
		&profile.Role,
		&profile.Status,
		&profile.LastLoginAt,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}
