package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Abhishekkatale/CRM-Musitech/internal/domain"
)

// SubuserRepository defines persistence access for subuser accounts.
type SubuserRepository interface {
	Create(ctx context.Context, subuser *domain.SubuserRecord) error
	GetByProfileID(ctx context.Context, profileID string) (*domain.SubuserRecord, error)
}

type subuserRepository struct {
	pool *pgxpool.Pool
}

// NewSubuserRepository returns a Postgres-backed implementation.
func NewSubuserRepository(pool *pgxpool.Pool) SubuserRepository {
	return &subuserRepository{pool: pool}
}

func (r *subuserRepository) Create(ctx context.Context, subuser *domain.SubuserRecord) error {
	perms, err := json.Marshal(subuser.Permissions)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO subusers (profile_id, client_id, role_name, permissions)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		subuser.ProfileID,
		subuser.ClientID,
		subuser.RoleName,
		perms,
	).Scan(&subuser.ID, &subuser.CreatedAt, &subuser.UpdatedAt)
}

func (r *subuserRepository) GetByProfileID(ctx context.Context, profileID string) (*domain.SubuserRecord, error) {
	const query = `
        SELECT id, profile_id, client_id, role_name, permissions, created_at, updated_at
        FROM subusers WHERE profile_id=$1`

	var subuser domain.SubuserRecord
	var perms []byte
	if err := r.pool.QueryRow(ctx, query, profileID).Scan(
		&subuser.ID,
		&subuser.ProfileID,
		&subuser.ClientID,
		&subuser.RoleName,
		&perms,
		&subuser.CreatedAt,
		&subuser.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &subuser.Permissions); err != nil {
			return nil, err
		}
	}
	if subuser.Permissions == nil {
		subuser.Permissions = domain.PermissionMap{}
	}
	return &subuser, nil
}
