package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mentorly/api/internal/models"
)

var ErrIdentityNotFound = errors.New("identity not found")

// IdentityRepository is the credential store for one role collection. The
// same table backs all three roles; scoping at construction keeps a student
// login from ever matching a mentor row with the same email.
type IdentityRepository struct {
	pool *pgxpool.Pool
	role models.Role
}

func NewIdentityRepository(pool *pgxpool.Pool, role models.Role) *IdentityRepository {
	return &IdentityRepository{pool: pool, role: role}
}

const identityColumns = `
	id, email, password_hash, display_name, role, status,
	year, college, approval_status, profile_completed, created_at, updated_at
`

func (r *IdentityRepository) Create(ctx context.Context, identity models.Identity) error {
	const query = `
		INSERT INTO users (
			id, email, password_hash, display_name, role, status,
			year, college, approval_status, profile_completed, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		identity.ID,
		identity.Email,
		identity.PasswordHash,
		identity.DisplayName,
		r.role,
		identity.Status,
		identity.Attributes.Year,
		identity.Attributes.College,
		identity.Attributes.ApprovalStatus,
		identity.Attributes.ProfileCompleted,
	)
	return err
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (models.Identity, error) {
	const query = `
		SELECT ` + identityColumns + `
		FROM users WHERE email = $1 AND role = $2
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, email, r.role))
}

func (r *IdentityRepository) GetByID(ctx context.Context, id string) (models.Identity, error) {
	const query = `
		SELECT ` + identityColumns + `
		FROM users WHERE id = $1 AND role = $2
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id, r.role))
}

func (r *IdentityRepository) UpdateStatus(ctx context.Context, id string, status models.IdentityStatus) error {
	const query = `
		UPDATE users SET status = $3, updated_at = NOW()
		WHERE id = $1 AND role = $2
	`
	cmd, err := r.pool.Exec(ctx, query, id, r.role, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

func (r *IdentityRepository) scanOne(row pgx.Row) (models.Identity, error) {
	var identity models.Identity
	if err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.DisplayName,
		&identity.Role,
		&identity.Status,
		&identity.Attributes.Year,
		&identity.Attributes.College,
		&identity.Attributes.ApprovalStatus,
		&identity.Attributes.ProfileCompleted,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Identity{}, ErrIdentityNotFound
		}
		return models.Identity{}, err
	}
	return identity, nil
}
