package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/session-audit/backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// ListIDsNotInGroup returns the tenant's users whose memberships do not
// include groupID.
func (r *UserRepo) ListIDsNotInGroup(ctx context.Context, tenantID string, groupID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.user_id FROM org_members m
		WHERE m.tenant_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM user_group_members g
			WHERE g.group_id = $2 AND g.user_id = m.user_id
		  )
		ORDER BY m.user_id
	`, tenantID, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListGroupMembers returns the members of groupID ordered by username.
func (r *UserRepo) ListGroupMembers(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.username, u.name, u.email, u.is_active, u.created_at
		FROM users u
		JOIN user_group_members g ON g.user_id = u.id
		WHERE g.group_id = $1
		ORDER BY u.username
		LIMIT $2 OFFSET $3
	`, groupID, limit, max(offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
