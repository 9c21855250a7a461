package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/session-audit/backend/internal/models"
)

type GroupRepo struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) *GroupRepo {
	return &GroupRepo{pool: pool}
}

const groupColumns = `
	g.id, g.tenant_id, g.name, g.comment, g.created_at,
	(SELECT count(*) FROM user_group_members m WHERE m.group_id = g.id)
`

func scanGroup(row scanner) (*models.Group, error) {
	var g models.Group
	if err := row.Scan(&g.ID, &g.TenantID, &g.Name, &g.Comment, &g.CreatedAt, &g.MemberCount); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepo) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Group, error) {
	g, err := scanGroup(r.pool.QueryRow(ctx, `
		SELECT `+groupColumns+`
		FROM user_groups g WHERE g.tenant_id = $1 AND g.id = $2
	`, tenantID, id))
	if isNoRows(err) {
		return nil, models.ErrNotFound("group %s not found", id)
	}
	return g, err
}

func (r *GroupRepo) Create(ctx context.Context, g *models.Group) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_groups (tenant_id, name, comment)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, g.TenantID, g.Name, g.Comment).Scan(&g.ID, &g.CreatedAt)
	if isUniqueViolation(err) {
		return models.ErrConflict("group %q already exists", g.Name)
	}
	return err
}

func (r *GroupRepo) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_groups WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound("group %s not found", id)
	}
	return nil
}

// AddMembers inserts membership edges for userIDs in one statement. Users
// outside the tenant and existing edges are skipped; the number of new edges
// is returned.
func (r *GroupRepo) AddMembers(ctx context.Context, tenantID string, groupID uuid.UUID, userIDs []uuid.UUID) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO user_group_members (group_id, user_id)
		SELECT $1, m.user_id FROM org_members m
		WHERE m.tenant_id = $2 AND m.user_id = ANY($3::uuid[])
		ON CONFLICT (group_id, user_id) DO NOTHING
	`, groupID, tenantID, userIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type GroupFilter struct {
	Name   *string // exact match
	Search string  // case-insensitive substring of name
	Limit  int
	Offset int
}

func (r *GroupRepo) List(ctx context.Context, tenantID string, f GroupFilter) ([]models.Group, error) {
	args := []any{tenantID}
	where := []string{"g.tenant_id = $1"}

	if f.Name != nil {
		args = append(args, *f.Name)
		where = append(where, fmt.Sprintf("g.name = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		where = append(where, fmt.Sprintf("g.name ILIKE $%d", len(args)))
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, max(f.Offset, 0))

	query := `SELECT ` + groupColumns + ` FROM user_groups g WHERE ` + strings.Join(where, " AND ") +
		fmt.Sprintf(" ORDER BY g.name LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
