package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/session-audit/backend/internal/models"
)

type CommandRepo struct {
	pool *pgxpool.Pool
}

func NewCommandRepo(pool *pgxpool.Pool) *CommandRepo {
	return &CommandRepo{pool: pool}
}

const commandColumns = `id, "user", asset, input, session, risk_level, tenant_id, account, output, timestamp, remote_addr`

func scanCommand(row scanner) (*models.Command, error) {
	var (
		c        models.Command
		id       uuid.UUID
		risk     int16
		tenantID string
	)
	if err := row.Scan(&id, &c.User, &c.Asset, &c.Input, &c.Session, &risk, &tenantID,
		&c.Account, &c.Output, &c.Timestamp, &c.RemoteAddr); err != nil {
		return nil, err
	}
	level := models.RiskLevel(risk)
	c.ID = &id
	c.RiskLevel = &level
	c.TenantID = &tenantID
	return &c, nil
}

// InsertBatch stores cmds in one transaction and fills their ids.
func (r *CommandRepo) InsertBatch(ctx context.Context, cmds []*models.Command) error {
	if len(cmds) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, c := range cmds {
		var risk models.RiskLevel
		if c.RiskLevel != nil {
			risk = *c.RiskLevel
		}
		batch.Queue(`
			INSERT INTO commands ("user", asset, input, session, risk_level, tenant_id, account, output, timestamp, remote_addr)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`, c.User, c.Asset, c.Input, c.Session, int16(risk), c.Tenant(), c.Account, c.Output, c.Timestamp, c.RemoteAddr)
	}

	results := tx.SendBatch(ctx, batch)
	for _, c := range cmds {
		var id uuid.UUID
		if err := results.QueryRow().Scan(&id); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert command: %w", err)
		}
		c.ID = &id
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *CommandRepo) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Command, error) {
	c, err := scanCommand(r.pool.QueryRow(ctx, `
		SELECT `+commandColumns+` FROM commands WHERE tenant_id = $1 AND id = $2
	`, tenantID, id))
	if isNoRows(err) {
		return nil, models.ErrNotFound("command %s not found", id)
	}
	return c, err
}

type CommandFilter struct {
	Session   string
	Asset     string
	User      string
	Account   string
	Input     string // substring
	RiskLevel *models.RiskLevel
	From      *int64 // epoch seconds, inclusive
	To        *int64 // epoch seconds, inclusive
	Limit     int
	Offset    int
}

// MaxExportRows bounds a single export.
const MaxExportRows = 10000

func (r *CommandRepo) List(ctx context.Context, tenantID string, f CommandFilter) ([]models.Command, error) {
	args := []any{tenantID}
	where := []string{"tenant_id = $1"}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Session != "" {
		add("session = $%d", f.Session)
	}
	if f.Asset != "" {
		add("asset = $%d", f.Asset)
	}
	if f.User != "" {
		add(`"user" = $%d`, f.User)
	}
	if f.Account != "" {
		add("account = $%d", f.Account)
	}
	if f.Input != "" {
		add("input ILIKE $%d", "%"+escapeLike(f.Input)+"%")
	}
	if f.RiskLevel != nil {
		add("risk_level = $%d", int16(*f.RiskLevel))
	}
	if f.From != nil {
		add("timestamp >= $%d", *f.From)
	}
	if f.To != nil {
		add("timestamp <= $%d", *f.To)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > MaxExportRows {
		limit = MaxExportRows
	}
	args = append(args, limit, max(f.Offset, 0))

	query := `SELECT ` + commandColumns + ` FROM commands WHERE ` + strings.Join(where, " AND ") +
		fmt.Sprintf(" ORDER BY timestamp DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cmds := []models.Command{}
	for rows.Next() {
		c, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, *c)
	}
	return cmds, rows.Err()
}

// DeleteBefore removes commands captured before cutoff (epoch seconds) in
// every tenant.
func (r *CommandRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM commands WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
