package records

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/dbx"
	"github.com/dmitrijs2005/weekplanner/internal/server/models"
)

type PostgresRepository struct {
	db    dbx.DBTX
	table Table
}

// NewPostgresRepository binds a repository to one of the collection tables.
func NewPostgresRepository(db dbx.DBTX, table Table) *PostgresRepository {
	return &PostgresRepository{db: db, table: table}
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, data, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC, id ASC
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Record, 0)
	for rows.Next() {
		rec := &models.Record{}
		var data []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &data, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		rec.Data = data
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, data, created_at)
		VALUES ($1, $2, $3, $4)
	`, r.table)

	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.UserID, []byte(rec.Data), rec.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s %q", common.ErrorConflict, r.table, rec.ID)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, rec *models.Record) error {
	query := fmt.Sprintf(`
		UPDATE %s SET data = $3
		WHERE user_id = $1 AND id = $2
	`, r.table)

	return r.execOne(ctx, rec.ID, query, rec.UserID, rec.ID, []byte(rec.Data))
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1 AND id = $2
	`, r.table)

	return r.execOne(ctx, id, query, userID, id)
}

func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1
	`, r.table)

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffected(res)
}

func (r *PostgresRepository) execOne(ctx context.Context, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %q", common.ErrorNotFound, r.table, id)
	}
	return nil
}
