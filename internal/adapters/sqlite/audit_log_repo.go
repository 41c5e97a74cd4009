package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/triage/internal/ports/secondary"
)

// AuditLogRepository implements secondary.AuditLogRepository with SQLite.
type AuditLogRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewAuditLogRepository creates a new SQLite audit log repository.
func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return NewAuditLogRepositoryWithDialect(db, DialectSQLite)
}

// NewAuditLogRepositoryWithDialect creates an audit log repository for another SQL dialect.
func NewAuditLogRepositoryWithDialect(db *sql.DB, dialect Dialect) *AuditLogRepository {
	return &AuditLogRepository{db: db, dialect: dialect, now: time.Now}
}

// Create persists a new audit record.
func (r *AuditLogRepository) Create(ctx context.Context, log *secondary.AuditRecord) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = r.now()
	}

	_, err := r.db.ExecContext(ctx, r.dialect.rebind(
		`INSERT INTO entry_log (id, actor_id, entry_id, action, field_name, old_value, new_value, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		log.ID,
		nullString(log.ActorID),
		log.EntryID,
		log.Action,
		nullString(log.FieldName),
		nullString(log.OldValue),
		nullString(log.NewValue),
		log.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// List retrieves audit records matching the given filters, newest first.
func (r *AuditLogRepository) List(ctx context.Context, filters secondary.AuditFilters) ([]*secondary.AuditRecord, error) {
	query := `SELECT id, actor_id, entry_id, action, field_name, old_value, new_value, created_at FROM entry_log WHERE 1=1`
	args := []any{}

	if filters.EntryID != "" {
		query += " AND entry_id = ?"
		args = append(args, filters.EntryID)
	}

	if filters.ActorID != "" {
		query += " AND actor_id = ?"
		args = append(args, filters.ActorID)
	}

	if filters.Action != "" {
		query += " AND action = ?"
		args = append(args, filters.Action)
	}

	if filters.FieldName != "" {
		query += " AND field_name = ?"
		args = append(args, filters.FieldName)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*secondary.AuditRecord
	for rows.Next() {
		var actorID, fieldName, oldValue, newValue sql.NullString

		record := &secondary.AuditRecord{}
		err := rows.Scan(&record.ID,
			&actorID,
			&record.EntryID,
			&record.Action,
			&fieldName,
			&oldValue,
			&newValue,
			&record.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		record.ActorID = actorID.String
		record.FieldName = fieldName.String
		record.OldValue = oldValue.String
		record.NewValue = newValue.String
		record.CreatedAt = record.CreatedAt.UTC()

		logs = append(logs, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return logs, nil
}

// PruneOlderThan deletes audit records older than the given number of days.
func (r *AuditLogRepository) PruneOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := r.now().UTC().AddDate(0, 0, -days)
	result, err := r.db.ExecContext(ctx, r.dialect.rebind("DELETE FROM entry_log WHERE created_at < ?"), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit logs: %w", err)
	}

	count, _ := result.RowsAffected()
	return int(count), nil
}

// Ensure AuditLogRepository implements the interface
var _ secondary.AuditLogRepository = (*AuditLogRepository)(nil)
