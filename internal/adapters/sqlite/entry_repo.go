package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/triage/internal/ports/secondary"
)

const entryColumns = `id, name, email, athlete_type, season_status, injured, use_case, referral_source,
	repeat_customer, public_influence, urgency, purchase_scope, represents_group, system_broken,
	customer_type, additional_notes, extra, priority_score, override_score, manual_override, shipped,
	created_at, updated_at`

const effectiveScoreExpr = `CASE WHEN manual_override THEN COALESCE(override_score, priority_score) ELSE priority_score END`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// EntryRepository implements secondary.EntryRepository with SQLite.
type EntryRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewEntryRepository creates a new SQLite entry repository.
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return NewEntryRepositoryWithDialect(db, DialectSQLite)
}

// NewEntryRepositoryWithDialect creates an entry repository for another SQL dialect.
func NewEntryRepositoryWithDialect(db *sql.DB, dialect Dialect) *EntryRepository {
	return &EntryRepository{db: db, dialect: dialect, now: time.Now}
}

// Insert persists a new entry.
func (r *EntryRepository) Insert(ctx context.Context, entry *secondary.EntryRecord) error {
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate entry ID: %w", err)
		}
		entry.ID = id.String()
	}
	now := r.now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}

	extra, err := encodeExtra(entry.Answers.Extra)
	if err != nil {
		return err
	}

	a := entry.Answers
	_, err = r.db.ExecContext(ctx, r.dialect.rebind(
		`INSERT INTO priority_queue (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		entry.ID,
		a.Name,
		a.Email,
		nullString(a.AthleteType),
		nullString(a.SeasonStatus),
		nullString(a.Injured),
		nullString(a.UseCase),
		nullString(a.ReferralSource),
		nullBool(a.RepeatCustomer),
		nullString(a.PublicInfluence),
		nullString(a.Urgency),
		nullString(a.PurchaseScope),
		nullString(a.RepresentsGroup),
		nullString(a.SystemBroken),
		nullString(a.CustomerType),
		nullString(a.AdditionalNotes),
		extra,
		entry.PriorityScore,
		nullInt(entry.OverrideScore),
		entry.ManualOverride,
		entry.Shipped,
		entry.CreatedAt.UTC(),
		entry.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// GetByID retrieves an entry by its ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*secondary.EntryRecord, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.rebind(`SELECT `+entryColumns+` FROM priority_queue WHERE id = ?`), id)
	record, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return record, nil
}

// Update applies a field-level patch to one entry.
func (r *EntryRepository) Update(ctx context.Context, patch secondary.EntryPatch) error {
	return r.applyPatch(ctx, r.db, patch)
}

// UpdateBatch applies every patch in one transaction.
func (r *EntryRepository) UpdateBatch(ctx context.Context, patches []secondary.EntryPatch) error {
	if len(patches) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch update: %w", err)
	}
	for _, p := range patches {
		if err := r.applyPatch(ctx, tx, p); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch update: %w", err)
	}
	return nil
}

func (r *EntryRepository) applyPatch(ctx context.Context, db execer, patch secondary.EntryPatch) error {
	var sets []string
	var args []any

	if patch.Shipped != nil {
		sets = append(sets, "shipped = ?")
		args = append(args, *patch.Shipped)
	}
	if patch.OverrideScore != nil {
		sets = append(sets, "override_score = ?")
		args = append(args, *patch.OverrideScore)
	}
	if patch.ManualOverride != nil {
		sets = append(sets, "manual_override = ?")
		args = append(args, *patch.ManualOverride)
	}
	updatedAt := patch.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now()
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, updatedAt.UTC(), patch.EntryID)

	query := fmt.Sprintf("UPDATE priority_queue SET %s WHERE id = ?", strings.Join(sets, ", "))
	result, err := db.ExecContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update entry %s: %w", patch.EntryID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update entry %s: %w", patch.EntryID, err)
	}
	if n == 0 {
		return fmt.Errorf("entry %s: %w", patch.EntryID, secondary.ErrNotFound)
	}
	return nil
}

// Delete removes an entry from persistence.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.dialect.rebind("DELETE FROM priority_queue WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entry %s: %w", id, secondary.ErrNotFound)
	}
	return nil
}

// List retrieves entries matching the given filters.
func (r *EntryRepository) List(ctx context.Context, filters secondary.EntryFilters) ([]*secondary.EntryRecord, error) {
	query := `SELECT ` + entryColumns + ` FROM priority_queue WHERE 1=1`
	args := []any{}

	if filters.Shipped != nil {
		query += " AND shipped = ?"
		args = append(args, *filters.Shipped)
	}

	order, err := orderExpr(filters.OrderBy)
	if err != nil {
		return nil, err
	}
	dir := " ASC"
	if filters.Descending {
		dir = " DESC"
	}
	query += " ORDER BY " + order + dir + ", updated_at" + dir + ", id ASC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.EntryRecord
	for rows.Next() {
		record, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func orderExpr(orderBy string) (string, error) {
	switch orderBy {
	case "", secondary.OrderEffective:
		return effectiveScoreExpr, nil
	case secondary.OrderOverride:
		return "COALESCE(override_score, priority_score)", nil
	case secondary.OrderPriority:
		return "priority_score", nil
	case secondary.OrderUpdated:
		return "updated_at", nil
	default:
		return "", fmt.Errorf("unknown entry ordering %q", orderBy)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*secondary.EntryRecord, error) {
	var athleteType, seasonStatus, injured, useCase, referralSource sql.NullString
	var publicInfluence, urgency, purchaseScope, representsGroup sql.NullString
	var systemBroken, customerType, additionalNotes, extra sql.NullString
	var repeatCustomer sql.NullBool
	var overrideScore sql.NullInt64

	record := &secondary.EntryRecord{}
	err := row.Scan(
		&record.ID,
		&record.Answers.Name,
		&record.Answers.Email,
		&athleteType,
		&seasonStatus,
		&injured,
		&useCase,
		&referralSource,
		&repeatCustomer,
		&publicInfluence,
		&urgency,
		&purchaseScope,
		&representsGroup,
		&systemBroken,
		&customerType,
		&additionalNotes,
		&extra,
		&record.PriorityScore,
		&overrideScore,
		&record.ManualOverride,
		&record.Shipped,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a := &record.Answers
	a.AthleteType = athleteType.String
	a.SeasonStatus = seasonStatus.String
	a.Injured = injured.String
	a.UseCase = useCase.String
	a.ReferralSource = referralSource.String
	a.PublicInfluence = publicInfluence.String
	a.Urgency = urgency.String
	a.PurchaseScope = purchaseScope.String
	a.RepresentsGroup = representsGroup.String
	a.SystemBroken = systemBroken.String
	a.CustomerType = customerType.String
	a.AdditionalNotes = additionalNotes.String
	if repeatCustomer.Valid {
		b := repeatCustomer.Bool
		a.RepeatCustomer = &b
	}
	if overrideScore.Valid {
		v := int(overrideScore.Int64)
		record.OverrideScore = &v
	}
	if extra.Valid && extra.String != "" {
		if err := json.Unmarshal([]byte(extra.String), &a.Extra); err != nil {
			return nil, fmt.Errorf("entry %s extra answers: %w", record.ID, err)
		}
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func encodeExtra(extra map[string]any) (sql.NullString, error) {
	if len(extra) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode extra answers: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// Ensure EntryRepository implements the interfaces
var (
	_ secondary.EntryRepository = (*EntryRepository)(nil)
	_ secondary.BatchUpdater    = (*EntryRepository)(nil)
)
