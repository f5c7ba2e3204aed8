package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shivambatholiya/knovator-job-import/internal/model"
)

const logColumns = `id, feed_url, notes, total_fetched, total_imported, new_jobs_count,
	updated_jobs_count, failed_jobs_count, fetch_failed, created_at, updated_at, completed_at`

type logRow struct {
	ID               string       `db:"id"`
	FeedURL          string       `db:"feed_url"`
	Notes            string       `db:"notes"`
	TotalFetched     int          `db:"total_fetched"`
	TotalImported    int          `db:"total_imported"`
	NewJobsCount     int          `db:"new_jobs_count"`
	UpdatedJobsCount int          `db:"updated_jobs_count"`
	FailedJobsCount  int          `db:"failed_jobs_count"`
	FetchFailed      bool         `db:"fetch_failed"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
	CompletedAt      sql.NullTime `db:"completed_at"`
}

func (r logRow) toModel() *model.ImportLogEntry {
	return &model.ImportLogEntry{
		ID:               r.ID,
		FeedURL:          r.FeedURL,
		Notes:            r.Notes,
		TotalFetched:     r.TotalFetched,
		TotalImported:    r.TotalImported,
		NewJobsCount:     r.NewJobsCount,
		UpdatedJobsCount: r.UpdatedJobsCount,
		FailedJobsCount:  r.FailedJobsCount,
		FetchFailed:      r.FetchFailed,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
		CompletedAt:      timePtr(r.CompletedAt),
	}
}

type failedRow struct {
	Identifier      string         `db:"identifier"`
	Reason          string         `db:"reason"`
	OriginalPayload sql.NullString `db:"original_payload"`
	CreatedAt       time.Time      `db:"created_at"`
}

// LogFilter narrows List and Count.
type LogFilter struct {
	FeedURL string
	Limit   int
	Offset  int
}

// ImportLogRepository is the run ledger. Every mutation is one atomic
// statement or transaction, so concurrent workers never lose an increment.
type ImportLogRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewImportLogRepository returns a repository bound to conn.
func NewImportLogRepository(conn *sqlx.DB) *ImportLogRepository {
	return &ImportLogRepository{db: conn, now: utcNow}
}

// Create opens a ledger entry with zeroed counters.
func (r *ImportLogRepository) Create(ctx context.Context, feedURL, notes string) (*model.ImportLogEntry, error) {
	now := r.now()
	entry := &model.ImportLogEntry{
		ID:        uuid.NewString(),
		FeedURL:   feedURL,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO import_logs (id, feed_url, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`),
		entry.ID, entry.FeedURL, entry.Notes, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert import log: %w", err)
	}
	return entry, nil
}

// MarkFetched records how many items the fetch produced. An empty feed
// completes the run immediately.
func (r *ImportLogRepository) MarkFetched(ctx context.Context, id string, total int) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE import_logs SET
			total_fetched = ?,
			updated_at    = ?,
			completed_at  = CASE WHEN completed_at IS NULL AND total_imported + failed_jobs_count >= ?
			                     THEN ? ELSE completed_at END
		WHERE id = ?`),
		total, now, total, now, id,
	)
	if err != nil {
		return fmt.Errorf("mark import log %s fetched: %w", id, err)
	}
	return requireAffected(res)
}

// MarkFetchFailed closes a run whose feed could not be fetched or parsed.
func (r *ImportLogRepository) MarkFetchFailed(ctx context.Context, id, notes string) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE import_logs SET notes = ?, fetch_failed = ?, updated_at = ?, completed_at = ?
		WHERE id = ?`),
		notes, true, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("mark import log %s failed: %w", id, err)
	}
	return requireAffected(res)
}

// SetNotes replaces the free-text annotation.
func (r *ImportLogRepository) SetNotes(ctx context.Context, id, notes string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE import_logs SET notes = ?, updated_at = ? WHERE id = ?`),
		notes, r.now(), id,
	)
	if err != nil {
		return fmt.Errorf("set import log %s notes: %w", id, err)
	}
	return requireAffected(res)
}

// RecordSuccess counts one imported item as new or updated. Both counters
// move in the same statement, so total_imported always equals their sum.
func (r *ImportLogRepository) RecordSuccess(ctx context.Context, id string, created bool) error {
	newInc, updInc := 0, 1
	if created {
		newInc, updInc = 1, 0
	}

	now := r.now()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE import_logs SET
			total_imported     = total_imported + 1,
			new_jobs_count     = new_jobs_count + ?,
			updated_jobs_count = updated_jobs_count + ?,
			updated_at         = ?,
			completed_at       = CASE WHEN completed_at IS NULL AND total_fetched > 0
			                           AND total_imported + 1 + failed_jobs_count >= total_fetched
			                          THEN ? ELSE completed_at END
		WHERE id = ?`),
		newInc, updInc, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("record success on import log %s: %w", id, err)
	}
	return requireAffected(res)
}

// RecordFailure appends a failed item and bumps failed_jobs_count in one
// transaction.
func (r *ImportLogRepository) RecordFailure(ctx context.Context, id string, item model.FailedItem) (err error) {
	var payload sql.NullString
	if item.OriginalPayload != nil {
		b, mErr := json.Marshal(item.OriginalPayload)
		if mErr != nil {
			return fmt.Errorf("encode failed item payload: %w", mErr)
		}
		payload = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin failure tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := r.now()
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE import_logs SET
			failed_jobs_count = failed_jobs_count + 1,
			updated_at        = ?,
			completed_at      = CASE WHEN completed_at IS NULL AND total_fetched > 0
			                          AND total_imported + failed_jobs_count + 1 >= total_fetched
			                         THEN ? ELSE completed_at END
		WHERE id = ?`),
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("record failure on import log %s: %w", id, err)
	}
	if err = requireAffected(res); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO import_failed_items (import_log_id, identifier, reason, original_payload, created_at)
		 VALUES (?, ?, ?, ?, ?)`),
		id, item.Identifier, item.Reason, payload, now,
	)
	if err != nil {
		return fmt.Errorf("append failed item to import log %s: %w", id, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit failure tx: %w", err)
	}
	return nil
}

// Get returns an entry with its failed items in append order.
func (r *ImportLogRepository) Get(ctx context.Context, id string) (*model.ImportLogEntry, error) {
	var row logRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+logColumns+` FROM import_logs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get import log %s: %w", id, err)
	}

	var failed []failedRow
	err = r.db.SelectContext(ctx, &failed, r.db.Rebind(
		`SELECT identifier, reason, original_payload, created_at
		 FROM import_failed_items WHERE import_log_id = ? ORDER BY seq`), id)
	if err != nil {
		return nil, fmt.Errorf("list failed items of %s: %w", id, err)
	}

	entry := row.toModel()
	entry.FailedItems = make([]model.FailedItem, 0, len(failed))
	for _, f := range failed {
		item := model.FailedItem{
			Identifier: f.Identifier,
			Reason:     f.Reason,
			CreatedAt:  f.CreatedAt.UTC(),
		}
		if f.OriginalPayload.Valid {
			var p model.NormalizedItem
			if err := json.Unmarshal([]byte(f.OriginalPayload.String), &p); err != nil {
				return nil, fmt.Errorf("decode failed item payload: %w", err)
			}
			item.OriginalPayload = &p
		}
		entry.FailedItems = append(entry.FailedItems, item)
	}
	return entry, nil
}

// List returns entries newest first, without failed items.
func (r *ImportLogRepository) List(ctx context.Context, f LogFilter) ([]model.ImportLogEntry, error) {
	where, args := f.where()
	args = append(args, f.Limit, f.Offset)

	var rows []logRow
	query := r.db.Rebind(`SELECT ` + logColumns + ` FROM import_logs` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list import logs: %w", err)
	}

	entries := make([]model.ImportLogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, *row.toModel())
	}
	return entries, nil
}

// Count returns how many entries match f, ignoring paging.
func (r *ImportLogRepository) Count(ctx context.Context, f LogFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM import_logs`+where), args...); err != nil {
		return 0, fmt.Errorf("count import logs: %w", err)
	}
	return n, nil
}

func (f LogFilter) where() (string, []any) {
	if f.FeedURL == "" {
		return "", nil
	}
	return " WHERE feed_url = ?", []any{f.FeedURL}
}
