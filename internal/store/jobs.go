package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shivambatholiya/knovator-job-import/internal/model"
)

const jobColumns = `id, identity_key, external_id, title, company, location, url, description,
	date_posted, raw_source, feed_url, revision, created_at, updated_at`

// jobRow mirrors a row of the jobs table.
type jobRow struct {
	ID          string         `db:"id"`
	IdentityKey sql.NullString `db:"identity_key"`
	ExternalID  string         `db:"external_id"`
	Title       string         `db:"title"`
	Company     string         `db:"company"`
	Location    string         `db:"location"`
	URL         string         `db:"url"`
	Description string         `db:"description"`
	DatePosted  sql.NullTime   `db:"date_posted"`
	RawSource   sql.NullString `db:"raw_source"`
	FeedURL     string         `db:"feed_url"`
	Revision    int            `db:"revision"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r jobRow) toModel() *model.JobRecord {
	rec := &model.JobRecord{
		ID:          r.ID,
		ExternalID:  r.ExternalID,
		Title:       r.Title,
		Company:     r.Company,
		Location:    r.Location,
		URL:         r.URL,
		Description: r.Description,
		DatePosted:  timePtr(r.DatePosted),
		FeedURL:     r.FeedURL,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.RawSource.Valid && r.RawSource.String != "" {
		rec.RawSource = json.RawMessage(r.RawSource.String)
	}
	return rec
}

// JobFilter narrows List and Count.
type JobFilter struct {
	Query   string // case-insensitive substring of title or company
	FeedURL string
	Limit   int
	Offset  int
}

// JobRepository stores canonical job records.
type JobRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewJobRepository returns a repository bound to conn.
func NewJobRepository(conn *sqlx.DB) *JobRepository {
	return &JobRepository{db: conn, now: utcNow}
}

// ConditionalUpsert creates the record for identity or updates the one
// already stored under it, in a single statement. created reports which
// branch ran; concurrent callers with the same identity see exactly one
// created == true.
func (r *JobRepository) ConditionalUpsert(ctx context.Context, identity model.Identity, rec *model.JobRecord) (*model.JobRecord, bool, error) {
	if err := rec.Validate(); err != nil {
		return nil, false, err
	}

	now := r.now()
	query := r.db.Rebind(`
		INSERT INTO jobs (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (identity_key) DO UPDATE SET
			external_id = excluded.external_id,
			title       = excluded.title,
			company     = excluded.company,
			location    = excluded.location,
			url         = excluded.url,
			description = excluded.description,
			date_posted = excluded.date_posted,
			raw_source  = excluded.raw_source,
			feed_url    = excluded.feed_url,
			revision    = jobs.revision + 1,
			updated_at  = excluded.updated_at
		RETURNING ` + jobColumns)

	var row jobRow
	err := r.db.QueryRowxContext(ctx, query,
		uuid.NewString(), identity.Key(), rec.ExternalID, rec.Title, rec.Company, rec.Location,
		rec.URL, rec.Description, nullTime(rec.DatePosted), nullString(string(rec.RawSource)),
		rec.FeedURL, now, now,
	).StructScan(&row)
	if err != nil {
		return nil, false, fmt.Errorf("upsert job %s: %w", identity.Key(), err)
	}
	return row.toModel(), row.Revision == 1, nil
}

// Create inserts a record that has no identity.
func (r *JobRepository) Create(ctx context.Context, rec *model.JobRecord) (*model.JobRecord, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	now := r.now()
	query := r.db.Rebind(`
		INSERT INTO jobs (` + jobColumns + `)
		VALUES (?, NULL, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		RETURNING ` + jobColumns)

	var row jobRow
	err := r.db.QueryRowxContext(ctx, query,
		uuid.NewString(), rec.ExternalID, rec.Title, rec.Company, rec.Location,
		rec.URL, rec.Description, nullTime(rec.DatePosted), nullString(string(rec.RawSource)),
		rec.FeedURL, now, now,
	).StructScan(&row)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return row.toModel(), nil
}

// Get returns one record by id.
func (r *JobRepository) Get(ctx context.Context, id string) (*model.JobRecord, error) {
	var row jobRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return row.toModel(), nil
}

// List returns records newest first.
func (r *JobRepository) List(ctx context.Context, f JobFilter) ([]model.JobRecord, error) {
	where, args := f.where()
	args = append(args, f.Limit, f.Offset)

	var rows []jobRow
	query := r.db.Rebind(`SELECT ` + jobColumns + ` FROM jobs` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]model.JobRecord, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, *row.toModel())
	}
	return jobs, nil
}

// Count returns how many records match f, ignoring paging.
func (r *JobRepository) Count(ctx context.Context, f JobFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM jobs`+where), args...); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

func (f JobFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		p := likePattern(q)
		clauses = append(clauses, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(company) LIKE ? ESCAPE '\')`)
		args = append(args, p, p)
	}
	if f.FeedURL != "" {
		clauses = append(clauses, `feed_url = ?`)
		args = append(args, f.FeedURL)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
