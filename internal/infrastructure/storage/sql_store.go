package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/ports"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var outcomeColumns = []string{
	"id", "cycle_id", "opportunity_id", "content_id", "publish_id", "status",
	"category", "source", "opportunity_score", "content_quality", "provider",
	"estimated_revenue", "actual_revenue", "actual_cost", "success", "profit",
	"insights", "created_at",
}

// SQLStore persists the append-only log into SQLite or Postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
}

var _ ports.Store = (*SQLStore)(nil)

// Open connects to the database and creates the schema when missing.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = openSQLite(dsn)
	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}

	store := New(db, driver)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func openSQLite(dsn string) (*sql.DB, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dsn = filepath.Clean(dsn) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer and :memory: databases live per connection.
	db.SetMaxOpenConns(1)
	return db, nil
}

// New wraps an existing handle. The caller owns schema creation (see Migrate).
func New(db *sql.DB, driver string) *SQLStore {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &SQLStore{
		db:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(format),
	}
}

// Migrate creates tables and indexes that do not exist yet.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// SaveOpportunities stores newly discovered opportunities. Known IDs are ignored.
func (s *SQLStore) SaveOpportunities(ctx context.Context, opps []domain.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}

	q := s.sb.Insert("opportunities").Columns(
		"id", "source", "source_url", "title", "description", "category",
		"estimated_revenue", "requirements", "status", "created_at",
	)
	for _, o := range opps {
		reqs, err := json.Marshal(o.Requirements)
		if err != nil {
			return fmt.Errorf("marshal requirements: %w", err)
		}
		status := o.Status
		if status == "" {
			status = domain.StatusDiscovered
		}
		q = q.Values(o.ID, o.Source, o.SourceURL, o.Title, o.Description, string(o.Category),
			o.EstimatedRevenue, string(reqs), string(status), toMillis(o.CreatedAt))
	}

	query, args, err := q.Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build insert opportunities: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert opportunities: %w", err)
	}
	return nil
}

// SaveContent stores one generated piece.
func (s *SQLStore) SaveContent(ctx context.Context, c domain.GeneratedContent) error {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query, args, err := s.sb.Insert("contents").
		Columns("id", "opportunity_id", "category", "title", "body", "provider",
			"tokens_used", "cost", "quality_score", "status", "metadata", "created_at").
		Values(c.ID, c.OpportunityID, string(c.Category), c.Title, c.Body, c.Provider,
			c.TokensUsed, c.Cost, c.QualityScore, string(c.Status), string(meta), toMillis(c.CreatedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert content: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert content: %w", err)
	}
	return nil
}

// AppendOutcome appends one outcome record. Records are never updated.
func (s *SQLStore) AppendOutcome(ctx context.Context, rec domain.OutcomeRecord) error {
	insights, err := json.Marshal(rec.Insights)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}
	f := rec.Features

	query, args, err := s.sb.Insert("outcomes").
		Columns(outcomeColumns...).
		Values(rec.ID, rec.CycleID, rec.OpportunityID, rec.ContentID, rec.PublishID, string(rec.Status),
			string(f.Category), f.Source, f.OpportunityScore, f.ContentQuality, f.Provider,
			f.EstimatedRevenue, f.ActualRevenue, f.ActualCost, rec.Success, rec.Profit,
			string(insights), toMillis(rec.CreatedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert outcome: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// ListOutcomes returns records oldest first, filtered by time range and category.
func (s *SQLStore) ListOutcomes(ctx context.Context, filter domain.OutcomeFilter) ([]domain.OutcomeRecord, error) {
	q := s.sb.Select(outcomeColumns...).From("outcomes").OrderBy("created_at ASC", "id ASC")
	if !filter.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": toMillis(filter.Since)})
	}
	if !filter.Until.IsZero() {
		q = q.Where(sq.Lt{"created_at": toMillis(filter.Until)})
	}
	if filter.Category != "" {
		q = q.Where(sq.Eq{"category": string(filter.Category)})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list outcomes: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []domain.OutcomeRecord
	for rows.Next() {
		var (
			rec       domain.OutcomeRecord
			status    string
			category  string
			insights  string
			createdAt int64
		)
		f := &rec.Features
		if err := rows.Scan(&rec.ID, &rec.CycleID, &rec.OpportunityID, &rec.ContentID, &rec.PublishID, &status,
			&category, &f.Source, &f.OpportunityScore, &f.ContentQuality, &f.Provider,
			&f.EstimatedRevenue, &f.ActualRevenue, &f.ActualCost, &rec.Success, &rec.Profit,
			&insights, &createdAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		rec.Status = domain.OpportunityStatus(status)
		f.Category = domain.Category(category)
		rec.CreatedAt = fromMillis(createdAt)
		if insights != "" {
			if err := json.Unmarshal([]byte(insights), &rec.Insights); err != nil {
				return nil, fmt.Errorf("decode insights of %s: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// SaveBudget appends a ledger balance snapshot.
func (s *SQLStore) SaveBudget(ctx context.Context, balance float64, at time.Time) error {
	query, args, err := s.sb.Insert("budget_snapshots").
		Columns("recorded_at", "balance").
		Values(toMillis(at), balance).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert budget: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

// LatestBudget returns the newest snapshot or domain.ErrNotFound.
func (s *SQLStore) LatestBudget(ctx context.Context) (float64, error) {
	query, args, err := s.sb.Select("balance").From("budget_snapshots").
		OrderBy("recorded_at DESC").Limit(1).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build latest budget: %w", err)
	}

	var balance float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("query latest budget: %w", err)
	}
	return balance, nil
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the handle.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}
