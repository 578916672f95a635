package storage

// schema is portable between SQLite and Postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS opportunities (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		source_url TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		estimated_revenue DOUBLE PRECISION NOT NULL,
		requirements TEXT NOT NULL DEFAULT '{}',
		status TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contents (
		id TEXT PRIMARY KEY,
		opportunity_id TEXT NOT NULL,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		provider TEXT NOT NULL,
		tokens_used INTEGER NOT NULL,
		cost DOUBLE PRECISION NOT NULL,
		quality_score DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outcomes (
		id TEXT PRIMARY KEY,
		cycle_id TEXT NOT NULL DEFAULT '',
		opportunity_id TEXT NOT NULL,
		content_id TEXT NOT NULL DEFAULT '',
		publish_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		category TEXT NOT NULL,
		source TEXT NOT NULL,
		opportunity_score DOUBLE PRECISION NOT NULL,
		content_quality DOUBLE PRECISION NOT NULL,
		provider TEXT NOT NULL DEFAULT '',
		estimated_revenue DOUBLE PRECISION NOT NULL,
		actual_revenue DOUBLE PRECISION NOT NULL,
		actual_cost DOUBLE PRECISION NOT NULL,
		success BOOLEAN NOT NULL,
		profit DOUBLE PRECISION NOT NULL,
		insights TEXT NOT NULL DEFAULT '[]',
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS outcomes_created_idx ON outcomes (created_at)`,
	`CREATE INDEX IF NOT EXISTS outcomes_category_idx ON outcomes (category, created_at)`,
	`CREATE TABLE IF NOT EXISTS budget_snapshots (
		recorded_at BIGINT NOT NULL,
		balance DOUBLE PRECISION NOT NULL
	)`,
}
