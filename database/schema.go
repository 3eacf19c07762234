package database

import (
	"database/sql"
	"fmt"
)

// InitSchema создает все необходимые таблицы в SQLite базе данных
func InitSchema(db *sql.DB) error {
	schema := `
	-- Запуски анализа
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_uuid TEXT UNIQUE NOT NULL,
		source TEXT,
		status TEXT NOT NULL,
		message TEXT,
		total_records INTEGER DEFAULT 0,
		duplicate_group_count INTEGER DEFAULT 0,
		total_potential_duplicates INTEGER DEFAULT 0,
		potential_group_count INTEGER DEFAULT 0,
		auto_merge INTEGER DEFAULT 0,
		needs_review INTEGER DEFAULT 0,
		needs_ai INTEGER DEFAULT 0,
		high_confidence INTEGER DEFAULT 0,
		medium_confidence INTEGER DEFAULT 0,
		low_confidence INTEGER DEFAULT 0,
		processing_time_ms INTEGER DEFAULT 0,
		column_map TEXT,
		blocking_stats TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Группы: мастер-запись и агрегаты
	CREATE TABLE IF NOT EXISTS duplicate_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		group_rank INTEGER NOT NULL,
		master_uid TEXT NOT NULL,
		excel_row INTEGER NOT NULL,
		customer_name TEXT,
		address TEXT,
		city TEXT,
		country TEXT,
		tpi TEXT,
		duplicate_count INTEGER DEFAULT 0,
		avg_similarity INTEGER DEFAULT 0,
		is_low_confidence_group BOOLEAN DEFAULT FALSE,
		FOREIGN KEY(run_id) REFERENCES analysis_runs(id) ON DELETE CASCADE
	);

	-- Дубликаты внутри групп
	CREATE TABLE IF NOT EXISTS duplicate_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		group_id INTEGER NOT NULL,
		run_id INTEGER NOT NULL,
		uid TEXT NOT NULL,
		excel_row INTEGER NOT NULL,
		customer_name TEXT,
		address TEXT,
		city TEXT,
		country TEXT,
		tpi TEXT,
		name_score INTEGER DEFAULT 0,
		address_score INTEGER DEFAULT 0,
		city_score INTEGER DEFAULT 0,
		country_score INTEGER DEFAULT 0,
		tpi_score INTEGER DEFAULT 0,
		overall_score INTEGER DEFAULT 0,
		is_low_confidence BOOLEAN DEFAULT FALSE,
		block_type TEXT,
		block_key TEXT,
		match_method TEXT,
		FOREIGN KEY(group_id) REFERENCES duplicate_groups(id) ON DELETE CASCADE,
		FOREIGN KEY(run_id) REFERENCES analysis_runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_duplicate_groups_run ON duplicate_groups(run_id, group_rank);
	CREATE INDEX IF NOT EXISTS idx_duplicate_records_run ON duplicate_records(run_id, group_id);
	CREATE INDEX IF NOT EXISTS idx_analysis_runs_created ON analysis_runs(created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
