package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dedupserver/quality"
)

// ErrRunNotFound запуск анализа не найден
var ErrRunNotFound = errors.New("analysis run not found")

// AnalysisRun сохраненный запуск анализа
type AnalysisRun struct {
	ID                       int                `json:"id"`
	RunUUID                  string             `json:"run_uuid"`
	Source                   string             `json:"source,omitempty"`
	Status                   string             `json:"status"`
	Message                  string             `json:"message,omitempty"`
	TotalRecords             int                `json:"total_records"`
	DuplicateGroupCount      int                `json:"duplicate_group_count"`
	TotalPotentialDuplicates int                `json:"total_potential_duplicates"`
	PotentialGroupCount      int                `json:"potential_group_count"`
	KPIMetrics               quality.KPIMetrics `json:"kpi_metrics"`
	HighConfidence           int                `json:"high_confidence"`
	MediumConfidence         int                `json:"medium_confidence"`
	LowConfidence            int                `json:"low_confidence"`
	ProcessingTimeMs         int64              `json:"processing_time_ms"`
	ColumnMap                map[string]string  `json:"column_map"`
	Blocking                 quality.BlockStats `json:"blocking"`
	CreatedAt                time.Time          `json:"created_at"`
}

// StoredGroup сохраненная группа дубликатов
type StoredGroup struct {
	ID                   int    `json:"id"`
	RunID                int    `json:"run_id"`
	Rank                 int    `json:"rank"`
	MasterUID            string `json:"master_uid"`
	ExcelRow             int    `json:"ExcelRow"`
	quality.FieldValues
	DuplicateCount       int  `json:"DuplicateCount"`
	AvgSimilarity        int  `json:"AvgSimilarity"`
	IsLowConfidenceGroup bool `json:"IsLowConfidenceGroup"`
}

// SaveReport сохраняет отчет целиком в одной транзакции и возвращает ID запуска
func (db *DB) SaveReport(ctx context.Context, report *quality.Report, source string) (int, error) {
	if report == nil {
		return 0, fmt.Errorf("report is required")
	}

	columnMap, err := json.Marshal(report.ColumnMap)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal column map: %w", err)
	}
	blocking, err := json.Marshal(report.Stats.Blocking)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal blocking stats: %w", err)
	}

	tx, err := db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			run_uuid, source, status, message, total_records,
			duplicate_group_count, total_potential_duplicates, potential_group_count,
			auto_merge, needs_review, needs_ai,
			high_confidence, medium_confidence, low_confidence,
			processing_time_ms, column_map, blocking_stats
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID, source, report.Status, report.Message, report.Stats.TotalRecords,
		report.DuplicateGroupCount, report.TotalPotentialDuplicates, len(report.PotentialDuplicates),
		report.KPIMetrics.AutoMerge, report.KPIMetrics.NeedsReview, report.KPIMetrics.NeedsAI,
		report.Stats.HighConfidence, report.Stats.MediumConfidence, report.Stats.LowConfidence,
		report.Stats.ProcessingTimeMs, string(columnMap), string(blocking),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	groupStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO duplicate_groups (
			run_id, group_rank, master_uid, excel_row,
			customer_name, address, city, country, tpi,
			duplicate_count, avg_similarity, is_low_confidence_group
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare group statement: %w", err)
	}
	defer groupStmt.Close()

	recordStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO duplicate_records (
			group_id, run_id, uid, excel_row,
			customer_name, address, city, country, tpi,
			name_score, address_score, city_score, country_score, tpi_score, overall_score,
			is_low_confidence, block_type, block_key, match_method
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare record statement: %w", err)
	}
	defer recordStmt.Close()

	for rank, group := range report.Duplicates {
		result, err := groupStmt.ExecContext(ctx,
			runID, rank+1, group.MasterUID, group.ExcelRow,
			group.CustomerName, group.Address, group.City, group.Country, group.TPI,
			group.DuplicateCount, group.AvgSimilarity, group.IsLowConfidenceGroup,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert group %s: %w", group.MasterUID, err)
		}
		groupID, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get group ID: %w", err)
		}

		for _, d := range group.Duplicates {
			_, err := recordStmt.ExecContext(ctx,
				groupID, runID, d.UID, d.ExcelRow,
				d.CustomerName, d.Address, d.City, d.Country, d.TPI,
				d.NameScore, d.AddressScore, d.CityScore, d.CountryScore, d.TPIScore, d.OverallScore,
				d.IsLowConfidence, d.BlockType, d.BlockKey, d.MatchMethod,
			)
			if err != nil {
				return 0, fmt.Errorf("failed to insert duplicate %s: %w", d.UID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return int(runID), nil
}

const runColumns = `
	id, run_uuid, COALESCE(source, ''), status, COALESCE(message, ''), total_records,
	duplicate_group_count, total_potential_duplicates, potential_group_count,
	auto_merge, needs_review, needs_ai,
	high_confidence, medium_confidence, low_confidence,
	processing_time_ms, COALESCE(column_map, '{}'), COALESCE(blocking_stats, '{}'), created_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*AnalysisRun, error) {
	run := &AnalysisRun{}
	var columnMap, blocking string

	err := row.Scan(
		&run.ID, &run.RunUUID, &run.Source, &run.Status, &run.Message, &run.TotalRecords,
		&run.DuplicateGroupCount, &run.TotalPotentialDuplicates, &run.PotentialGroupCount,
		&run.KPIMetrics.AutoMerge, &run.KPIMetrics.NeedsReview, &run.KPIMetrics.NeedsAI,
		&run.HighConfidence, &run.MediumConfidence, &run.LowConfidence,
		&run.ProcessingTimeMs, &columnMap, &blocking, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(columnMap), &run.ColumnMap); err != nil {
		return nil, fmt.Errorf("failed to decode column map: %w", err)
	}
	if err := json.Unmarshal([]byte(blocking), &run.Blocking); err != nil {
		return nil, fmt.Errorf("failed to decode blocking stats: %w", err)
	}
	return run, nil
}

// GetRunByUUID получает запуск по run_id отчета
func (db *DB) GetRunByUUID(runUUID string) (*AnalysisRun, error) {
	run, err := scanRun(db.conn.QueryRow("SELECT "+runColumns+" FROM analysis_runs WHERE run_uuid = ?", runUUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runUUID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis run: %w", err)
	}
	return run, nil
}

// GetLatestRun получает последний сохраненный запуск
func (db *DB) GetLatestRun() (*AnalysisRun, error) {
	run, err := scanRun(db.conn.QueryRow("SELECT " + runColumns + " FROM analysis_runs ORDER BY id DESC LIMIT 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest analysis run: %w", err)
	}
	return run, nil
}

// ListRuns возвращает последние запуски, новые первыми
func (db *DB) ListRuns(limit int) ([]*AnalysisRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.Query("SELECT "+runColumns+" FROM analysis_runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*AnalysisRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetGroups возвращает группы запуска в порядке отчета
func (db *DB) GetGroups(runID int) ([]*StoredGroup, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, group_rank, master_uid, excel_row,
		       COALESCE(customer_name, ''), COALESCE(address, ''), COALESCE(city, ''),
		       COALESCE(country, ''), COALESCE(tpi, ''),
		       duplicate_count, avg_similarity, is_low_confidence_group
		FROM duplicate_groups
		WHERE run_id = ?
		ORDER BY group_rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*StoredGroup, 0)
	for rows.Next() {
		g := &StoredGroup{}
		if err := rows.Scan(
			&g.ID, &g.RunID, &g.Rank, &g.MasterUID, &g.ExcelRow,
			&g.CustomerName, &g.Address, &g.City, &g.Country, &g.TPI,
			&g.DuplicateCount, &g.AvgSimilarity, &g.IsLowConfidenceGroup,
		); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
