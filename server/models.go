package server

import (
	"dedupserver/database"
	"dedupserver/quality"
)

// AnalyzeRequest запрос анализа таблицы, переданной в JSON
type AnalyzeRequest struct {
	Columns   []string             `json:"columns"`
	Rows      [][]string           `json:"rows"`
	ColumnMap quality.FieldMapping `json:"column_map"`
	Source    string               `json:"source,omitempty"`
}

// HealthResponse ответ проверки состояния
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	ReportStorage bool   `json:"report_storage"`
	Workers       int    `json:"workers"`
}

// RunDetailResponse сохраненный запуск с группами
type RunDetailResponse struct {
	Run    *database.AnalysisRun   `json:"run"`
	Groups []*database.StoredGroup `json:"groups"`
}

// RunListResponse список сохраненных запусков
type RunListResponse struct {
	Runs  []*database.AnalysisRun `json:"runs"`
	Total int                     `json:"total"`
}
