package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"dedupserver/database"
	"dedupserver/quality"
	"dedupserver/server/middleware"
)

// uploadFileField имя поля multipart-формы с CSV файлом
const uploadFileField = "file"

// handleAnalyzeDuplicates анализирует таблицу, переданную в теле запроса
func (s *Server) handleAnalyzeDuplicates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes())

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteJSONError(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	table := &quality.Table{Columns: req.Columns, Rows: req.Rows}
	source := req.Source
	if source == "" {
		source = "api"
	}

	s.runAnalysis(r.Context(), w, table, req.ColumnMap, source)
}

// handleUploadDuplicates анализирует CSV, загруженный через multipart-форму.
// Сопоставление колонок передается полями формы customer_name, address, city, country, tpi.
func (s *Server) handleUploadDuplicates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes())
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes()); err != nil {
		middleware.WriteJSONError(w, fmt.Sprintf("Failed to parse multipart form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile(uploadFileField)
	if err != nil {
		middleware.WriteJSONError(w, fmt.Sprintf("CSV file is required in field %q", uploadFileField), http.StatusBadRequest)
		return
	}
	defer file.Close()

	table, err := quality.ReadCSVTable(file)
	if err != nil {
		middleware.WriteJSONError(w, fmt.Sprintf("Failed to read CSV: %v", err), http.StatusBadRequest)
		return
	}

	columnMap := make(map[string]string)
	for _, f := range quality.AllFields {
		if value := strings.TrimSpace(r.FormValue(f.Key())); value != "" {
			columnMap[f.Key()] = value
		}
	}

	s.runAnalysis(r.Context(), w, table, quality.FieldMappingFromMap(columnMap), header.Filename)
}

// runAnalysis выполняет анализ, сохраняет отчет (если настроена база) и пишет ответ
func (s *Server) runAnalysis(ctx context.Context, w http.ResponseWriter, table *quality.Table, mapping quality.FieldMapping, source string) {
	report, err := s.analyzer.Analyze(ctx, table, mapping)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	if s.reportDB != nil {
		if _, err := s.reportDB.SaveReport(ctx, report, source); err != nil {
			s.logger.Error("failed to save report",
				zap.String("run_id", report.RunID),
				zap.String("source", source),
				zap.Error(err))
		}
	}

	middleware.WriteJSONResponse(w, report, http.StatusOK)
}

// writeAnalysisError переводит ошибку анализа в HTTP-ответ
func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	var analysisErr *quality.AnalysisError

	switch {
	case quality.IsConfigurationError(err):
		middleware.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &analysisErr):
		s.logger.Error("duplicate analysis failed",
			zap.String("origin", analysisErr.Origin),
			zap.String("message", analysisErr.Message))
		middleware.WriteJSONErrorWithOrigin(w, analysisErr.Message, analysisErr.Origin, http.StatusInternalServerError)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		middleware.WriteJSONError(w, "Analysis cancelled", http.StatusServiceUnavailable)
	default:
		s.logger.Error("duplicate analysis failed", zap.Error(err))
		middleware.WriteJSONError(w, fmt.Sprintf("Analysis failed: %v", err), http.StatusInternalServerError)
	}
}

// handleListRuns возвращает последние сохраненные запуски
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		middleware.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.reportDB == nil {
		middleware.WriteJSONError(w, "Report storage is not configured", http.StatusNotFound)
		return
	}

	limit := 50
	if value := r.URL.Query().Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			middleware.WriteJSONError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	runs, err := s.reportDB.ListRuns(limit)
	if err != nil {
		s.logger.Error("failed to list runs", zap.Error(err))
		middleware.WriteJSONError(w, fmt.Sprintf("Failed to list runs: %v", err), http.StatusInternalServerError)
		return
	}

	middleware.WriteJSONResponse(w, RunListResponse{Runs: runs, Total: len(runs)}, http.StatusOK)
}

// handleRunDetail возвращает сохраненный запуск с группами (/api/v1/duplicates/runs/{run_id})
func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		middleware.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.reportDB == nil {
		middleware.WriteJSONError(w, "Report storage is not configured", http.StatusNotFound)
		return
	}

	runUUID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/duplicates/runs/"), "/")
	if runUUID == "" {
		middleware.WriteJSONError(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	var run *database.AnalysisRun
	var err error
	if runUUID == "latest" {
		run, err = s.reportDB.GetLatestRun()
	} else {
		run, err = s.reportDB.GetRunByUUID(runUUID)
	}
	if errors.Is(err, database.ErrRunNotFound) {
		middleware.WriteJSONError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("failed to get run", zap.String("run_id", runUUID), zap.Error(err))
		middleware.WriteJSONError(w, fmt.Sprintf("Failed to get run: %v", err), http.StatusInternalServerError)
		return
	}

	groups, err := s.reportDB.GetGroups(run.ID)
	if err != nil {
		s.logger.Error("failed to get groups", zap.Int("run", run.ID), zap.Error(err))
		middleware.WriteJSONError(w, fmt.Sprintf("Failed to get groups: %v", err), http.StatusInternalServerError)
		return
	}

	middleware.WriteJSONResponse(w, RunDetailResponse{Run: run, Groups: groups}, http.StatusOK)
}
