package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"dedupserver/database"
	"dedupserver/quality"
	"dedupserver/server/middleware"
)

// Server HTTP сервер анализа дубликатов мастер-данных
type Server struct {
	config     *Config
	logger     *zap.Logger
	analyzer   *quality.DuplicateAnalyzer
	reportDB   *database.DB // nil, если сохранение отчетов выключено
	handler    http.Handler
	httpServer *http.Server
	startTime  time.Time
}

// NewServerWithConfig создает новый сервер с конфигурацией.
// reportDB может быть nil.
func NewServerWithConfig(config *Config, reportDB *database.DB, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config:    config,
		logger:    logger,
		analyzer:  quality.NewDuplicateAnalyzer(logger.Named("analyzer"), config.AnalyzerOptions()),
		reportDB:  reportDB,
		startTime: time.Now(),
	}
	s.handler = s.routes()
	return s
}

// Start запускает сервер и блокируется до остановки
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("port", s.config.Port))

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Handler возвращает http.Handler с маршрутами и middleware
func (s *Server) Handler() http.Handler {
	return s.handler
}

// routes собирает маршруты и цепочку middleware; вызывается один раз при создании сервера
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/duplicates/analyze", s.handleAnalyzeDuplicates)
	mux.HandleFunc("/api/v1/duplicates/upload", s.handleUploadDuplicates)
	mux.HandleFunc("/api/v1/duplicates/runs", s.handleListRuns)
	mux.HandleFunc("/api/v1/duplicates/runs/", s.handleRunDetail)

	handler := middleware.RequestLogger(s.logger.Named("http"))(mux)
	handler = middleware.RecoverMiddleware(s.logger)(handler)
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.RequestID(handler)

	return handler
}

// ServeHTTP реализует интерфейс http.Handler для использования в тестах
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Shutdown корректно останавливает сервер
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// handleHealth возвращает состояние сервера
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		middleware.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	workers := s.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	middleware.WriteJSONResponse(w, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		ReportStorage: s.reportDB != nil,
		Workers:       workers,
	}, http.StatusOK)
}
