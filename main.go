package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"dedupserver/database"
	"dedupserver/server"
)

func main() {
	// Загружаем конфигурацию
	config, err := server.LoadConfig(server.DefaultConfigPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := server.NewLogger(config.LogLevel, config.LogFormat)
	if err != nil {
		log.Fatalf("Ошибка создания логгера: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("starting duplicate detection server")

	// База отчетов необязательна
	var reportDB *database.DB
	if config.ReportDatabasePath != "" {
		reportDB, err = database.NewDBWithConfig(config.ReportDatabasePath, config.DBConfig())
		if err != nil {
			logger.Fatal("failed to open report database",
				zap.String("path", config.ReportDatabasePath),
				zap.Error(err))
		}
		defer reportDB.Close()
		logger.Info("report storage enabled", zap.String("path", config.ReportDatabasePath))
	}

	srv := server.NewServerWithConfig(config, reportDB, logger)

	// Запускаем сервер в горутине
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", config.Port))

	// Ожидаем сигнал завершения
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("shutdown signal received", zap.String("signal", sig.String()))

	// Останавливаем сервер с таймаутом
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
