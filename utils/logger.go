package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	loggerMu sync.RWMutex
	logger   = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logFile  *os.File
)

// SetupLogger направляет логи в stdout и, если путь задан, дополнительно в файл
func SetupLogger(path string) error {
	var w io.Writer = os.Stdout
	var f *os.File
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		var err error
		f, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{AddSource: true, Level: slog.LevelDebug}))
	return nil
}

// SetLogger подменяет логгер (используется в тестах)
func SetLogger(l *slog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Logger возвращает текущий структурированный логгер
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// LogInfo логирует информационное сообщение
func LogInfo(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// LogWarn логирует предупреждение
func LogWarn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// LogError логирует сообщение об ошибке
func LogError(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// LogDebug логирует отладочное сообщение
func LogDebug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// LogOperation логирует операцию с длительностью
func LogOperation(operation string, startTime time.Time, err error) {
	duration := time.Since(startTime)
	if err != nil {
		LogError("operation failed", "operation", operation, "duration", duration, "error", err)
	} else {
		LogInfo("operation completed", "operation", operation, "duration", duration)
	}
}
