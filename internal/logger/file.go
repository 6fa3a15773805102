package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harrison/sitecheck/internal/models"
)

// FileLogger writes a plain-text log for a long-running command (serve) to
// <logDir>/<name>-YYYYMMDD-HHMMSS.log and keeps latest.log pointing at it.
type FileLogger struct {
	mu   sync.Mutex
	file *os.File
	path string
	min  Level
}

// NewFileLogger creates logDir if needed and opens a timestamped log file.
func NewFileLogger(logDir, name, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(logDir, fmt.Sprintf("%s-%s.log", name, time.Now().Format("20060102-150405")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(path), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		file: file,
		path: path,
		min:  ParseLevel(logLevel),
	}
	fl.write(fmt.Sprintf("=== sitecheck %s ===\nStarted at: %s\n\n", name, time.Now().Format(time.RFC3339)))
	return fl, nil
}

// Path returns the log file path.
func (fl *FileLogger) Path() string {
	return fl.path
}

func (fl *FileLogger) LogTrace(message string) { fl.log(LevelTrace, message) }
func (fl *FileLogger) LogDebug(message string) { fl.log(LevelDebug, message) }
func (fl *FileLogger) LogInfo(message string)  { fl.log(LevelInfo, message) }
func (fl *FileLogger) LogWarn(message string)  { fl.log(LevelWarn, message) }
func (fl *FileLogger) LogError(message string) { fl.log(LevelError, message) }

func (fl *FileLogger) log(l Level, message string) {
	if l < fl.min {
		return
	}
	fl.write(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), l, message))
}

// LogAssessmentRecorded writes the saved assessment's headline fields.
func (fl *FileLogger) LogAssessmentRecorded(a models.ConditionAssessment) {
	fl.LogInfo(fmt.Sprintf("Recorded %s assessment %s for %s: rating %s, score %d, risk %s",
		a.Scenario.Label(), a.ID, a.PropertyID, orDash(string(a.OverallRating)), a.OverallScore, orDash(string(a.RiskLevel))))
}

// Close syncs and closes the log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.file == nil {
		return nil
	}
	if err := fl.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := fl.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	fl.file = nil
	return nil
}

func (fl *FileLogger) write(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.file != nil {
		fl.file.WriteString(message)
		fl.file.Sync()
	}
}

// MultiLogger fans every message out to each wrapped Logger.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger drops nil entries.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) LogTrace(message string) { m.each(func(l Logger) { l.LogTrace(message) }) }
func (m *MultiLogger) LogDebug(message string) { m.each(func(l Logger) { l.LogDebug(message) }) }
func (m *MultiLogger) LogInfo(message string)  { m.each(func(l Logger) { l.LogInfo(message) }) }
func (m *MultiLogger) LogWarn(message string)  { m.each(func(l Logger) { l.LogWarn(message) }) }
func (m *MultiLogger) LogError(message string) { m.each(func(l Logger) { l.LogError(message) }) }

// LogAssessmentRecorded forwards to loggers that render saved assessments.
func (m *MultiLogger) LogAssessmentRecorded(a models.ConditionAssessment) {
	m.each(func(l Logger) {
		if r, ok := l.(AssessmentRecorder); ok {
			r.LogAssessmentRecorded(a)
		}
	})
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, l := range m.loggers {
		fn(l)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
