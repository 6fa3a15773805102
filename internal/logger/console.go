// Package logger provides leveled logging for sitecheck.
//
// Every line carries an [HH:MM:SS] timestamp and a level tag. The console
// logger colors its output when writing to a terminal; the file logger keeps
// a plain copy under the sitecheck home. Implementations are thread-safe.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/sitecheck/internal/models"
)

// Logger is the leveled logging surface the stores and commands depend on.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

// AssessmentRecorder is implemented by loggers that report saved assessments.
type AssessmentRecorder interface {
	LogAssessmentRecorded(a models.ConditionAssessment)
}

// ConsoleLogger writes timestamped lines to a writer. A nil writer discards
// everything.
type ConsoleLogger struct {
	mu    sync.Mutex
	w     io.Writer
	min   Level
	color bool
}

// NewConsoleLogger creates a ConsoleLogger filtering below logLevel.
// Unknown or empty levels mean info.
func NewConsoleLogger(w io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		w:     w,
		min:   ParseLevel(logLevel),
		color: colorable(w),
	}
}

// colorable is true only for the process's own stdout or stderr.
// color.NoColor already folds in NO_COLOR and non-TTY detection.
func colorable(w io.Writer) bool {
	if w != os.Stdout && w != os.Stderr {
		return false
	}
	return !color.NoColor
}

func (cl *ConsoleLogger) LogTrace(message string) { cl.log(LevelTrace, message) }
func (cl *ConsoleLogger) LogDebug(message string) { cl.log(LevelDebug, message) }
func (cl *ConsoleLogger) LogInfo(message string)  { cl.log(LevelInfo, message) }
func (cl *ConsoleLogger) LogWarn(message string)  { cl.log(LevelWarn, message) }
func (cl *ConsoleLogger) LogError(message string) { cl.log(LevelError, message) }

func (cl *ConsoleLogger) enabled(l Level) bool {
	return cl.w != nil && l >= cl.min
}

func (cl *ConsoleLogger) log(l Level, message string) {
	if !cl.enabled(l) {
		return
	}
	tag := l.String()
	if cl.color {
		tag = l.colored()
	}
	cl.writeLine(fmt.Sprintf("[%s] %s", tag, message))
}

// writeLine prefixes line with the timestamp and writes it under the lock.
func (cl *ConsoleLogger) writeLine(line string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	fmt.Fprintf(cl.w, "[%s] %s\n", timestamp(), line)
}

// LogAssessmentRecorded reports a saved assessment at info level:
// "Recorded <scenario> assessment: rating <R>, score <S>, risk <L>".
func (cl *ConsoleLogger) LogAssessmentRecorded(a models.ConditionAssessment) {
	if !cl.enabled(LevelInfo) {
		return
	}
	verb, scenario := "Recorded", a.Scenario.Label()
	if cl.color {
		verb = color.GreenString(verb)
		scenario = color.New(color.Bold).Sprint(scenario)
	}
	cl.writeLine(fmt.Sprintf("%s %s assessment: rating %s, score %d, risk %s",
		verb, scenario, orDash(string(a.OverallRating)), a.OverallScore, orDash(string(a.RiskLevel))))
}

// LogProgress reports checklist completion as "<label>: [====      ] 4/10 (40%)".
func (cl *ConsoleLogger) LogProgress(label string, completed, total int) {
	if !cl.enabled(LevelInfo) {
		return
	}
	bar := NewProgressBar(total, 10, cl.color)
	bar.Update(completed)
	cl.writeLine(label + ": " + bar.Render())
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// NoOpLogger discards every message.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(message string) {}
func (n *NoOpLogger) LogDebug(message string) {}
func (n *NoOpLogger) LogInfo(message string)  {}
func (n *NoOpLogger) LogWarn(message string)  {}
func (n *NoOpLogger) LogError(message string) {}
