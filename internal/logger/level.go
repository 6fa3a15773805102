package logger

import (
	"strings"

	"github.com/fatih/color"
)

// Level orders log messages from most to least verbose.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

var levelColors = [...]color.Attribute{color.FgHiBlack, color.FgCyan, color.FgBlue, color.FgYellow, color.FgRed}

// ParseLevel maps trace, debug, info, warn or error (any case) to a Level.
// Anything else is treated as info.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == name {
			return Level(i)
		}
	}
	return LevelInfo
}

func (l Level) String() string {
	if l < LevelTrace || l > LevelError {
		return "INFO"
	}
	return levelNames[l]
}

func (l Level) colored() string {
	if l < LevelTrace || l > LevelError {
		return l.String()
	}
	return color.New(levelColors[l]).Sprint(l.String())
}
