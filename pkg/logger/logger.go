// Package logger builds the process-wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmLog "github.com/charmbracelet/log"

	"mindroute/pkg/config"
)

const (
	formatText = "text"
	formatJSON = "json"

	envLogFormat    = "MINDROUTER_LOG_FORMAT"
	envLogLevel     = "MINDROUTER_LOG_LEVEL"
	envLogAddSource = "MINDROUTER_LOG_ADD_SOURCE"
)

// settings is the logging configuration after env overrides are applied.
type settings struct {
	format    string
	level     slog.Level
	addSource bool
}

// New builds the process logger. Output goes to stderr so stdout stays reserved
// for the conversation itself.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	return newWithWriter(cfg, os.Stderr)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newWithWriter(cfg config.LoggingConfig, writer io.Writer) (*slog.Logger, error) {
	s, err := resolveSettings(cfg, os.Getenv)
	if err != nil {
		return nil, err
	}

	if s.format == formatJSON {
		return slog.New(newLineHandler(writer, s.level, s.addSource)), nil
	}

	pretty := charmLog.NewWithOptions(writer, charmLog.Options{
		Level:           charmLevel(s.level),
		ReportTimestamp: true,
		ReportCaller:    s.addSource,
		Formatter:       charmLog.TextFormatter,
	})
	return slog.New(pretty), nil
}

// resolveSettings layers MINDROUTER_LOG_* variables over cfg.
func resolveSettings(cfg config.LoggingConfig, getenv func(string) string) (settings, error) {
	format := override(cfg.Format, getenv(envLogFormat), formatText)
	if format != formatText && format != formatJSON {
		return settings{}, fmt.Errorf("unsupported log format %q", format)
	}

	levelText := override(cfg.Level, getenv(envLogLevel), "info")
	level, err := parseLevel(levelText)
	if err != nil {
		return settings{}, err
	}

	addSource := cfg.AddSource
	if env := strings.TrimSpace(getenv(envLogAddSource)); env != "" {
		addSource = parseBool(env)
	}

	return settings{format: format, level: level, addSource: addSource}, nil
}

// override returns the lowercased env value, else the configured value, else fallback.
func override(configured string, env string, fallback string) string {
	for _, candidate := range []string{env, configured} {
		if value := strings.ToLower(strings.TrimSpace(candidate)); value != "" {
			return value
		}
	}
	return fallback
}

func parseLevel(levelText string) (slog.Level, error) {
	switch levelText {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level %q", levelText)
	}
}

func charmLevel(level slog.Level) charmLog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmLog.DebugLevel
	case level <= slog.LevelInfo:
		return charmLog.InfoLevel
	case level <= slog.LevelWarn:
		return charmLog.WarnLevel
	default:
		return charmLog.ErrorLevel
	}
}

func parseBool(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
