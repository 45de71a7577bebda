package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	active    Config
	logDir    string
	extraSink io.Writer
)

// Configure installs the logging configuration and the default directory
// for file sinks. Loggers created earlier are rebuilt on next use.
func Configure(cfg Config, dir string) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	active = cfg
	logDir = dir
	loggers = make(map[string]*logrus.Entry)
}

// SetOutput adds w as an additional sink for every logger. Passing nil removes it.
func SetOutput(w io.Writer) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	extraSink = w
	loggers = make(map[string]*logrus.Entry)
}

// FilePath returns the file a component logs to today, or "" when the file
// sink is off.
func FilePath(component string) string {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	return filePathLocked(component, time.Now())
}

func filePathLocked(component string, now time.Time) string {
	if active.File.Disabled {
		return ""
	}
	if active.File.Path != "" {
		return expandPath(active.File.Path)
	}
	if logDir == "" {
		return ""
	}
	return filepath.Join(logDir, fmt.Sprintf("%s-%s.log", component, now.Format("2006-01-02")))
}

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()
	logCfg := active

	levelStr := "info"
	if os.Getenv("RUNWATCH_LOG_LEVEL") != "" {
		levelStr = os.Getenv("RUNWATCH_LOG_LEVEL")
	} else if logCfg.Level != "" {
		levelStr = logCfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("RUNWATCH_LOG_CALLER") == "true" || logCfg.ReportCaller {
		logger.SetReportCaller(true)
	}

	switch logCfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: logCfg.Format})
	}

	var writers []io.Writer

	if logFilePath := filePathLocked(component, time.Now()); logFilePath != "" {
		dir := filepath.Dir(logFilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Warnf("Failed to create log directory %s: %v", dir, err)
		} else if file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			logger.Warnf("Failed to open log file %s: %v", logFilePath, err)
		} else {
			writers = append(writers, file)
		}
	}

	stderrMode := "auto"
	if logCfg.Format.StructuredToStderr != "" {
		stderrMode = logCfg.Format.StructuredToStderr
	}

	shouldLogToStderr := false
	switch stderrMode {
	case "always":
		shouldLogToStderr = true
	case "never":
	default:
		// Interactive terminals get the pretty console output instead,
		// unless debugging.
		isDebug := logger.GetLevel() >= logrus.DebugLevel
		isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		shouldLogToStderr = isDebug || !isInteractive
	}
	if shouldLogToStderr {
		writers = append(writers, os.Stderr)
	}
	if extraSink != nil {
		writers = append(writers, extraSink)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// expandPath expands tilde in file paths
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
