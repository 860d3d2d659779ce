package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "default config", config: nil},
		{name: "explicit config", config: &Config{Level: LevelDebug, Output: &bytes.Buffer{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.config)
			if logger == nil {
				t.Error("NewLogger() returned nil")
			}
		})
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	sessionLogger := logger.With("session", "abc123")
	sessionLogger.Info("accepted connection")

	output := buf.String()
	if !strings.Contains(output, "session=abc123") {
		t.Errorf("expected session=abc123 in output, got: %s", output)
	}

	buf.Reset()
	cmdLogger := sessionLogger.With("command", "get")
	cmdLogger.Debug("dispatching")

	output = buf.String()
	if !strings.Contains(output, "session=abc123") || !strings.Contains(output, "command=get") {
		t.Errorf("expected both fields in output, got: %s", output)
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	testErr := errors.New("wait already registered")
	logger.WithError(testErr).Error("handler rejected command")

	output := buf.String()
	if !strings.Contains(output, "wait already registered") {
		t.Errorf("expected wrapped error text in output, got: %s", output)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	if buf.Len() != 0 {
		t.Errorf("expected no output below configured level, got: %s", buf.String())
	}

	logger.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("expected warn message, got: %s", buf.String())
	}
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))

	Debug("debug message", "key", "value")
	output := buf.String()
	if !strings.Contains(output, "debug message") || !strings.Contains(output, "key=value") {
		t.Errorf("expected debug message with key=value, got: %s", output)
	}

	buf.Reset()
	Info("info message")
	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("expected info message, got: %s", buf.String())
	}

	buf.Reset()
	Warn("warning message")
	if !strings.Contains(buf.String(), "warning message") {
		t.Errorf("expected warning message, got: %s", buf.String())
	}

	buf.Reset()
	Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected error message, got: %s", buf.String())
	}
}
