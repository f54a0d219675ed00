package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("scan") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("scan") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("scan") }, true},
		{"warn at error", log.ErrorLevel, func(l *log.Logger) { l.Warn("redis unavailable") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("Scanned repo", "nodes", 42)

	out := buf.String()
	if !regexp.MustCompile(`Scanned repo \(\d+(\.\d+)?[µm]?s\)`).MatchString(out) {
		t.Errorf("progress.done() output = %q, want message with elapsed time", out)
	}
	if !strings.Contains(out, "nodes=42") {
		t.Errorf("progress.done() output = %q, want nodes=42", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext() without a logger should return log.Default()")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	got := loggerFromContext(withLogger(context.Background(), custom))
	if got != custom {
		t.Fatal("loggerFromContext() did not return the attached logger")
	}
	got.Info("watching")
	if buf.Len() == 0 {
		t.Error("attached logger wrote nothing")
	}
}
