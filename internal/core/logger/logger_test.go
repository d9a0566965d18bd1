package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"chatshop/internal/core/config"
)

func TestBuildWritesRotatedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bot.log")
	l, cleanup := Build(Options{
		Level:  "debug",
		JSON:   true,
		Rotate: config.Rotate{Enable: true, Filename: file, MaxSizeMB: 1},
	})
	l.Info("conversation started")
	cleanup()

	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "conversation started") {
		t.Fatalf("log file missing entry: %s", b)
	}
}

func TestBuildFallsBackToInfo(t *testing.T) {
	l, cleanup := Build(Options{Level: "loud"})
	defer cleanup()
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug should be disabled for unknown level")
	}
	if !l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info should be enabled")
	}
}

func TestToStdLogger(t *testing.T) {
	l, cleanup := Build(Options{Level: "info"})
	defer cleanup()
	std := ToStdLogger(l, zapcore.WarnLevel)
	if std == nil {
		t.Fatal("nil std logger")
	}
	std.Printf("telegram: %s", "retrying")
}
