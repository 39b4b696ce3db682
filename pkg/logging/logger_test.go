package logging

import (
	"testing"

	"github.com/hnsexplorer/indexer/pkg/config"
)

func TestInitLoggerJSON(t *testing.T) {
	cfg := &config.LoggingConfig{Level: "INFO", Format: "json", ScalyrFormat: true}
	if err := InitLogger(cfg); err != nil {
		t.Fatalf("InitLogger() error = %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil after InitLogger")
	}
}

func TestInitLoggerText(t *testing.T) {
	cfg := &config.LoggingConfig{Level: "DEBUG", Format: "text"}
	if err := InitLogger(cfg); err != nil {
		t.Fatalf("InitLogger() error = %v", err)
	}
}

func TestInitLoggerBadLevel(t *testing.T) {
	cfg := &config.LoggingConfig{Level: "not-a-level", Format: "json"}
	if err := InitLogger(cfg); err != nil {
		t.Fatalf("InitLogger() should fall back to info on bad level, got error: %v", err)
	}
}

func TestGetLoggerFallback(t *testing.T) {
	Logger = nil
	if GetLogger() == nil {
		t.Fatal("GetLogger() should fall back to a default logger when uninitialized")
	}
}

func TestWithComponent(t *testing.T) {
	if err := InitLogger(&config.LoggingConfig{Level: "INFO", Format: "json"}); err != nil {
		t.Fatalf("InitLogger() error = %v", err)
	}
	l := WithComponent("indexer")
	if l == nil {
		t.Fatal("WithComponent() returned nil")
	}
}
