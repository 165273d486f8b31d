package common

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.Store.Path != "invoice_templates.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if cfg.Extractor.MinConfidence != 0.60 {
		t.Errorf("min confidence = %v", cfg.Extractor.MinConfidence)
	}
	if cfg.Extractor.VendorScanMax != 5 {
		t.Errorf("vendor scan max = %d", cfg.Extractor.VendorScanMax)
	}
	if cfg.AI.Model != "gpt-4o-mini" {
		t.Errorf("ai model = %q", cfg.AI.Model)
	}
	if cfg.AI.Timeout != 120*time.Second {
		t.Errorf("ai timeout = %v", cfg.AI.Timeout)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("TEMPLATE_DB_PATH", "/tmp/x.db")
	t.Setenv("MIN_CONFIDENCE", "0.75")
	t.Setenv("WATCH_ROOTS", "/in/a, /in/b ,")
	t.Setenv("AI_MAX_ATTEMPTS", "5")

	cfg := LoadConfig()
	if cfg.Store.Path != "/tmp/x.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if cfg.Extractor.MinConfidence != 0.75 {
		t.Errorf("min confidence = %v", cfg.Extractor.MinConfidence)
	}
	if len(cfg.Server.WatchRoots) != 2 || cfg.Server.WatchRoots[1] != "/in/b" {
		t.Errorf("watch roots = %v", cfg.Server.WatchRoots)
	}
	if cfg.AI.MaxAttempts != 5 {
		t.Errorf("ai max attempts = %d", cfg.AI.MaxAttempts)
	}
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MIN_CONFIDENCE", "lots")
	t.Setenv("AI_MAX_ATTEMPTS", "many")
	t.Setenv("TEMPLATE_DB_BUSY_TIMEOUT", "soon")

	cfg := LoadConfig()
	if cfg.Extractor.MinConfidence != 0.60 {
		t.Errorf("min confidence = %v", cfg.Extractor.MinConfidence)
	}
	if cfg.AI.MaxAttempts != 3 {
		t.Errorf("ai max attempts = %d", cfg.AI.MaxAttempts)
	}
	if cfg.Store.BusyTimeout != 5*time.Second {
		t.Errorf("busy timeout = %v", cfg.Store.BusyTimeout)
	}
}

func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	cfg.Store.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty store path accepted")
	}

	cfg = LoadConfig()
	cfg.Extractor.MinConfidence = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("out-of-range confidence accepted")
	}
}
