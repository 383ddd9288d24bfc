package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TemplateDir != "templates" || cfg.Escaper != "html" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Watch.Port != 5859 {
		t.Fatalf("unexpected default watch port: %d", cfg.Watch.Port)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.TemplateDir = "views"
	cfg.Escaper = "raw"
	cfg.Watch.Port = 9000

	if err := Save(cfg, dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := filepath.Abs(dir); err != nil {
		t.Fatalf("filepath.Abs: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.TemplateDir != "views" || loaded.Escaper != "raw" || loaded.Watch.Port != 9000 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestApplyDefaultsFillsPartialConfig(t *testing.T) {
	dir := t.TempDir()
	partial := &Config{TemplateDir: "tpl"}
	if err := Save(partial, dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.TemplateDir != "tpl" {
		t.Fatalf("explicit value overwritten: %+v", loaded)
	}
	if loaded.Escaper != "html" {
		t.Fatalf("missing field not defaulted: %+v", loaded)
	}
	if loaded.Cache == nil || loaded.Cache.MaxSize != 1<<30 {
		t.Fatalf("nested defaults not applied: %+v", loaded.Cache)
	}
}
