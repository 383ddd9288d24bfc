package dataload

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromFileEmptyPathYieldsEmptyData(t *testing.T) {
	d, err := FromFile("")
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if !d.Value("anything").IsNull() {
		t.Fatal("expected empty environment to miss every lookup")
	}
}

func TestFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.yaml")
	if err := os.WriteFile(path, []byte("name: Ada\ncount: 3\ntags:\n  - x\n  - y\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	d, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if d.Value("name").ToString() != "Ada" {
		t.Fatalf("got name=%q", d.Value("name").ToString())
	}
	if d.Value("count").ToInt() != 3 {
		t.Fatalf("got count=%d", d.Value("count").ToInt())
	}
	if d.Value("tags").MemberCount() != 2 {
		t.Fatalf("got tags count=%d", d.Value("tags").MemberCount())
	}
}

func TestFromFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	if err := os.WriteFile(path, []byte(`{"name":"Grace","active":true}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	d, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if d.Value("name").ToString() != "Grace" {
		t.Fatalf("got name=%q", d.Value("name").ToString())
	}
	if !d.Value("active").ToBool() {
		t.Fatal("expected active=true")
	}
}

func TestFromFileMissingPathErrors(t *testing.T) {
	if _, err := FromFile("/nonexistent/does-not-exist.yaml"); err == nil {
		t.Fatal("expected an error for a missing data file")
	}
}
