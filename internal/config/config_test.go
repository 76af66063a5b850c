package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Repos) != 0 {
		t.Errorf("expected no repos for a missing config file, got %v", cfg.Repos)
	}
	if cfg.Daemon.MonitorInterval != time.Second {
		t.Errorf("MonitorInterval = %v, expected the 1s default", cfg.Daemon.MonitorInterval)
	}
	if cfg.Daemon.ScanWorkersPerDrive != 4 {
		t.Errorf("ScanWorkersPerDrive = %d, expected the default of 4", cfg.Daemon.ScanWorkersPerDrive)
	}
}

func TestLoadValidConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookd.yml")
	contents := `
repos:
  - name: main
    path: /srv/main
daemon:
  monitorInterval: 5s
  scanWorkersPerDrive: 8
  metricsAddress: ":9090"
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Repos) != 1 || cfg.Repos[0].Name != "main" || cfg.Repos[0].Path != "/srv/main" {
		t.Errorf("Repos = %+v, unexpected", cfg.Repos)
	}
	if cfg.Daemon.MonitorInterval != 5*time.Second {
		t.Errorf("MonitorInterval = %v, expected 5s", cfg.Daemon.MonitorInterval)
	}
	if cfg.Daemon.ScanWorkersPerDrive != 8 {
		t.Errorf("ScanWorkersPerDrive = %d, expected 8", cfg.Daemon.ScanWorkersPerDrive)
	}
	if cfg.Daemon.MetricsAddress != ":9090" {
		t.Errorf("MetricsAddress = %q, expected %q", cfg.Daemon.MetricsAddress, ":9090")
	}
}

func TestLoadRejectsRepoMissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookd.yml")
	contents := "repos:\n  - path: /srv/main\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected Load to reject a repo entry missing a name")
	}
}

func TestLoadRejectsRepoMissingPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookd.yml")
	contents := "repos:\n  - name: main\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected Load to reject a repo entry missing a path")
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookd.yml")
	if err := os.WriteFile(path, []byte("repos: [this is not valid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected Load to reject malformed YAML")
	}
}

func TestLoadFillsPartialDaemonDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookd.yml")
	// Only scanWorkersPerDrive is set; monitorInterval should still fall
	// back to its default.
	contents := "daemon:\n  scanWorkersPerDrive: 2\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Daemon.MonitorInterval != time.Second {
		t.Errorf("MonitorInterval = %v, expected the 1s default to survive a partial daemon block", cfg.Daemon.MonitorInterval)
	}
	if cfg.Daemon.ScanWorkersPerDrive != 2 {
		t.Errorf("ScanWorkersPerDrive = %d, expected 2", cfg.Daemon.ScanWorkersPerDrive)
	}
}
