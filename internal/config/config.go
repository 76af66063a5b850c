// Package config loads the YAML-based configuration for the cookd daemon,
// following the teacher's pkg/encoding/yaml.go + pkg/configuration pattern.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RepoConfig describes a single repo to index, as declared in the
// configuration file's repos list.
type RepoConfig struct {
	// Name is the repo's unique label within the drive it belongs to.
	Name string `yaml:"name"`
	// Path is the absolute root path of the repo on disk.
	Path string `yaml:"path"`
}

// DaemonConfig holds the options that govern the monitor loop and the
// initial scan's worker pool.
type DaemonConfig struct {
	// MonitorInterval is the delay between successive journal polls in the
	// steady-state loop.
	MonitorInterval time.Duration `yaml:"monitorInterval"`
	// ScanWorkersPerDrive is the number of goroutines draining each drive's
	// directory-enumeration queue during the initial scan.
	ScanWorkersPerDrive int `yaml:"scanWorkersPerDrive"`
	// MetricsAddress is the address the Prometheus /metrics endpoint binds
	// to. Empty disables the metrics server.
	MetricsAddress string `yaml:"metricsAddress"`
}

// defaultDaemonConfig holds the values Load uses when a configuration file
// is missing or omits the daemon section entirely (and, field by field, when
// the section leaves MonitorInterval or ScanWorkersPerDrive unset).
func defaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		MonitorInterval:     time.Second,
		ScanWorkersPerDrive: 4,
	}
}

// Configuration is the top-level YAML configuration object for cookd.
type Configuration struct {
	// Repos are the repos to register against the process's single
	// "local" drive, backed by the polling journal source, at startup.
	Repos []RepoConfig `yaml:"repos"`
	// Daemon holds daemon-wide tuning options.
	Daemon DaemonConfig `yaml:"daemon"`
}

// Load reads and decodes a YAML configuration file at path. A missing file
// is not an error: it yields a Configuration with no repos and default
// daemon options, mirroring the teacher's pass-through of os.IsNotExist.
func Load(path string) (*Configuration, error) {
	result := &Configuration{Daemon: defaultDaemonConfig()}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("unable to load configuration file: %w", err)
	}

	decoded := struct {
		Repos  []RepoConfig  `yaml:"repos"`
		Daemon *DaemonConfig `yaml:"daemon"`
	}{}
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("unable to unmarshal configuration: %w", err)
	}

	result.Repos = decoded.Repos
	if decoded.Daemon != nil {
		result.Daemon = *decoded.Daemon
		if result.Daemon.MonitorInterval <= 0 {
			result.Daemon.MonitorInterval = time.Second
		}
		if result.Daemon.ScanWorkersPerDrive <= 0 {
			result.Daemon.ScanWorkersPerDrive = 4
		}
	}

	for i, repo := range result.Repos {
		if repo.Name == "" {
			return nil, fmt.Errorf("repo at index %d is missing a name", i)
		}
		if repo.Path == "" {
			return nil, fmt.Errorf("repo %q is missing a path", repo.Name)
		}
	}

	return result, nil
}
