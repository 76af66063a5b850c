package config

import (
	"fmt"
	"path/filepath"

	"github.com/cookdaemon/cookd/internal/daemon"
)

// configName is the configuration file's name within the daemon's state
// directory.
const configName = "cookd.yml"

// DefaultPath returns the path cookd reads its configuration from: the
// configuration file in the daemon's state directory, beside the lock file.
func DefaultPath() (string, error) {
	lockPath, err := daemon.LockPath()
	if err != nil {
		return "", fmt.Errorf("unable to compute daemon state directory: %w", err)
	}
	return filepath.Join(filepath.Dir(lockPath), configName), nil
}
