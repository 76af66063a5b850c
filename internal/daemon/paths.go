package daemon

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	lockName     = "daemon.lock"
	endpointName = "daemon.sock"
	// stateDirName is the directory, relative to the user's home directory,
	// that holds the daemon's lock file and IPC endpoint.
	stateDirName = ".cookd"
)

// stateDirectory returns the daemon's state directory, creating it if
// necessary. COOKD_HOME overrides the default of $HOME/.cookd, mirroring
// the teacher's own environment-variable escape hatch for its equivalent
// directory.
func stateDirectory() (string, error) {
	if override := os.Getenv("COOKD_HOME"); override != "" {
		if err := os.MkdirAll(override, 0700); err != nil {
			return "", fmt.Errorf("unable to create daemon state directory: %w", err)
		}
		return override, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to compute home directory: %w", err)
	}
	path := filepath.Join(home, stateDirName)
	if err := os.MkdirAll(path, 0700); err != nil {
		return "", fmt.Errorf("unable to create daemon state directory: %w", err)
	}
	return path, nil
}

func subpath(name string) (string, error) {
	dir, err := stateDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// LockPath computes the path to the daemon lock file.
func LockPath() (string, error) {
	return subpath(lockName)
}

// EndpointPath computes the path to the daemon's UNIX domain socket inside
// the state directory. The Windows listener does not use it; it listens on
// a fixed named pipe instead (see ipc_windows.go).
func EndpointPath() (string, error) {
	return subpath(endpointName)
}
