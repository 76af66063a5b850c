//go:build !windows

package daemon

import (
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
)

// DialTimeout connects to a running daemon's IPC endpoint.
func DialTimeout(timeout time.Duration) (net.Conn, error) {
	path, err := EndpointPath()
	if err != nil {
		return nil, errors.Wrap(err, "unable to compute socket path")
	}
	return net.DialTimeout("unix", path, timeout)
}

// NewListener creates the daemon's IPC listener. The caller must already
// hold the daemon lock, since a stale socket from a crashed daemon is
// removed unconditionally.
func NewListener() (net.Listener, error) {
	path, err := EndpointPath()
	if err != nil {
		return nil, errors.Wrap(err, "unable to compute socket path")
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "unable to remove stale socket")
	}
	return net.Listen("unix", path)
}
