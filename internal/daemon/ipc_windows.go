//go:build windows

package daemon

import (
	"context"
	"net"
	"time"

	winio "github.com/Microsoft/go-winio"
)

const pipeName = `\\.\pipe\cookd-daemon`

// DialTimeout connects to a running daemon's IPC endpoint.
func DialTimeout(timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return winio.DialPipeContext(ctx, pipeName)
}

// NewListener creates the daemon's IPC listener.
func NewListener() (net.Listener, error) {
	return winio.ListenPipe(pipeName, &winio.PipeConfig{
		SecurityDescriptor: "D:P(A;;GA;;;SY)(A;;GA;;;BA)(A;;GA;;;WD)",
		MessageMode:        false,
		InputBufferSize:    4096,
		OutputBufferSize:   4096,
	})
}
