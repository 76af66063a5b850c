package daemon

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/cookdaemon/cookd/internal/engine"
	"github.com/cookdaemon/cookd/internal/ipc"
	"github.com/cookdaemon/cookd/internal/logging"
)

// Serve accepts control connections on listener until ctx is canceled,
// dispatching each to handleConn. startedAt is reported back verbatim in
// status responses so the CLI can render an uptime.
func Serve(ctx context.Context, listener net.Listener, fs *engine.FileSystem, startedAt time.Time, logger *logging.Logger) {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn(err)
			continue
		}
		go handleConn(conn, fs, startedAt, logger)
	}
}

func handleConn(conn net.Conn, fs *engine.FileSystem, startedAt time.Time, logger *logging.Logger) {
	defer conn.Close()

	req, err := ipc.ReadRequest(conn)
	if err != nil {
		return
	}

	switch req.Command {
	case "status":
		ipc.WriteResponse(conn, ipc.Response{
			OK: true,
			Fields: map[string]string{
				"state":        fs.State().String(),
				"started_at":   startedAt.Format(time.RFC3339),
				"rescan_depth": strconv.Itoa(fs.RescanQueueDepth()),
			},
		})
	case "add-repo":
		drive, ok := req.Args["drive"]
		if !ok || drive == "" {
			drive = "local"
		}
		_, err := fs.AddRepo(drive, req.Args["name"], req.Args["path"])
		if err != nil {
			ipc.WriteResponse(conn, ipc.Response{OK: false, Error: err.Error()})
			return
		}
		ipc.WriteResponse(conn, ipc.Response{OK: true})
	default:
		ipc.WriteResponse(conn, ipc.Response{OK: false, Error: "unknown command: " + req.Command})
	}
}
