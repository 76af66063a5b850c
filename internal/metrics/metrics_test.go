package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

func freePort(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := listener.Addr().String()
	listener.Close()
	return addr
}

func TestRegistryCountersAndServe(t *testing.T) {
	r := New()
	r.IncJournalRecordsRead()
	r.IncFilesTombstoned()
	r.IncFilesRevived()
	r.IncCommandsCreated()
	r.ObserveScanDuration(1.5)
	r.SetRescanQueueDepth(3)

	addr := freePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 1)
	go func() { errs <- r.Serve(ctx, addr) }()

	var body string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
		if err == nil {
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			body = string(data)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if !strings.Contains(body, "cookd_journal_records_read_total") {
		t.Errorf("expected /metrics output to contain the journal counter, got:\n%s", body)
	}
	if !strings.Contains(body, "cookd_rescan_queue_depth 3") {
		t.Errorf("expected /metrics output to contain the rescan queue depth, got:\n%s", body)
	}

	cancel()
	select {
	case <-errs:
	case <-time.After(2 * time.Second):
		t.Error("Serve did not return after its context was canceled")
	}
}
