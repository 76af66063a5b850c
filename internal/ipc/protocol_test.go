package ipc

import (
	"net"
	"testing"
)

func TestCallRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		req, err := ReadRequest(server)
		if err != nil {
			t.Error(err)
			return
		}
		if req.Command != "status" {
			t.Errorf("ReadRequest() command = %q, expected %q", req.Command, "status")
			return
		}
		WriteResponse(server, Response{OK: true, Fields: map[string]string{"state": "ready"}})
	}()

	resp, err := Call(client, Request{Command: "status"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.OK {
		t.Errorf("Response.OK = false, expected true")
	}
	if resp.Fields["state"] != "ready" {
		t.Errorf("Fields[\"state\"] = %q, expected %q", resp.Fields["state"], "ready")
	}
}

func TestCallPropagatesError(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		req, err := ReadRequest(server)
		if err != nil {
			t.Error(err)
			return
		}
		WriteResponse(server, Response{OK: false, Error: "no such drive " + req.Args["drive"]})
	}()

	resp, err := Call(client, Request{Command: "add-repo", Args: map[string]string{"drive": "missing"}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.OK {
		t.Error("Response.OK = true, expected false")
	}
	if resp.Error == "" {
		t.Error("expected a non-empty Error field")
	}
}
