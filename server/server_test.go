package server

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quickft/quickft/config"
	"github.com/quickft/quickft/connection"
	"github.com/quickft/quickft/fsutil"
	"github.com/quickft/quickft/logging"
	"github.com/quickft/quickft/result"
	"github.com/quickft/quickft/socket"
	"github.com/quickft/quickft/wire"
)

func startTestServer(t *testing.T, root string) (*Server, uint16) {
	t.Helper()
	cfg := config.Default()
	cfg.Port = 0
	cfg.Root = root
	srv := NewWithFS(cfg, fsutil.NewOS(), logging.Nop())

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	go srv.Serve()
	t.Cleanup(srv.Stop)

	return srv, uint16(srv.Addr().(*net.TCPAddr).Port)
}

func dialAndRoundTrip(t *testing.T, port uint16, request []byte, allowed wire.Mask) (wire.Header, []byte) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := socket.Dial(ctx, "127.0.0.1", port)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := connection.SendFrame(conn, 2*time.Second, request); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	if err := connection.AwaitAck(conn, 2*time.Second); err != nil {
		t.Fatalf("AwaitAck: %v", err)
	}
	h, body, err := connection.RecvFrame(conn, 2*time.Second, allowed)
	if err != nil {
		t.Fatalf("RecvFrame: %v", err)
	}
	return h, body
}

func fullFrame(request []byte, h wire.Header, body []byte) []byte {
	return append(append([]byte{}, request[:wire.HeaderLen]...), body...)
}

func TestSendReceiveDeleteRoundTrip(t *testing.T) {
	root := t.TempDir()
	_, port := startTestServer(t, root)

	content := []byte("hello, quickft")
	sendReq := wire.BuildSendRequest("greeting.txt", content)
	h, body := dialAndRoundTrip(t, port, sendReq, wire.KindSend)
	code, err := wire.ParseResultOnlyResponse(fullFrame(sendReq, h, body), h)
	if err != nil {
		t.Fatalf("ParseResultOnlyResponse: %v", err)
	}
	if code != result.Success {
		t.Fatalf("send result = %v, want Success", code)
	}

	onDisk, err := os.ReadFile(filepath.Join(root, "greeting.txt"))
	if err != nil {
		t.Fatalf("read server file: %v", err)
	}
	if string(onDisk) != string(content) {
		t.Fatalf("server file = %q, want %q", onDisk, content)
	}

	recvReq := wire.BuildReceiveRequest("greeting.txt")
	h, body = dialAndRoundTrip(t, port, recvReq, wire.KindReceive)
	rcode, rcontent, err := wire.ParseReceiveResponse(fullFrame(recvReq, h, body), h)
	if err != nil {
		t.Fatalf("ParseReceiveResponse: %v", err)
	}
	if rcode != result.Success {
		t.Fatalf("receive result = %v, want Success", rcode)
	}
	if len(rcontent) == 0 {
		t.Fatal("receive response carried no content")
	}

	delReq := wire.BuildDeleteRequest("greeting.txt")
	h, body = dialAndRoundTrip(t, port, delReq, wire.KindDelete)
	dcode, err := wire.ParseResultOnlyResponse(fullFrame(delReq, h, body), h)
	if err != nil {
		t.Fatalf("ParseResultOnlyResponse: %v", err)
	}
	if dcode != result.Success {
		t.Fatalf("delete result = %v, want Success", dcode)
	}
	if _, err := os.Stat(filepath.Join(root, "greeting.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected greeting.txt to be gone, stat err = %v", err)
	}
}

func TestDeleteMissingFileReturnsFileNotFound(t *testing.T) {
	root := t.TempDir()
	_, port := startTestServer(t, root)

	req := wire.BuildDeleteRequest("no-such-file")
	h, body := dialAndRoundTrip(t, port, req, wire.KindDelete)
	code, err := wire.ParseResultOnlyResponse(fullFrame(req, h, body), h)
	if err != nil {
		t.Fatalf("ParseResultOnlyResponse: %v", err)
	}
	if code != result.FileNotFound {
		t.Fatalf("result = %v, want FileNotFound", code)
	}
}

func TestReceiveMissingFileReturnsFileNotFound(t *testing.T) {
	root := t.TempDir()
	_, port := startTestServer(t, root)

	req := wire.BuildReceiveRequest("no-such-file")
	h, body := dialAndRoundTrip(t, port, req, wire.KindReceive)
	code, _, err := wire.ParseReceiveResponse(fullFrame(req, h, body), h)
	if err != nil {
		t.Fatalf("ParseReceiveResponse: %v", err)
	}
	if code != result.FileNotFound {
		t.Fatalf("result = %v, want FileNotFound", code)
	}
}

func TestSendRejectsPathEscapingRoot(t *testing.T) {
	root := t.TempDir()
	_, port := startTestServer(t, root)

	req := wire.BuildSendRequest("../escape.txt", []byte("x"))
	h, body := dialAndRoundTrip(t, port, req, wire.KindSend)
	code, err := wire.ParseResultOnlyResponse(fullFrame(req, h, body), h)
	if err != nil {
		t.Fatalf("ParseResultOnlyResponse: %v", err)
	}
	if code.IsSuccess() {
		t.Fatal("expected a path-escape attempt to be rejected")
	}
}

func TestConcurrentSends(t *testing.T) {
	root := t.TempDir()
	_, port := startTestServer(t, root)

	const n = 16
	done := make(chan bool, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			name := filepath.Join("concurrent", "file.txt")
			req := wire.BuildSendRequest(name+string(rune('a'+i)), []byte("payload"))
			h, body := dialAndRoundTrip(t, port, req, wire.KindSend)
			code, err := wire.ParseResultOnlyResponse(fullFrame(req, h, body), h)
			done <- err == nil && code == result.Success
		}()
	}
	for i := 0; i < n; i++ {
		if !<-done {
			t.Error("a concurrent send failed")
		}
	}
}
