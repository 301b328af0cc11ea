package connection

import (
	"encoding/hex"
	"net"
	"testing"
	"time"

	"github.com/quickft/quickft/result"
	"github.com/quickft/quickft/socket"
	"github.com/quickft/quickft/wire"
)

func pipeConns() (*socket.Conn, *socket.Conn) {
	a, b := net.Pipe()
	return &socket.Conn{Conn: a}, &socket.Conn{Conn: b}
}

func TestSendAndRecvFrameRoundTrip(t *testing.T) {
	client, server := pipeConns()
	defer client.Close()
	defer server.Close()

	frame := wire.BuildSendRequest("a/b.txt", []byte("hello"))

	errc := make(chan error, 1)
	go func() {
		errc <- SendFrame(client, time.Second, frame)
	}()

	h, body, err := RecvFrame(server, time.Second, wire.MaskRequest)
	if err != nil {
		t.Fatalf("RecvFrame: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	if h.Kind != wire.KindSend {
		t.Errorf("Kind = %v, want KindSend", h.Kind)
	}
	full := append(append([]byte{}, frame[:wire.HeaderLen]...), body...)
	path, length, _, err := wire.ParseSendRequest(full, h)
	if err != nil {
		t.Fatalf("ParseSendRequest: %v", err)
	}
	if path != "a/b.txt" || length != 5 {
		t.Errorf("got path=%q length=%d, want a/b.txt 5", path, length)
	}
}

func TestAckHandshake(t *testing.T) {
	client, server := pipeConns()
	defer client.Close()
	defer server.Close()

	errc := make(chan error, 1)
	go func() {
		errc <- SendAck(client, time.Second)
	}()

	if err := AwaitAck(server, time.Second); err != nil {
		t.Fatalf("AwaitAck: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("SendAck: %v", err)
	}
}

func TestAwaitAckRejectsNonAck(t *testing.T) {
	client, server := pipeConns()
	defer client.Close()
	defer server.Close()

	go func() {
		SendFrame(client, time.Second, wire.BuildResultResponse(wire.KindSend, result.Success))
	}()

	if err := AwaitAck(server, time.Second); err == nil {
		t.Fatal("expected AwaitAck to reject a non-ACK frame")
	}
}

func TestRecvFrameRejectsOversizedDeclaredLength(t *testing.T) {
	client, server := pipeConns()
	defer client.Close()
	defer server.Close()

	// Forge a header with a legitimate kind but an implausible declared
	// length, by overwriting the hex length field of a real request frame.
	frame := wire.BuildSendRequest("x", []byte("y"))
	bad := append([]byte{}, frame[:wire.HeaderLen]...)
	hex.Encode(bad[24:32], []byte{0xff, 0xff, 0xff, 0xff})

	go func() {
		client.Write(bad)
		// Intentionally never supplies a body; RecvFrame must reject the
		// header before attempting to read 0xffffffff bytes.
	}()

	if _, _, err := RecvFrame(server, time.Second, wire.MaskRequest); err == nil {
		t.Fatal("expected RecvFrame to reject an oversized declared length")
	}
}
