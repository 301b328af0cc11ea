// Package client implements QuickFT's three user-facing operations: Send,
// Receive, and Delete. Each is a self-contained blocking call that dials a
// fresh connection, exchanges exactly one request/ACK/response cycle via
// the connection package, and translates the wire result into a
// result.Code, matching the request-processor's own one-frame-in,
// one-frame-out discipline on the server side (server.handler.Handle).
package client

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/xid"

	"github.com/quickft/quickft/codec"
	"github.com/quickft/quickft/connection"
	"github.com/quickft/quickft/result"
	"github.com/quickft/quickft/socket"
	"github.com/quickft/quickft/wire"
)

// Options bundles the per-call settings every operation takes. A zero
// Tframe or Tack selects the protocol defaults.
type Options struct {
	Addr string
	Port uint16

	Tframe time.Duration
	Tack   time.Duration

	// Base64LineLen controls the line-wrap width used when armoring a file
	// for Send. 0 selects codec.DefaultLineLen.
	Base64LineLen int
}

func (o Options) tframe() time.Duration {
	if o.Tframe <= 0 {
		return 30 * time.Second
	}
	return o.Tframe
}

func (o Options) tack() time.Duration {
	if o.Tack <= 0 {
		return 8 * time.Second
	}
	return o.Tack
}

func dial(ctx context.Context, o Options) (*socket.Conn, error) {
	conn, err := socket.Dial(ctx, o.Addr, o.Port)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// roundTrip sends request, awaits the ACK, then awaits exactly one response
// frame restricted to wantKind. It returns the response header and a frame
// buffer suitable for the kind-specific response parsers in
// wire/messages.go: those parsers locate every token by searching from
// wire.HeaderLen onward and never inspect the header bytes themselves, so
// a zero-filled header placeholder ahead of the body is sufficient.
func roundTrip(conn *socket.Conn, o Options, request []byte, wantKind wire.Kind) (h wire.Header, frame []byte, transportErr result.Code, ok bool) {
	if err := connection.SendFrame(conn, o.tframe(), request); err != nil {
		return wire.Header{}, nil, result.ConnectionError, false
	}
	if err := connection.AwaitAck(conn, o.tack()); err != nil {
		return wire.Header{}, nil, result.ConnectionError, false
	}
	h, body, err := connection.RecvFrame(conn, o.tframe(), wantKind)
	if err != nil {
		return wire.Header{}, nil, result.InvalidResponse, false
	}
	if h.Kind != wantKind {
		return wire.Header{}, nil, result.InvalidResponse, false
	}
	frame = make([]byte, wire.HeaderLen+len(body))
	copy(frame[wire.HeaderLen:], body)
	return h, frame, result.Success, true
}

// Send uploads the local file at localPath to remotePath on the server.
func Send(ctx context.Context, localPath, remotePath string, o Options) result.Code {
	gzPath, b64Path := tempPaths(localPath)
	defer os.Remove(gzPath)
	defer os.Remove(b64Path)

	if err := codec.GzipPackFile(localPath, gzPath); err != nil {
		return result.CompressError
	}
	lineLen := o.Base64LineLen
	if lineLen == 0 {
		lineLen = codec.DefaultLineLen
	}
	if err := codec.Base64EncodeFile(gzPath, b64Path, lineLen); err != nil {
		return result.EncodeError
	}
	content, err := os.ReadFile(b64Path)
	if err != nil {
		return result.FileReadError
	}

	conn, err := dial(ctx, o)
	if err != nil {
		return result.ConnectionError
	}
	defer conn.Close()

	request := wire.BuildSendRequest(remotePath, content)
	h, frame, transportErr, ok := roundTrip(conn, o, request, wire.KindSend)
	if !ok {
		return transportErr
	}
	code, err := wire.ParseResultOnlyResponse(frame, h)
	if err != nil {
		return result.InvalidResponse
	}
	return code
}

// Receive downloads remotePath from the server to the local file at
// localPath.
func Receive(ctx context.Context, remotePath, localPath string, o Options) result.Code {
	conn, err := dial(ctx, o)
	if err != nil {
		return result.ConnectionError
	}
	defer conn.Close()

	request := wire.BuildReceiveRequest(remotePath)
	h, frame, transportErr, ok := roundTrip(conn, o, request, wire.KindReceive)
	if !ok {
		return transportErr
	}
	code, content, err := wire.ParseReceiveResponse(frame, h)
	if err != nil {
		return result.InvalidResponse
	}
	if !code.IsSuccess() {
		return code
	}

	gzPath, b64Path := tempPaths(localPath)
	defer os.Remove(gzPath)
	defer os.Remove(b64Path)

	if err := os.WriteFile(b64Path, content, 0o600); err != nil {
		return result.FileWriteError
	}
	if err := codec.Base64DecodeFile(b64Path, gzPath); err != nil {
		return result.DecodeError
	}
	if err := codec.GzipUnpackFile(gzPath, localPath); err != nil {
		return result.DecompressError
	}
	return result.Success
}

// Delete removes remotePath on the server.
func Delete(ctx context.Context, remotePath string, o Options) result.Code {
	conn, err := dial(ctx, o)
	if err != nil {
		return result.ConnectionError
	}
	defer conn.Close()

	request := wire.BuildDeleteRequest(remotePath)
	h, frame, transportErr, ok := roundTrip(conn, o, request, wire.KindDelete)
	if !ok {
		return transportErr
	}
	code, err := wire.ParseResultOnlyResponse(frame, h)
	if err != nil {
		return result.InvalidResponse
	}
	return code
}

// tempPaths derives the adjacent .gz/.b64 scratch file names the protocol
// uses around path, with a process-unique suffix (replacing the original's
// slot-id-and-tick naming, which could collide between two workers in the
// same second) so concurrent client calls targeting the same localPath
// never collide.
func tempPaths(path string) (gzPath, b64Path string) {
	id := xid.New().String()
	return fmt.Sprintf("%s.%s.gz", path, id), fmt.Sprintf("%s.%s.b64", path, id)
}
