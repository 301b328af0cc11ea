// Package connection is QuickFT's framed I/O layer. It reads and writes
// whole wire.Header-plus-body frames over a socket.Conn, enforcing the
// Tframe and Tack deadlines, and drives the ACK handshake that follows
// a request frame. It is grounded on this codebase's existing pattern of
// reading a fixed header first and then a length-derived body (see
// loader.PMReader.Next), adapted from binary.Read over a netlink header to
// io.ReadFull over a wire.Header.
package connection

import (
	"fmt"
	"io"
	"time"

	"github.com/quickft/quickft/socket"
	"github.com/quickft/quickft/wire"
)

// MaxVarLen bounds the variable part a receiver will allocate for, distinct
// from config.MaxContentLength: this is a frame-size ceiling (protecting
// against a corrupt or hostile header claiming an enormous length), while
// MaxContentLength is a higher-level ceiling on the declared FILE_SND
// content size carried inside a frame's tokens.
const MaxVarLen = 1 << 30 // 1 GiB

// RecvFrame reads one complete frame from conn, honoring Tframe as the
// deadline for the whole read (header and body together). allowed
// restricts which message kinds are accepted.
func RecvFrame(conn *socket.Conn, tframe time.Duration, allowed wire.Mask) (wire.Header, []byte, error) {
	if err := conn.SetFrameDeadline(tframe); err != nil {
		return wire.Header{}, nil, fmt.Errorf("connection: set frame deadline: %w", err)
	}

	headerBuf := make([]byte, wire.HeaderLen)
	if _, err := io.ReadFull(conn, headerBuf); err != nil {
		return wire.Header{}, nil, fmt.Errorf("connection: read header: %w", err)
	}

	h, err := wire.ParseHeader(headerBuf, allowed)
	if err != nil {
		return wire.Header{}, nil, err
	}
	if h.VarLen > MaxVarLen {
		return wire.Header{}, nil, fmt.Errorf("connection: declared frame length %d exceeds %d", h.VarLen, MaxVarLen)
	}

	if h.VarLen == 0 {
		if h.Kind != wire.KindAck {
			return wire.Header{}, nil, fmt.Errorf("connection: %v frame declares an empty variable part", h.Kind)
		}
		return h, nil, nil
	}

	body := make([]byte, h.VarLen)
	if _, err := io.ReadFull(conn, body); err != nil {
		return wire.Header{}, nil, fmt.Errorf("connection: read body: %w", err)
	}
	return h, body, nil
}

// SendFrame writes a pre-built frame (header plus variable part) to conn,
// honoring Tframe as the deadline for the whole write.
func SendFrame(conn *socket.Conn, tframe time.Duration, frame []byte) error {
	if err := conn.SetFrameDeadline(tframe); err != nil {
		return fmt.Errorf("connection: set frame deadline: %w", err)
	}
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("connection: write frame: %w", err)
	}
	return nil
}

// SendAck writes the literal ACK frame to conn, honoring Tack.
func SendAck(conn *socket.Conn, tack time.Duration) error {
	if err := conn.SetAckDeadline(tack); err != nil {
		return fmt.Errorf("connection: set ack deadline: %w", err)
	}
	if _, err := conn.Write(wire.AckFrame()); err != nil {
		return fmt.Errorf("connection: write ack: %w", err)
	}
	return nil
}

// AwaitAck reads exactly one frame from conn and requires it to be an ACK,
// honoring Tack as the read deadline.
func AwaitAck(conn *socket.Conn, tack time.Duration) error {
	if err := conn.SetAckDeadline(tack); err != nil {
		return fmt.Errorf("connection: set ack deadline: %w", err)
	}
	headerBuf := make([]byte, wire.HeaderLen)
	if _, err := io.ReadFull(conn, headerBuf); err != nil {
		return fmt.Errorf("connection: read ack: %w", err)
	}
	h, err := wire.ParseHeader(headerBuf, wire.KindAck)
	if err != nil {
		return fmt.Errorf("connection: expected ack: %w", err)
	}
	if h.VarLen != 0 {
		return fmt.Errorf("connection: ack frame must not carry a body, got %d bytes", h.VarLen)
	}
	return nil
}
