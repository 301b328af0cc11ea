// Package server implements the request processor (one accepted connection
// worth of work: read request, ACK, perform the operation, send one
// response) and the accept loop that spawns a worker per connection under a
// bounded-concurrency admission control, replacing the original's
// fixed-size slot table with a semaphore and a concurrent set of worker
// handles, per this codebase's existing pattern of a task-per-connection
// server (see eventsocket.Server) plus a semaphore-bounded fan-out
// (golang.org/x/sync/semaphore), in place of scanning an array for a free
// slot.
package server

import (
	"time"

	"github.com/rs/xid"
	"github.com/spf13/afero"

	"github.com/quickft/quickft/codec"
	"github.com/quickft/quickft/config"
	"github.com/quickft/quickft/connection"
	"github.com/quickft/quickft/fsutil"
	"github.com/quickft/quickft/logging"
	"github.com/quickft/quickft/metrics"
	"github.com/quickft/quickft/result"
	"github.com/quickft/quickft/socket"
	"github.com/quickft/quickft/wire"
)

// handler processes one accepted connection to completion: exactly one
// request frame in, one ACK, the filesystem operation, one response frame
// out.
type handler struct {
	cfg config.Config
	fs  fsutil.FS
	log logging.Logger
}

func newHandler(cfg config.Config, fs fsutil.FS, log logging.Logger) *handler {
	return &handler{cfg: cfg, fs: fs, log: log}
}

// Handle services conn per §4.6: it owns conn's full lifecycle and always
// closes it before returning.
func (h *handler) Handle(conn *socket.Conn) {
	defer conn.Close()

	start := time.Now()
	hdr, body, err := connection.RecvFrame(conn, h.cfg.Tframe, wire.MaskRequest)
	if err != nil {
		h.log.Warnf("server.Handle", "read request: %v", err)
		return
	}
	metrics.FramesTotal.WithLabelValues(hdr.Kind.String(), "rx").Inc()

	frame := append(make([]byte, 0, wire.HeaderLen+len(body)), append(frameHeaderBytes(hdr), body...)...)

	if err := connection.SendAck(conn, h.cfg.Tack); err != nil {
		h.log.Errorf("server.Handle", "send ack: %v", err)
		return
	}

	var response []byte
	switch hdr.Kind {
	case wire.KindReceive:
		response = h.handleReceive(frame, hdr)
	case wire.KindSend:
		response = h.handleSend(frame, hdr)
	case wire.KindDelete:
		response = h.handleDelete(frame, hdr)
	default:
		h.log.Errorf("server.Handle", "unreachable message kind %v", hdr.Kind)
		return
	}

	if err := connection.SendFrame(conn, h.cfg.Tframe, response); err != nil {
		h.log.Errorf("server.Handle", "send response: %v", err)
		return
	}
	metrics.FramesTotal.WithLabelValues(hdr.Kind.String(), "tx").Inc()
	metrics.RequestDuration.WithLabelValues(hdr.Kind.String()).Observe(time.Since(start).Seconds())
}

// frameHeaderBytes renders a 32-byte header of the parsed frame's kind
// (its length field is zero, not the original declared length), since
// connection.RecvFrame hands the header and body back separately and the
// token parsers in wire/messages.go expect a header-plus-body frame. Those
// parsers take the declared length from the parsed wire.Header, never from
// these bytes.
func frameHeaderBytes(h wire.Header) []byte {
	switch h.Kind {
	case wire.KindSend:
		return wire.BuildFrame(wire.KindSend, nil)[:wire.HeaderLen]
	case wire.KindReceive:
		return wire.BuildFrame(wire.KindReceive, nil)[:wire.HeaderLen]
	case wire.KindDelete:
		return wire.BuildFrame(wire.KindDelete, nil)[:wire.HeaderLen]
	default:
		return wire.BuildFrame(wire.KindAck, nil)[:wire.HeaderLen]
	}
}

func (h *handler) errResponse(kind wire.Kind, code result.Code) []byte {
	metrics.ErrorsTotal.WithLabelValues(code.String()).Inc()
	return wire.BuildResultResponse(kind, code)
}

// handleReceive implements FILE_RCV: server sends a file to the client.
func (h *handler) handleReceive(frame []byte, hdr wire.Header) []byte {
	filename, err := wire.ParseFilenameRequest(frame, hdr)
	if err != nil {
		h.log.Warnf("handleReceive", "parse request: %v", err)
		return h.errResponse(wire.KindReceive, result.InvalidRequest)
	}

	path, err := fsutil.SafeJoin(h.cfg.Root, filename)
	if err != nil {
		h.log.Warnf("handleReceive", "unsafe path %q: %v", filename, err)
		return h.errResponse(wire.KindReceive, result.FileAccessError)
	}

	hasContent, err := h.fs.HasContent(path)
	if err != nil {
		h.log.Errorf("handleReceive", "stat %s: %v", path, err)
		return h.errResponse(wire.KindReceive, result.FileAccessError)
	}
	if !hasContent {
		return h.errResponse(wire.KindReceive, result.FileNotFound)
	}

	id := xid.New().String()
	gzPath := path + "." + id + ".gz"
	b64Path := path + "." + id + ".b64"
	defer h.fs.RemoveFile(gzPath)
	defer h.fs.RemoveFile(b64Path)

	if err := h.gzipPack(path, gzPath); err != nil {
		h.log.Errorf("handleReceive", "gzip pack %s: %v", path, err)
		return h.errResponse(wire.KindReceive, result.CompressError)
	}
	if err := h.base64Encode(gzPath, b64Path); err != nil {
		h.log.Errorf("handleReceive", "base64 encode %s: %v", gzPath, err)
		return h.errResponse(wire.KindReceive, result.EncodeError)
	}

	content, err := afero.ReadFile(h.fs.Fs, b64Path)
	if err != nil {
		h.log.Errorf("handleReceive", "read %s: %v", b64Path, err)
		return h.errResponse(wire.KindReceive, result.FileReadError)
	}

	metrics.BytesTransferredTotal.WithLabelValues("FILE_RCV").Add(float64(len(content)))
	return wire.BuildReceiveResponse(content)
}

// handleSend implements FILE_SND: server receives a file from the client.
func (h *handler) handleSend(frame []byte, hdr wire.Header) []byte {
	relPath, length, content, err := wire.ParseSendRequest(frame, hdr)
	if err != nil {
		h.log.Warnf("handleSend", "parse request: %v", err)
		return h.errResponse(wire.KindSend, result.InvalidRequest)
	}
	if length <= 0 {
		return h.errResponse(wire.KindSend, result.InvalidRequest)
	}
	if int64(length) > h.cfg.MaxContentLength {
		h.log.Warnf("handleSend", "declared length %d exceeds max %d", length, h.cfg.MaxContentLength)
		return h.errResponse(wire.KindSend, result.InvalidRequest)
	}

	dest, err := fsutil.SafeJoin(h.cfg.Root, relPath)
	if err != nil {
		h.log.Warnf("handleSend", "unsafe path %q: %v", relPath, err)
		return h.errResponse(wire.KindSend, result.FileAccessError)
	}

	if exists, _ := h.fs.Exists(dest); exists {
		if err := h.fs.CopyFile(dest, dest+".bkp"); err != nil {
			h.log.Warnf("handleSend", "backup %s: %v (continuing)", dest, err)
		}
	}

	if err := h.fs.MkdirAllFor(dest); err != nil {
		h.log.Errorf("handleSend", "mkdir parents for %s: %v", dest, err)
		return h.errResponse(wire.KindSend, result.DestDirCreateError)
	}

	id := xid.New().String()
	b64Path := dest + "." + id + ".b64"
	gzPath := dest + "." + id + ".gz"
	defer h.fs.RemoveFile(b64Path)
	defer h.fs.RemoveFile(gzPath)

	if err := afero.WriteFile(h.fs.Fs, b64Path, content, 0o600); err != nil {
		h.log.Errorf("handleSend", "write %s: %v", b64Path, err)
		return h.errResponse(wire.KindSend, result.FileWriteError)
	}
	if err := h.base64Decode(b64Path, gzPath); err != nil {
		h.log.Errorf("handleSend", "base64 decode %s: %v", b64Path, err)
		return h.errResponse(wire.KindSend, result.DecodeError)
	}
	if err := h.gzipUnpack(gzPath, dest); err != nil {
		h.log.Errorf("handleSend", "gzip unpack %s: %v", gzPath, err)
		return h.errResponse(wire.KindSend, result.DecompressError)
	}

	metrics.BytesTransferredTotal.WithLabelValues("FILE_SND").Add(float64(length))
	return wire.BuildResultResponse(wire.KindSend, result.Success)
}

// handleDelete implements FILE_DEL.
func (h *handler) handleDelete(frame []byte, hdr wire.Header) []byte {
	filename, err := wire.ParseFilenameRequest(frame, hdr)
	if err != nil {
		h.log.Warnf("handleDelete", "parse request: %v", err)
		return h.errResponse(wire.KindDelete, result.InvalidRequest)
	}

	path, err := fsutil.SafeJoin(h.cfg.Root, filename)
	if err != nil {
		h.log.Warnf("handleDelete", "unsafe path %q: %v", filename, err)
		return h.errResponse(wire.KindDelete, result.FileAccessError)
	}

	exists, err := h.fs.Exists(path)
	if err != nil {
		h.log.Errorf("handleDelete", "stat %s: %v", path, err)
		return h.errResponse(wire.KindDelete, result.FileAccessError)
	}
	if !exists {
		return h.errResponse(wire.KindDelete, result.FileNotFound)
	}

	if err := h.fs.RemoveFile(path); err != nil {
		h.log.Errorf("handleDelete", "remove %s: %v", path, err)
		return h.errResponse(wire.KindDelete, result.DeleteError)
	}
	return wire.BuildResultResponse(wire.KindDelete, result.Success)
}

// gzipPack, base64Encode, base64Decode, and gzipUnpack always operate on
// the real filesystem: the codec package is a byte-exact container format
// (RFC 1952 gzip, RFC 1113 base64) with no need for the afero seam that
// fsutil's existence/copy/delete/path-safety helpers use for testability.
func (h *handler) gzipPack(in, out string) error {
	return codec.GzipPackFile(in, out)
}

func (h *handler) base64Encode(in, out string) error {
	return codec.Base64EncodeFile(in, out, h.cfg.Base64LineLen)
}

func (h *handler) base64Decode(in, out string) error {
	return codec.Base64DecodeFile(in, out)
}

func (h *handler) gzipUnpack(in, out string) error {
	return codec.GzipUnpackFile(in, out)
}
