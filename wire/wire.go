// Package wire implements the QuickFT frame format: a fixed 32-byte header
// followed by a variable-length part of "=KEY:VALUE" tokens. It builds and
// parses frames; it does not perform any I/O.
package wire

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// HeaderLen is the fixed size, in bytes, of every QuickFT frame header.
const HeaderLen = 32

// MinVarPartAlloc is the floor a receiver should use when sizing the buffer
// that will hold a frame's variable part, regardless of the declared
// length. It exists purely to amortize allocations for small messages (a
// bare =result: token is far shorter than this); it is not a constraint on
// the bytes actually written to, or parsed from, the wire.
const MinVarPartAlloc = 256

const (
	pcolName = "QUIFT_MSG"
	version  = "V1.0"
)

// Kind identifies a QuickFT message type. The SND/RCV/DEL values double as
// bits so a reader can be restricted to an expected subset via a Mask.
type Kind uint8

// The closed set of message kinds.
const (
	KindAck     Kind = 0x08
	KindSend    Kind = 0x01
	KindReceive Kind = 0x02
	KindDelete  Kind = 0x04
)

// Mask is a set of allowed Kinds, passed to ParseHeader to restrict which
// message types a reader will accept.
type Mask = Kind

// MaskRequest allows any of the three request kinds (not ACK).
const MaskRequest Mask = KindSend | KindReceive | KindDelete

var kindToToken = map[Kind]string{
	KindSend:    "FILE_SND",
	KindReceive: "FILE_RCV",
	KindDelete:  "FILE_DEL",
	KindAck:     "ACK_____",
}

var tokenToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindToToken))
	for k, t := range kindToToken {
		m[t] = k
	}
	return m
}()

// String returns the 8-byte wire token for k, or a diagnostic placeholder
// for an unrecognized value.
func (k Kind) String() string {
	if t, ok := kindToToken[k]; ok {
		return t
	}
	return fmt.Sprintf("KIND_%#x", uint8(k))
}

// Allows reports whether mask permits kind.
func (mask Mask) Allows(kind Kind) bool {
	if kind == KindAck {
		return mask&KindAck != 0
	}
	return mask&kind != 0
}

// Token is a single "=KEY:VALUE" field of a frame's variable part. Value is
// an opaque byte sequence and may itself contain '=', ':', or newlines.
type Token struct {
	Key   string
	Value []byte
}

// AckFrame is the literal 32-byte ACK frame; it never has a variable part.
func AckFrame() []byte {
	return BuildFrame(KindAck, nil)
}

// BuildFrame renders a header for kind followed by the concatenation of
// tokens. The header's declared length is computed from the rendered
// variable part, never from a caller-supplied value.
func BuildFrame(kind Kind, tokens []Token) []byte {
	varPart := buildVarPart(tokens)
	buf := make([]byte, HeaderLen+len(varPart))
	writeHeader(buf, kind, len(varPart))
	copy(buf[HeaderLen:], varPart)
	return buf
}

func buildVarPart(tokens []Token) []byte {
	var buf bytes.Buffer
	for _, tok := range tokens {
		buf.WriteByte('=')
		buf.WriteString(tok.Key)
		buf.WriteByte(':')
		buf.Write(tok.Value)
	}
	return buf.Bytes()
}

func writeHeader(buf []byte, kind Kind, varLen int) {
	copy(buf[0:9], pcolName)
	buf[9] = '='
	copy(buf[10:14], version)
	buf[14] = '='
	token := kind.String()
	copy(buf[15:23], token)
	buf[23] = '='
	hex.Encode(buf[24:32], []byte{
		byte(varLen >> 24), byte(varLen >> 16), byte(varLen >> 8), byte(varLen),
	})
}

// Header is the parsed fixed-position content of a frame header.
type Header struct {
	Kind   Kind
	VarLen int
}

// ParseHeader validates and decodes a 32-byte frame header. allowed
// restricts which Kinds are acceptable; any other decoded kind, or a
// malformed magic/version/length field, is reported as an error.
func ParseHeader(buf []byte, allowed Mask) (Header, error) {
	if len(buf) != HeaderLen {
		return Header{}, fmt.Errorf("wire: header must be %d bytes, got %d", HeaderLen, len(buf))
	}
	if string(buf[0:9]) != pcolName {
		return Header{}, fmt.Errorf("wire: bad protocol name %q", buf[0:9])
	}
	if buf[9] != '=' {
		return Header{}, fmt.Errorf("wire: missing separator at offset 9")
	}
	if string(buf[10:14]) != version {
		return Header{}, fmt.Errorf("wire: bad version %q", buf[10:14])
	}
	if buf[14] != '=' {
		return Header{}, fmt.Errorf("wire: missing separator at offset 14")
	}
	kindToken := string(buf[15:23])
	kind, ok := tokenToKind[kindToken]
	if !ok {
		return Header{}, fmt.Errorf("wire: unrecognized message type %q", kindToken)
	}
	if !allowed.Allows(kind) {
		return Header{}, fmt.Errorf("wire: message type %q not in allowed set", kindToken)
	}
	if buf[23] != '=' {
		return Header{}, fmt.Errorf("wire: missing separator at offset 23")
	}
	var lenBytes [4]byte
	if _, err := hex.Decode(lenBytes[:], buf[24:32]); err != nil {
		return Header{}, fmt.Errorf("wire: bad hex length field: %w", err)
	}
	varLen := int(lenBytes[0])<<24 | int(lenBytes[1])<<16 | int(lenBytes[2])<<8 | int(lenBytes[3])
	return Header{Kind: kind, VarLen: varLen}, nil
}

// FindToken searches for the literal "=key:" starting at byte offset from
// within buf. It returns markerStart (the offset of the leading '=') and
// valueStart (the offset of the byte immediately following the ':').
//
// Per the protocol, callers search strictly left-to-right: each token's
// search begins just past the previous token's marker (at the start of its
// value), never rewinding to the start of the variable part, so an earlier
// value that happens to contain a later token's marker cannot cause
// misalignment.
func FindToken(buf []byte, key string, from int) (markerStart, valueStart int, ok bool) {
	marker := []byte("=" + key + ":")
	idx := bytes.Index(buf[from:], marker)
	if idx < 0 {
		return 0, 0, false
	}
	markerStart = from + idx
	return markerStart, markerStart + len(marker), true
}
