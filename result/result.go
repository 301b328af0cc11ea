// Package result defines the closed set of QuickFT result codes and their
// fixed-width wire tokens, and provides the bidirectional mapping between
// them.
package result

import "fmt"

// Code is a QuickFT result code. Zero is success; negative values are the
// closed set of error conditions the protocol can express on the wire.
type Code int32

// TokenLen is the fixed width of a result token as it appears in a
// =result: field: 19 ASCII characters, right-padded with '_'.
const TokenLen = 19

// The closed set of result codes, matching the protocol's wire tokens
// one-to-one.
const (
	Success            Code = 0
	ConnectionError    Code = -100
	Undefined          Code = -101
	ConfigError        Code = -102
	InvalidRequest     Code = -103
	InvalidResponse    Code = -104
	FileAccessError    Code = -105
	FileNotFound       Code = -106
	FileWriteError     Code = -107
	FileReadError      Code = -108
	CompressError      Code = -109
	DecompressError    Code = -110
	EncodeError        Code = -111
	DecodeError        Code = -112
	DeleteError        Code = -113
	DestDirInvalid     Code = -114
	DestDirCreateError Code = -115
)

var codeToToken = map[Code]string{
	Success:            "SUCCESS____________",
	ConnectionError:    "CONNECTION_ERROR___",
	Undefined:          "UNDEFINED__________",
	ConfigError:        "CONFIG_ERROR_______",
	InvalidRequest:     "INVALID_REQUEST____",
	InvalidResponse:    "INVALID_RESPONSE___",
	FileAccessError:    "FILE_ACCESS_ERROR__",
	FileNotFound:       "FILE_NOT_FOUND_____",
	FileWriteError:     "FILE_WRITE_ERROR___",
	FileReadError:      "FILE_READ_ERROR____",
	CompressError:      "COMPRESS_ERROR_____",
	DecompressError:    "DECOMPRESS_ERROR___",
	EncodeError:        "ENCODE_ERROR_______",
	DecodeError:        "DECODE_ERROR_______",
	DeleteError:        "DELETE_ERROR_______",
	DestDirInvalid:     "DEST_DIR_INVALID___",
	DestDirCreateError: "DEST_DIR_CREATE_ERR",
}

var tokenToCode map[string]Code

func init() {
	tokenToCode = make(map[string]Code, len(codeToToken))
	for c, t := range codeToToken {
		if len(t) != TokenLen {
			panic(fmt.Sprintf("result: token %q for code %d is not %d bytes", t, c, TokenLen))
		}
		tokenToCode[t] = c
	}
}

// String returns the fixed 19-character wire token for c. An unmapped code
// (which should not occur given the closed set above) falls back to a
// best-effort rendering rather than panicking, matching how this codebase
// treats unmapped enum values elsewhere (tcp.State.String).
func (c Code) String() string {
	if t, ok := codeToToken[c]; ok {
		return t
	}
	return fmt.Sprintf("UNKNOWN_RESULT_%d", int32(c))
}

// Parse maps a 19-byte wire token back to its Code. ok is false if token is
// not a member of the closed set.
func Parse(token string) (Code, bool) {
	c, ok := tokenToCode[token]
	return c, ok
}

// IsSuccess reports whether c represents a successful operation.
func (c Code) IsSuccess() bool {
	return c == Success
}

// Error implements the error interface so a Code can be returned/wrapped as
// a normal Go error when it needs to travel through non-wire code paths.
func (c Code) Error() string {
	return fmt.Sprintf("quickft result %d (%s)", int32(c), c.String())
}
