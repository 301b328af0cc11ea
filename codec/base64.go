package codec

import (
	"encoding/base64"
	"fmt"
	"os"
)

// DefaultLineLen is the default base64 line-wrap width used when a caller
// does not specify one.
const DefaultLineLen = 72

// MinLineLen is the smallest allowed line-wrap width; it must also be a
// multiple of 4 so a wrap boundary never splits a base64 quartet.
const MinLineLen = 4

func normalizeLineLen(lineLen int) (int, error) {
	if lineLen == 0 {
		lineLen = DefaultLineLen
	}
	if lineLen < MinLineLen || lineLen%4 != 0 {
		return 0, fmt.Errorf("codec: line length %d must be a multiple of 4, at least %d", lineLen, MinLineLen)
	}
	return lineLen, nil
}

// Base64EncodeFile reads inPath, base64-encodes it with the standard RFC
// 1113 alphabet and '=' padding, wraps it at lineLen characters (a multiple
// of 4; 0 selects DefaultLineLen) with CRLF line endings, and writes the
// result to outPath.
func Base64EncodeFile(inPath, outPath string, lineLen int) (err error) {
	lineLen, err = normalizeLineLen(lineLen)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("codec: read %s for base64 encode: %w", inPath, err)
	}

	encoded := base64.StdEncoding.EncodeToString(raw)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("codec: create %s for base64 encode: %w", outPath, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		if _, err := out.WriteString(encoded[i:end]); err != nil {
			return fmt.Errorf("codec: write %s: %w", outPath, err)
		}
		if _, err := out.WriteString("\r\n"); err != nil {
			return fmt.Errorf("codec: write %s: %w", outPath, err)
		}
	}
	return nil
}

// isBase64Byte reports whether b belongs to the standard base64 alphabet
// (RFC 1113) or is the '=' padding character.
func isBase64Byte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '+' || b == '/' || b == '=':
		return true
	default:
		return false
	}
}

// Base64DecodeFile reads inPath, skips whitespace and any byte outside the
// base64 alphabet (so CRLF-wrapped, LF-wrapped, or unwrapped input all
// decode identically), and writes the decoded bytes to outPath.
func Base64DecodeFile(inPath, outPath string) (err error) {
	raw, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("codec: read %s for base64 decode: %w", inPath, err)
	}

	filtered := make([]byte, 0, len(raw))
	for _, b := range raw {
		if isBase64Byte(b) {
			filtered = append(filtered, b)
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(string(filtered))
	if err != nil {
		return fmt.Errorf("codec: decode %s: %w", inPath, err)
	}

	if err := os.WriteFile(outPath, decoded, 0o600); err != nil {
		return fmt.Errorf("codec: write %s for base64 decode: %w", outPath, err)
	}
	return nil
}
