// Package codec implements the gzip and base64 armoring QuickFT applies to
// every transferred payload: gzip compress, then base64-encode with CRLF
// line wrapping, and the inverse on the receiving side.
package codec

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// chunkSize is the I/O buffer size used when streaming file contents
// through the gzip codec.
const chunkSize = 16 * 1024

// GzipPackFile compresses inPath and writes the RFC 1952 gzip container to
// outPath, using the best compression level and 16 KiB I/O chunks.
func GzipPackFile(inPath, outPath string) (err error) {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("codec: open %s for gzip pack: %w", inPath, err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("codec: create %s for gzip pack: %w", outPath, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	gw, err := gzip.NewWriterLevel(out, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("codec: init gzip writer: %w", err)
	}
	defer func() {
		if cerr := gw.Close(); err == nil {
			err = cerr
		}
	}()

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(gw, in, buf); err != nil {
		return fmt.Errorf("codec: gzip pack %s: %w", inPath, err)
	}
	return nil
}

// GzipUnpackFile decompresses the RFC 1952 gzip container at inPath and
// writes the decompressed bytes to outPath.
func GzipUnpackFile(inPath, outPath string) (err error) {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("codec: open %s for gzip unpack: %w", inPath, err)
	}
	defer in.Close()

	gr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("codec: init gzip reader for %s: %w", inPath, err)
	}
	defer gr.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("codec: create %s for gzip unpack: %w", outPath, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(out, gr, buf); err != nil {
		return fmt.Errorf("codec: gzip unpack %s: %w", inPath, err)
	}
	return nil
}
