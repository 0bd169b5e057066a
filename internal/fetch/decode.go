package fetch

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// maxBodySize caps a single page body
const maxBodySize = 32 << 20

// decodeBody reads r, undoing the Content-Encoding. Bodies marked as encoded
// but sent plain are returned as-is.
func decodeBody(r io.Reader, encoding string) ([]byte, error) {
	br := bufio.NewReader(r)

	var dec io.Reader
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		dec = br
	case "gzip", "x-gzip":
		if !hasPrefix(br, 0x1f, 0x8b) {
			dec = br
			break
		}
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		dec = gz
	case "br":
		dec = brotli.NewReader(br)
	case "deflate":
		// zlib-wrapped per RFC 9110, raw deflate from some servers
		if hasPrefix(br, 0x78) {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, fmt.Errorf("deflate: %w", err)
			}
			defer zr.Close()
			dec = zr
		} else {
			fr := flate.NewReader(br)
			defer fr.Close()
			dec = fr
		}
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}

	return io.ReadAll(io.LimitReader(dec, maxBodySize))
}

func hasPrefix(r *bufio.Reader, prefix ...byte) bool {
	b, err := r.Peek(len(prefix))
	if err != nil {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
