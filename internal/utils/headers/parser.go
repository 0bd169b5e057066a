package headers

import (
	"fmt"
	"net/textproto"
	"strings"
)

// Parse converts "Key: Value" strings into a map with canonical header keys.
// Entries without a colon or with an empty name are errors.
func Parse(h []string) (map[string]string, error) {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		name, value, ok := strings.Cut(hdr, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q (want \"Name: value\")", hdr)
		}
		m[textproto.CanonicalMIMEHeaderKey(name)] = strings.TrimSpace(value)
	}
	return m, nil
}

// Merge returns base with over applied on top. Neither input is modified.
func Merge(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
