package source

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// decodeReader wraps r so its content comes out as UTF-8. The encoding
// name is resolved through the IANA registry; bad byte sequences are
// replaced with U+FFFD by the decoder, never surfaced as errors.
func decodeReader(r io.Reader, name string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return r, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// sanitizeUTF8 replaces any invalid byte sequences that survived
// decoding, so raw lines kept as record text are always valid UTF-8.
func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}
