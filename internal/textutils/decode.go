package textutils

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html/charset"
)

// DecodeDocument converts raw statement bytes to UTF-8. The encoding is taken
// from a BOM or from the charset parameter of contentType; content that is not
// valid UTF-8 falls back to windows-1252, the encoding of most French bank
// text exports.
func DecodeDocument(raw []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	enc, name, _ := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" {
		return string(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))), nil
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s document: %w", name, err)
	}
	return string(decoded), nil
}

// LooksBinary reports whether raw contains NUL bytes in its first kilobyte.
func LooksBinary(raw []byte) bool {
	head := raw
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.IndexByte(head, 0) >= 0
}
