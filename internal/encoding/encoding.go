// Package encoding provides the low-level text decoding used by the parsers:
// quoted-printable bodies, RFC 2047 encoded-word headers, address tokens and
// HTML-to-text rendering.
package encoding

import (
	"fmt"
	"io"
	"mime"
	"mime/quotedprintable"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// wordDecoder decodes =?charset?B|Q?...?= encoded words. Charsets beyond
// UTF-8/ASCII are resolved through the WHATWG encoding index.
var wordDecoder = &mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		cs := strings.ToLower(strings.TrimSpace(charset))
		if cs == "utf-8" || cs == "us-ascii" || cs == "ascii" {
			return input, nil
		}
		enc, err := htmlindex.Get(cs)
		if err != nil {
			return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
		}
		return transform.NewReader(input, enc.NewDecoder()), nil
	},
}

// DecodeHeader decodes a header value that may contain RFC 2047 encoded
// words. Values without the =? marker are returned unchanged, as is the raw
// value when decoding fails.
func DecodeHeader(raw string) string {
	if !strings.Contains(raw, "=?") {
		return raw
	}
	decoded, err := wordDecoder.DecodeHeader(raw)
	if err != nil || decoded == "" {
		return raw
	}
	return decoded
}

// DecodeQuotedPrintable decodes quoted-printable text, removing soft line
// breaks and expanding =XX escapes. Input that does not decode cleanly is
// returned unchanged rather than truncated.
func DecodeQuotedPrintable(s string) string {
	decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(s)))
	if err != nil {
		return s
	}
	return string(decoded)
}
