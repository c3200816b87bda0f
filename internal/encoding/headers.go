package encoding

import "strings"

// Headers holds tokenized header name/value pairs from one header block.
// Names are stored lowercase; the first occurrence of a name wins.
type Headers map[string]string

// Get returns the decoded value for a header name (case-insensitive), or ""
// when the header is absent.
func (h Headers) Get(name string) string {
	return h[strings.ToLower(name)]
}

// Has reports whether a header name is present with a non-empty value.
func (h Headers) Has(name string) bool {
	return h.Get(name) != ""
}

// SplitHeadersBody splits a raw message into its header block and body at the
// first blank line. When no blank line exists the whole input is treated as
// the header block.
func SplitHeadersBody(raw string) (string, string) {
	raw = normalizeNewlines(raw)
	if i := strings.Index(raw, "\n\n"); i >= 0 {
		return raw[:i], raw[i+2:]
	}
	return raw, ""
}

// ParseHeaders tokenizes a header block. Continuation lines (those starting
// with whitespace) are joined to the previous header with a single space,
// then each line is split into name and value at the first colon. Values are
// run through the encoded-word decoder.
func ParseHeaders(block string) Headers {
	lines := strings.Split(normalizeNewlines(block), "\n")

	// Unfold first, then split name: value.
	var unfolded []string
	for _, line := range lines {
		if line == "" {
			continue
		}
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(unfolded) > 0 {
			unfolded[len(unfolded)-1] += " " + strings.TrimSpace(line)
			continue
		}
		unfolded = append(unfolded, line)
	}

	headers := make(Headers, len(unfolded))
	for _, line := range unfolded {
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(line[:i]))
		if _, exists := headers[name]; exists {
			continue
		}
		headers[name] = DecodeHeader(strings.TrimSpace(line[i+1:]))
	}
	return headers
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
