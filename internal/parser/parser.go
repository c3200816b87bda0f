// Package parser turns raw uploaded artifacts into decoded email messages.
// It dispatches on file extension and content shape to one of three format
// parsers: structured interchange (.eml/.mbox), a lossy binary-container
// scrape (.msg), and free-text export dumps.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aacamara/mailthread/pkg/types"
)

// Format identifies which decoding strategy handles an artifact.
type Format int

const (
	FormatUnknown Format = iota
	FormatStructured
	FormatBinaryContainer
	FormatTextExport
)

func (f Format) String() string {
	switch f {
	case FormatStructured:
		return "structured"
	case FormatBinaryContainer:
		return "binary-container"
	case FormatTextExport:
		return "text-export"
	}
	return "unknown"
}

var (
	// ErrUnsupportedFormat marks an artifact whose extension is unknown and
	// whose content does not sniff as any known shape.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoMessages marks a parse that ran but produced zero messages. The
	// text is user-facing and surfaced verbatim in parse results.
	ErrNoMessages = errors.New("No email messages found in the file")
)

// Parser decodes one artifact format into messages. Implementations are
// stateless and safe for concurrent use.
type Parser interface {
	Parse(content []byte) ([]types.DecodedMessage, []string, error)
}

// Detect selects a format from the file extension first, then falls back to
// sniffing the content for header-like tokens. The returned warnings note
// when the format had to be auto-detected.
func Detect(fileName string, content []byte) (Format, []string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".eml", ".mbox":
		return FormatStructured, nil, nil
	case ".msg":
		return FormatBinaryContainer, nil, nil
	case ".txt", ".text", ".log":
		return FormatTextExport, nil, nil
	}

	if sniffsAsMail(content) {
		warning := fmt.Sprintf("file format auto-detected for %q; treating content as a text export", fileName)
		return FormatTextExport, []string{warning}, nil
	}

	return FormatUnknown, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, fileName)
}

// sniffsAsMail looks for header-like tokens in the leading content.
func sniffsAsMail(content []byte) bool {
	head := content
	if len(head) > 4096 {
		head = head[:4096]
	}
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("from:")) || bytes.Contains(lower, []byte("to:"))
}

// ForFormat returns the parser implementation for a detected format.
func ForFormat(f Format) (Parser, error) {
	switch f {
	case FormatStructured:
		return &StructuredParser{}, nil
	case FormatBinaryContainer:
		return &BinaryContainerParser{}, nil
	case FormatTextExport:
		return &TextExportParser{}, nil
	}
	return nil, ErrUnsupportedFormat
}

// Parse dispatches content to the parser for its detected format and returns
// the decoded messages plus any degraded-fidelity warnings.
func Parse(fileName string, content []byte) ([]types.DecodedMessage, []string, error) {
	format, warnings, err := Detect(fileName, content)
	if err != nil {
		return nil, warnings, err
	}

	p, err := ForFormat(format)
	if err != nil {
		return nil, warnings, err
	}

	messages, parseWarnings, err := p.Parse(content)
	warnings = append(warnings, parseWarnings...)
	if err != nil {
		return nil, warnings, err
	}
	if len(messages) == 0 {
		return nil, warnings, ErrNoMessages
	}
	return messages, warnings, nil
}
