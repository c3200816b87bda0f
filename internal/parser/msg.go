package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aacamara/mailthread/internal/encoding"
	"github.com/aacamara/mailthread/pkg/types"
)

// BinaryContainerParser is a best-effort scrape of proprietary binary mail
// containers (.msg). The content is degraded to a text view and line-anchored
// header matches are applied. This is intentionally lossy; it is not a
// substitute for real container decoding.
type BinaryContainerParser struct{}

var (
	scrapeFrom    = regexp.MustCompile(`(?mi)^[ \t]*From:[ \t]*(.{1,200}?@.{1,200})$`)
	scrapeTo      = regexp.MustCompile(`(?mi)^[ \t]*To:[ \t]*(.{1,400})$`)
	scrapeSubject = regexp.MustCompile(`(?mi)^[ \t]*Subject:[ \t]*(.{1,300})$`)
	scrapeDate    = regexp.MustCompile(`(?mi)^[ \t]*(?:Date|Sent):[ \t]*(.{1,100})$`)

	spaceRunPattern = regexp.MustCompile(`[ \t]{2,}`)
)

func (p *BinaryContainerParser) Parse(content []byte) ([]types.DecodedMessage, []string, error) {
	text := scrubBinary(content)

	fromIdx := scrapeFrom.FindStringSubmatchIndex(text)
	toIdx := scrapeTo.FindStringSubmatchIndex(text)
	subjectIdx := scrapeSubject.FindStringSubmatchIndex(text)

	if fromIdx == nil || toIdx == nil || subjectIdx == nil {
		return nil, nil, fmt.Errorf("could not extract From/To/Subject from the binary container; convert the file to .eml and retry")
	}

	from, ok := encoding.ParseAddress(text[fromIdx[2]:fromIdx[3]])
	if !ok {
		return nil, nil, fmt.Errorf("could not extract a sender address from the binary container; convert the file to .eml and retry")
	}

	warnings := []string{"binary mail container scraped as text; message fidelity is degraded"}

	msg := types.DecodedMessage{
		MessageID: uuid.New().String(),
		From:      from,
		To:        encoding.ParseAddressList(text[toIdx[2]:toIdx[3]]),
		Subject:   strings.TrimSpace(text[subjectIdx[2]:subjectIdx[3]]),
	}

	bodyStart := maxOffset(fromIdx[1], toIdx[1], subjectIdx[1])

	date := time.Now()
	if dateIdx := scrapeDate.FindStringSubmatchIndex(text); dateIdx != nil {
		raw := strings.TrimSpace(text[dateIdx[2]:dateIdx[3]])
		if parsed, ok := ParseDate(raw); ok {
			date = parsed
		} else {
			warnings = append(warnings, fmt.Sprintf("date %q could not be parsed; using processing time", raw))
		}
		bodyStart = maxOffset(bodyStart, dateIdx[1])
	} else {
		warnings = append(warnings, "no date found in binary container; using processing time")
	}
	msg.Date = date

	// Whatever trails the last matched header becomes the body.
	msg.BodyText = strings.TrimSpace(text[bodyStart:])
	if msg.BodyText == "" {
		msg.BodyText = "(body could not be recovered from binary container)"
	}

	return []types.DecodedMessage{msg}, warnings, nil
}

func maxOffset(offsets ...int) int {
	max := 0
	for _, o := range offsets {
		if o > max {
			max = o
		}
	}
	return max
}

// scrubBinary replaces non-printable bytes with spaces, keeping newlines so
// line-anchored matches still work, then collapses the space runs the
// replacement leaves behind.
func scrubBinary(content []byte) string {
	scrubbed := make([]byte, len(content))
	for i, b := range content {
		switch {
		case b == '\n' || b == '\r' || b == '\t':
			scrubbed[i] = b
		case b < 0x20 || b > 0x7e:
			scrubbed[i] = ' '
		default:
			scrubbed[i] = b
		}
	}
	return spaceRunPattern.ReplaceAllString(string(scrubbed), " ")
}
