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

// TextExportParser handles copy-pasted or exported multi-message text. An
// ordered list of boundary strategies is tried; the first one that matches is
// used exclusively for that input. When none match the whole content becomes
// a single best-effort message, so any non-empty text always parses.
type TextExportParser struct{}

// placeholder addresses for exports that carry no recognizable headers.
const (
	placeholderSender    = "unknown-sender@import.local"
	placeholderRecipient = "unknown-recipient@import.local"
	placeholderSubject   = "Imported email"
)

var (
	// "On Mon, Jan 5, 2026 at 9:00 AM, Jane Doe <jane@acme.com> wrote:"
	// The comma between date and name is optional; Gmail omits it, so the
	// date/name split happens after the match (see splitBannerDateName).
	quoteBannerPattern = regexp.MustCompile(`(?m)^On ([^<\n]+?)[ \t,]*<([^<>\s]+@[^<>\s]+)> wrote:[ \t]*$`)

	fromLinePattern = regexp.MustCompile(`(?m)^From:[ \t]*\S`)

	forwardBannerPattern = regexp.MustCompile(`(?mi)^-{2,}[ \t]*(?:Forwarded message|Original Message)[ \t]*-{2,}[ \t]*$`)

	headerishLinePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{0,30}:[ \t]`)

	quoteMarkerPattern = regexp.MustCompile(`(?m)^>[ \t]?`)
)

type textStrategy struct {
	name  string
	split func(content string) ([]types.DecodedMessage, []string)
}

func (p *TextExportParser) Parse(content []byte) ([]types.DecodedMessage, []string, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, nil, nil
	}

	strategies := []textStrategy{
		{"quote-banner", splitQuoteBanners},
		{"header-blocks", splitHeaderBlocks},
		{"forwarded-banner", splitForwardedBanners},
	}

	for _, s := range strategies {
		messages, warnings := s.split(text)
		if len(messages) > 0 {
			return messages, warnings, nil
		}
	}

	msg, warnings := parseSingleText(text)
	return []types.DecodedMessage{msg}, warnings, nil
}

// splitQuoteBanners handles reply chains quoted inline: everything above the
// first banner is the newest message, each banner attributes the quoted body
// below it until the next banner.
func splitQuoteBanners(content string) ([]types.DecodedMessage, []string) {
	matches := quoteBannerPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	var (
		messages []types.DecodedMessage
		warnings []string
	)

	// Everything above the first banner is the newest reply, when present.
	replyFrom := types.Address{Email: placeholderSender}
	replySubject := placeholderSubject
	if topContent := content[:matches[0][0]]; strings.TrimSpace(topContent) != "" {
		top, topWarnings := parseSingleText(topContent)
		warnings = append(warnings, topWarnings...)
		messages = append(messages, top)
		replyFrom = top.From
		replySubject = top.Subject
	}

	for i, m := range matches {
		bannerDate, bannerName := splitBannerDateName(content[m[2]:m[3]])
		bannerEmail := strings.ToLower(content[m[4]:m[5]])

		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := quoteMarkerPattern.ReplaceAllString(content[m[1]:end], "")

		msg := types.DecodedMessage{
			MessageID: uuid.New().String(),
			From:      types.Address{Name: bannerName, Email: bannerEmail},
			Subject:   replySubject,
			BodyText:  strings.TrimSpace(body),
		}
		// The quoted author was writing to whoever replied on top.
		if replyFrom.Email != placeholderSender {
			msg.To = []types.Address{replyFrom}
		}

		date, ok := ParseDate(bannerDate)
		if !ok {
			date = time.Now()
			warnings = append(warnings, fmt.Sprintf("banner date %q could not be parsed; using processing time", bannerDate))
		}
		msg.Date = date

		messages = append(messages, msg)
	}

	return messages, warnings
}

// splitBannerDateName separates the date and display name in a banner prefix.
// Outlook-style banners comma-separate the two but Gmail's only uses a space,
// so the date is taken as the longest leading token run that parses.
func splitBannerDateName(prefix string) (string, string) {
	prefix = strings.TrimSpace(prefix)
	tokens := strings.Fields(prefix)
	for k := len(tokens); k >= 1; k-- {
		candidate := strings.TrimRight(strings.Join(tokens[:k], " "), ",")
		if _, ok := ParseDate(candidate); ok {
			return candidate, strings.Join(tokens[k:], " ")
		}
	}
	// No parseable date; fall back to the comma split so the name at least
	// survives.
	if i := strings.LastIndexByte(prefix, ','); i >= 0 {
		return strings.TrimSpace(prefix[:i]), strings.TrimSpace(prefix[i+1:])
	}
	return prefix, ""
}

// splitHeaderBlocks handles exports that repeat full header blocks
// (From/Date/To/Subject, blank line, body) with no explicit separator. A
// single block is not a repeat and falls through to later strategies. Text
// before the first block is kept as its own message, like a forwarded cover
// note.
func splitHeaderBlocks(content string) ([]types.DecodedMessage, []string) {
	idxs := fromLinePattern.FindAllStringIndex(content, -1)
	if len(idxs) < 2 {
		return nil, nil
	}

	var (
		messages []types.DecodedMessage
		warnings []string
	)

	if preamble := content[:idxs[0][0]]; strings.TrimSpace(preamble) != "" {
		msg, preWarnings := parseSingleText(preamble)
		warnings = append(warnings, preWarnings...)
		messages = append(messages, msg)
	}

	for i, idx := range idxs {
		end := len(content)
		if i+1 < len(idxs) {
			end = idxs[i+1][0]
		}

		msg, ok, chunkWarnings := parseHeaderChunk(content[idx[0]:end])
		warnings = append(warnings, chunkWarnings...)
		if ok {
			messages = append(messages, msg)
		}
	}

	return messages, warnings
}

// splitForwardedBanners handles explicit forwarded-message separators. The
// cover note above the first banner is kept as its own message when it has
// any content.
func splitForwardedBanners(content string) ([]types.DecodedMessage, []string) {
	idxs := forwardBannerPattern.FindAllStringIndex(content, -1)
	if len(idxs) == 0 {
		return nil, nil
	}

	var (
		messages []types.DecodedMessage
		warnings []string
	)

	if cover := content[:idxs[0][0]]; strings.TrimSpace(cover) != "" {
		msg, coverWarnings := parseSingleText(cover)
		warnings = append(warnings, coverWarnings...)
		messages = append(messages, msg)
	}

	for i, idx := range idxs {
		end := len(content)
		if i+1 < len(idxs) {
			end = idxs[i+1][0]
		}

		msg, ok, chunkWarnings := parseHeaderChunk(content[idx[1]:end])
		warnings = append(warnings, chunkWarnings...)
		if ok {
			messages = append(messages, msg)
		}
	}

	return messages, warnings
}

// parseHeaderChunk decodes one "headers, blank line, body" chunk. From is
// required; everything else is best-effort.
func parseHeaderChunk(chunk string) (types.DecodedMessage, bool, []string) {
	headerBlock, body := encoding.SplitHeadersBody(strings.TrimLeft(chunk, "\n"))
	headers := encoding.ParseHeaders(headerBlock)

	var warnings []string

	from, ok := encoding.ParseAddress(headers.Get("from"))
	if !ok {
		warnings = append(warnings, fmt.Sprintf("export chunk skipped: unparseable From header %q", headers.Get("from")))
		return types.DecodedMessage{}, false, warnings
	}

	msg := types.DecodedMessage{
		MessageID: uuid.New().String(),
		From:      from,
		To:        encoding.ParseAddressList(headers.Get("to")),
		Cc:        encoding.ParseAddressList(headers.Get("cc")),
		Subject:   headers.Get("subject"),
		BodyText:  strings.TrimSpace(body),
	}
	if msg.Subject == "" {
		msg.Subject = placeholderSubject
	}

	date, ok := ParseDate(headers.Get("date"))
	if !ok {
		date = time.Now()
		warnings = append(warnings, fmt.Sprintf("date %q could not be parsed; using processing time", headers.Get("date")))
	}
	msg.Date = date

	return msg, true, warnings
}

// parseSingleText interprets text as one message: a leading header-like block
// supplies From/To/Subject/Date when present, placeholders otherwise.
func parseSingleText(content string) (types.DecodedMessage, []string) {
	content = strings.TrimSpace(content)

	var warnings []string
	msg := types.DecodedMessage{
		MessageID: uuid.New().String(),
		From:      types.Address{Email: placeholderSender},
		To:        []types.Address{{Email: placeholderRecipient}},
		Subject:   placeholderSubject,
		BodyText:  content,
		Date:      time.Now(),
	}

	if !headerishLinePattern.MatchString(firstLine(content)) {
		if content != "" {
			warnings = append(warnings, "no headers found in text content; using placeholder addresses")
		}
		return msg, warnings
	}

	headerBlock, body := encoding.SplitHeadersBody(content)
	headers := encoding.ParseHeaders(headerBlock)

	if from, ok := encoding.ParseAddress(headers.Get("from")); ok {
		msg.From = from
	}
	if to := encoding.ParseAddressList(headers.Get("to")); len(to) > 0 {
		msg.To = to
	}
	msg.Cc = encoding.ParseAddressList(headers.Get("cc"))
	if subject := headers.Get("subject"); subject != "" {
		msg.Subject = subject
	}
	if date, ok := ParseDate(headers.Get("date")); ok {
		msg.Date = date
	} else if headers.Has("date") {
		warnings = append(warnings, fmt.Sprintf("date %q could not be parsed; using processing time", headers.Get("date")))
	}
	msg.BodyText = strings.TrimSpace(body)

	return msg, warnings
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}
