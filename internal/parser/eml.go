package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/google/uuid"
	"github.com/jhillyerd/enmime"

	"github.com/aacamara/mailthread/internal/encoding"
	"github.com/aacamara/mailthread/pkg/types"
)

// StructuredParser decodes RFC 5322 interchange artifacts. A multi-message
// artifact (mbox, "From " separated) is split into individual messages first;
// nested forwarded sub-messages inside one message are kept flat.
type StructuredParser struct{}

var mboxMagic = []byte("From ")

func (p *StructuredParser) Parse(content []byte) ([]types.DecodedMessage, []string, error) {
	if bytes.HasPrefix(content, mboxMagic) {
		return p.parseMbox(content)
	}

	msg, warnings, ok := decodeStructuredMessage(content)
	if !ok {
		return nil, warnings, nil
	}
	return []types.DecodedMessage{*msg}, warnings, nil
}

// parseMbox splits an mbox stream on its message boundaries and decodes each
// message independently. Messages that fail to decode are skipped with a
// warning rather than failing the whole artifact.
func (p *StructuredParser) parseMbox(content []byte) ([]types.DecodedMessage, []string, error) {
	var (
		messages []types.DecodedMessage
		warnings []string
	)

	reader := mbox.NewReader(bytes.NewReader(content))
	for i := 0; ; i++ {
		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			warnings = append(warnings, fmt.Sprintf("mbox read stopped after message %d: %v", i, err))
			break
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("mbox message %d unreadable: %v", i, err))
			continue
		}

		msg, msgWarnings, ok := decodeStructuredMessage(raw)
		warnings = append(warnings, msgWarnings...)
		if ok {
			messages = append(messages, *msg)
		}
	}

	return messages, warnings, nil
}

// decodeStructuredMessage decodes one message. The MIME envelope decoder
// handles folded headers, encoded words and multipart bodies; when it rejects
// the input a plain header tokenizer takes over. Messages missing any of
// From, To or Subject are dropped (ok=false) with a warning.
func decodeStructuredMessage(raw []byte) (*types.DecodedMessage, []string, bool) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return decodePlainMessage(raw)
	}

	var warnings []string

	fromHeader := env.GetHeader("From")
	toHeader := env.GetHeader("To")
	subject := env.GetHeader("Subject")
	if fromHeader == "" || toHeader == "" || subject == "" {
		warnings = append(warnings, "message dropped: missing required From/To/Subject headers")
		return nil, warnings, false
	}

	from, ok := encoding.ParseAddress(fromHeader)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("message dropped: unparseable From header %q", fromHeader))
		return nil, warnings, false
	}

	msg := &types.DecodedMessage{
		MessageID:  canonicalMessageID(env.GetHeader("Message-ID")),
		InReplyTo:  strings.Trim(env.GetHeader("In-Reply-To"), "<> "),
		References: splitReferences(env.GetHeader("References")),
		From:       from,
		To:         encoding.ParseAddressList(toHeader),
		Cc:         encoding.ParseAddressList(env.GetHeader("Cc")),
		Subject:    subject,
		BodyText:   strings.TrimSpace(env.Text),
		BodyHTML:   env.HTML,
	}

	date, ok := ParseDate(env.GetHeader("Date"))
	if !ok {
		date = time.Now()
		warnings = append(warnings, fmt.Sprintf("date %q could not be parsed; using processing time", env.GetHeader("Date")))
	}
	msg.Date = date

	// HTML-only messages still need a plain-text body.
	if msg.BodyText == "" && msg.BodyHTML != "" {
		msg.BodyText = encoding.HTMLToText(msg.BodyHTML)
	}

	for _, att := range env.Attachments {
		if att.FileName != "" {
			msg.AttachmentNames = append(msg.AttachmentNames, att.FileName)
		}
	}
	msg.HasAttachments = len(env.Attachments) > 0 || rawHasAttachmentMarker(raw)

	return msg, warnings, true
}

// decodePlainMessage is the tokenizer fallback for messages the envelope
// decoder rejects: unfold the header block, split name/value pairs and
// quoted-printable-decode the body.
func decodePlainMessage(raw []byte) (*types.DecodedMessage, []string, bool) {
	headerBlock, body := encoding.SplitHeadersBody(string(raw))
	headers := encoding.ParseHeaders(headerBlock)

	warnings := []string{"message did not decode as a MIME envelope; using plain header scan"}

	if !headers.Has("from") || !headers.Has("to") || !headers.Has("subject") {
		warnings = append(warnings, "message dropped: missing required From/To/Subject headers")
		return nil, warnings, false
	}

	from, ok := encoding.ParseAddress(headers.Get("from"))
	if !ok {
		warnings = append(warnings, fmt.Sprintf("message dropped: unparseable From header %q", headers.Get("from")))
		return nil, warnings, false
	}

	msg := &types.DecodedMessage{
		MessageID:      canonicalMessageID(headers.Get("message-id")),
		InReplyTo:      strings.Trim(headers.Get("in-reply-to"), "<> "),
		References:     splitReferences(headers.Get("references")),
		From:           from,
		To:             encoding.ParseAddressList(headers.Get("to")),
		Cc:             encoding.ParseAddressList(headers.Get("cc")),
		Subject:        headers.Get("subject"),
		BodyText:       strings.TrimSpace(encoding.DecodeQuotedPrintable(body)),
		HasAttachments: rawHasAttachmentMarker(raw),
	}

	date, ok := ParseDate(headers.Get("date"))
	if !ok {
		date = time.Now()
		warnings = append(warnings, fmt.Sprintf("date %q could not be parsed; using processing time", headers.Get("date")))
	}
	msg.Date = date

	return msg, warnings, true
}

// canonicalMessageID strips angle brackets and generates an ID when the
// header is absent.
func canonicalMessageID(raw string) string {
	id := strings.Trim(strings.TrimSpace(raw), "<>")
	if id == "" {
		return uuid.New().String()
	}
	return id
}

func splitReferences(raw string) []string {
	var refs []string
	for _, tok := range strings.Fields(raw) {
		if ref := strings.Trim(tok, "<>,"); ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// rawHasAttachmentMarker is the attachment heuristic: a disposition or
// filename token anywhere in the raw content. Attachments themselves are
// never materialized.
func rawHasAttachmentMarker(raw []byte) bool {
	lower := bytes.ToLower(raw)
	return bytes.Contains(lower, []byte("content-disposition: attachment")) ||
		bytes.Contains(lower, []byte("filename="))
}
