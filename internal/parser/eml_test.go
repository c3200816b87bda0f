package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/aacamara/mailthread/pkg/types"
)

func structuredParse(t *testing.T, raw string) ([]types.DecodedMessage, []string) {
	t.Helper()
	p := &StructuredParser{}
	messages, warnings, err := p.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return messages, warnings
}

func TestStructuredParserSingleMessage(t *testing.T) {
	raw := "From: Alice Smith <Alice@Acme.com>\r\n" +
		"To: bob@example.com, Carol <carol@example.com>\r\n" +
		"Cc: dave@example.com\r\n" +
		"Subject: =?UTF-8?Q?Caf=C3=A9_budget?=\r\n" +
		"Date: Mon, 5 Jan 2026 10:00:00 +0000\r\n" +
		"Message-ID: <abc123@acme.com>\r\n" +
		"In-Reply-To: <parent@acme.com>\r\n" +
		"References: <root@acme.com> <parent@acme.com>\r\n" +
		"\r\n" +
		"Quarterly numbers attached below.\r\n"

	messages, _ := structuredParse(t, raw)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if msg.MessageID != "abc123@acme.com" {
		t.Errorf("message id = %q", msg.MessageID)
	}
	if msg.InReplyTo != "parent@acme.com" {
		t.Errorf("in-reply-to = %q", msg.InReplyTo)
	}
	if len(msg.References) != 2 || msg.References[0] != "root@acme.com" {
		t.Errorf("references = %v", msg.References)
	}
	if msg.From.Email != "alice@acme.com" || msg.From.Name != "Alice Smith" {
		t.Errorf("from = %+v", msg.From)
	}
	if len(msg.To) != 2 || msg.To[0].Email != "bob@example.com" || msg.To[1].Email != "carol@example.com" {
		t.Errorf("to = %+v", msg.To)
	}
	if len(msg.Cc) != 1 || msg.Cc[0].Email != "dave@example.com" {
		t.Errorf("cc = %+v", msg.Cc)
	}
	if msg.Subject != "Café budget" {
		t.Errorf("subject = %q", msg.Subject)
	}
	expected := time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	if !msg.Date.Equal(expected) {
		t.Errorf("date = %v, want %v", msg.Date, expected)
	}
	if !strings.Contains(msg.BodyText, "Quarterly numbers") {
		t.Errorf("body = %q", msg.BodyText)
	}
	if msg.HasAttachments {
		t.Error("expected no attachments")
	}
}

func TestStructuredParserGeneratesMessageID(t *testing.T) {
	raw := "From: alice@acme.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: No id\r\n" +
		"Date: Mon, 5 Jan 2026 10:00:00 +0000\r\n" +
		"\r\n" +
		"body\r\n"

	messages, _ := structuredParse(t, raw)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].MessageID == "" {
		t.Fatal("expected a generated message id")
	}
}

func TestStructuredParserDropsMessageMissingRequiredHeaders(t *testing.T) {
	raw := "From: alice@acme.com\r\n" +
		"Date: Mon, 5 Jan 2026 10:00:00 +0000\r\n" +
		"\r\n" +
		"no recipient or subject\r\n"

	p := &StructuredParser{}
	messages, warnings, err := p.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected message to be dropped, got %d", len(messages))
	}
	if len(warnings) == 0 {
		t.Fatal("expected a dropped-message warning")
	}
}

func TestStructuredParserUnparseableDateFallsBack(t *testing.T) {
	raw := "From: alice@acme.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Bad date\r\n" +
		"Date: sometime last week\r\n" +
		"\r\n" +
		"body\r\n"

	before := time.Now().Add(-time.Minute)
	messages, warnings := structuredParse(t, raw)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].Date.Before(before) {
		t.Fatalf("expected processing-time fallback, got %v", messages[0].Date)
	}

	found := false
	for _, w := range warnings {
		if strings.Contains(w, "could not be parsed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a date warning, got %v", warnings)
	}
}

func TestStructuredParserMultipartPrefersPlainText(t *testing.T) {
	raw := "From: alice@acme.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Multipart\r\n" +
		"Date: Mon, 5 Jan 2026 10:00:00 +0000\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"Plain caf=C3=A9 text\r\n" +
		"--b1\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>HTML caf&eacute; text</p>\r\n" +
		"--b1--\r\n"

	messages, _ := structuredParse(t, raw)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if !strings.Contains(msg.BodyText, "Plain café text") {
		t.Errorf("body text = %q", msg.BodyText)
	}
	if !strings.Contains(msg.BodyHTML, "HTML caf&eacute; text") {
		t.Errorf("body html = %q", msg.BodyHTML)
	}
}

func TestStructuredParserHTMLOnlyDerivesText(t *testing.T) {
	raw := "From: alice@acme.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: HTML only\r\n" +
		"Date: Mon, 5 Jan 2026 10:00:00 +0000\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><body><p>First &amp; foremost</p><p>Second point</p></body></html>\r\n"

	messages, _ := structuredParse(t, raw)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if msg.BodyText == "" {
		t.Fatal("expected body text derived from HTML")
	}
	if strings.Contains(msg.BodyText, "<p>") {
		t.Errorf("tags not stripped: %q", msg.BodyText)
	}
	if !strings.Contains(msg.BodyText, "First & foremost") {
		t.Errorf("entities not decoded: %q", msg.BodyText)
	}
}

func TestStructuredParserAttachmentHeuristic(t *testing.T) {
	raw := "From: alice@acme.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Report\r\n" +
		"Date: Mon, 5 Jan 2026 10:00:00 +0000\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"b1\"\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"See attached.\r\n" +
		"--b1\r\n" +
		"Content-Type: application/pdf\r\n" +
		"Content-Disposition: attachment; filename=\"q4-report.pdf\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"JVBERi0=\r\n" +
		"--b1--\r\n"

	messages, _ := structuredParse(t, raw)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if !msg.HasAttachments {
		t.Fatal("expected attachment to be detected")
	}
	if len(msg.AttachmentNames) != 1 || msg.AttachmentNames[0] != "q4-report.pdf" {
		t.Errorf("attachment names = %v", msg.AttachmentNames)
	}
}

func TestStructuredParserMboxSplitsMessages(t *testing.T) {
	mbox := "From alice@acme.com Mon Jan  5 10:00:00 2026\n" +
		"From: alice@acme.com\n" +
		"To: bob@example.com\n" +
		"Subject: First\n" +
		"Date: Mon, 5 Jan 2026 10:00:00 +0000\n" +
		"\n" +
		"first body\n" +
		"\n" +
		"From bob@example.com Mon Jan  5 11:00:00 2026\n" +
		"From: bob@example.com\n" +
		"To: alice@acme.com\n" +
		"Subject: Re: First\n" +
		"Date: Mon, 5 Jan 2026 11:00:00 +0000\n" +
		"\n" +
		"second body\n"

	messages, _ := structuredParse(t, mbox)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].From.Email != "alice@acme.com" {
		t.Errorf("first sender = %q", messages[0].From.Email)
	}
	if messages[1].From.Email != "bob@example.com" {
		t.Errorf("second sender = %q", messages[1].From.Email)
	}
}
