package parser

import (
	"errors"
	"testing"
	"time"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		content    string
		expected   Format
		wantErr    bool
		wantWarned bool
	}{
		{"eml extension", "thread.eml", "", FormatStructured, false, false},
		{"mbox extension", "archive.MBOX", "", FormatStructured, false, false},
		{"msg extension", "outlook.msg", "", FormatBinaryContainer, false, false},
		{"txt extension", "paste.txt", "", FormatTextExport, false, false},
		{"log extension", "export.log", "", FormatTextExport, false, false},
		{"unknown extension with header tokens", "dump.dat", "From: a@b.c\nTo: c@d.e\n", FormatTextExport, false, true},
		{"unknown extension without mail shape", "image.png", "\x89PNG binary junk", FormatUnknown, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, warnings, err := Detect(tt.fileName, []byte(tt.content))
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if format != tt.expected {
				t.Fatalf("Detect() = %v, want %v", format, tt.expected)
			}
			if tt.wantWarned && len(warnings) == 0 {
				t.Fatal("expected an auto-detect warning")
			}
			if !tt.wantWarned && len(warnings) != 0 {
				t.Fatalf("unexpected warnings: %v", warnings)
			}
		})
	}
}

func TestParseEmptyContentYieldsNoMessages(t *testing.T) {
	_, _, err := Parse("empty.txt", []byte("   \n  \n"))
	if !errors.Is(err, ErrNoMessages) {
		t.Fatalf("expected ErrNoMessages, got %v", err)
	}
}

func TestParseDispatchesByExtension(t *testing.T) {
	eml := "From: alice@acme.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Kickoff\r\n" +
		"Date: Mon, 5 Jan 2026 10:00:00 +0000\r\n" +
		"\r\n" +
		"Hello Bob\r\n"

	messages, _, err := Parse("kickoff.eml", []byte(eml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].From.Email != "alice@acme.com" {
		t.Fatalf("unexpected sender: %q", messages[0].From.Email)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"Mon, 5 Jan 2026 15:04:05 +0000", true},
		{"Mon, 5 Jan 2026 15:04:05 +0000 (UTC)", true},
		{"5 Jan 2026 15:04:05 +0000", true},
		{"Mon, Jan 5, 2026 at 3:04 PM", true},
		{"2026-01-05 15:04:05", true},
		{"2026-01-05", true},
		{"1/5/2026 3:04 PM", true},
		{"not a date", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			parsed, ok := ParseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && parsed.IsZero() {
				t.Fatalf("ParseDate(%q) returned zero time with ok=true", tt.input)
			}
		})
	}

	parsed, ok := ParseDate("Mon, 5 Jan 2026 15:04:05 +0000")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	expected := time.Date(2026, time.January, 5, 15, 4, 5, 0, time.UTC)
	if !parsed.Equal(expected) {
		t.Fatalf("ParseDate = %v, want %v", parsed, expected)
	}
}
