package mailparse

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/aacamara/mailthread/pkg/types"
)

type fakeSink struct {
	id        string
	err       error
	ownerKeys []string
	saved     []*types.Thread
}

func (f *fakeSink) SaveThread(ownerKey string, t *types.Thread) (string, error) {
	f.ownerKeys = append(f.ownerKeys, ownerKey)
	f.saved = append(f.saved, t)
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

const sampleEml = "From: Alice <alice@acme.com>\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: Re: Kickoff\r\n" +
	"Date: Mon, 5 Jan 2026 10:00:00 +0000\r\n" +
	"\r\n" +
	"Let's get started.\r\n"

func TestEngineParseSuccessAssignsSinkID(t *testing.T) {
	sink := &fakeSink{id: "thread-42"}
	engine := NewEngine(sink, quietLogger())

	result := engine.Parse(Input{
		RawContent:      []byte(sampleEml),
		FileName:        "kickoff.eml",
		InternalDomains: []string{"acme.com"},
		OwnerKey:        "cust-7",
	})

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Thread == nil {
		t.Fatal("expected a thread")
	}
	if result.Thread.ID != "thread-42" {
		t.Errorf("thread id = %q, want sink-assigned id", result.Thread.ID)
	}
	if result.Thread.Subject != "Kickoff" {
		t.Errorf("subject = %q, want normalized %q", result.Thread.Subject, "Kickoff")
	}
	if len(sink.ownerKeys) != 1 || sink.ownerKeys[0] != "cust-7" {
		t.Errorf("sink owner keys = %v", sink.ownerKeys)
	}

	var alice *types.Participant
	for i := range result.Thread.Participants {
		if result.Thread.Participants[i].Email == "alice@acme.com" {
			alice = &result.Thread.Participants[i]
		}
	}
	if alice == nil || !alice.IsInternal {
		t.Errorf("alice should be classified internal: %+v", alice)
	}
}

func TestEngineSinkFailureDoesNotChangeOutcome(t *testing.T) {
	sink := &fakeSink{err: errors.New("disk full")}
	engine := NewEngine(sink, quietLogger())

	result := engine.Parse(Input{RawContent: []byte(sampleEml), FileName: "kickoff.eml"})

	if !result.Success {
		t.Fatalf("sink failure must not fail the parse, got error %q", result.Error)
	}
	if result.Thread == nil {
		t.Fatal("expected a thread despite sink failure")
	}
	if result.Thread.ID != "" {
		t.Errorf("thread id should stay empty when the sink fails, got %q", result.Thread.ID)
	}
	if len(sink.saved) != 1 {
		t.Errorf("sink should have been invoked once, got %d", len(sink.saved))
	}
}

func TestEngineNilSinkParsesInMemory(t *testing.T) {
	engine := NewEngine(nil, quietLogger())

	result := engine.Parse(Input{RawContent: []byte(sampleEml), FileName: "kickoff.eml"})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if result.Thread.ID != "" {
		t.Errorf("thread id should be empty without a sink, got %q", result.Thread.ID)
	}
}

func TestEngineNoMessagesFound(t *testing.T) {
	engine := NewEngine(nil, quietLogger())

	result := engine.Parse(Input{RawContent: []byte("   \n"), FileName: "empty.txt"})
	if result.Success {
		t.Fatal("expected failure for empty content")
	}
	if result.Error != "No email messages found in the file" {
		t.Fatalf("error = %q", result.Error)
	}
	if result.Thread != nil {
		t.Fatal("no thread expected on failure")
	}
}

func TestEngineUnsupportedFormat(t *testing.T) {
	engine := NewEngine(nil, quietLogger())

	result := engine.Parse(Input{RawContent: []byte("\x89PNG not mail"), FileName: "image.png"})
	if result.Success {
		t.Fatal("expected failure for unsupported format")
	}
	if !strings.Contains(result.Error, "unsupported file format") {
		t.Fatalf("error = %q", result.Error)
	}
}

func TestEngineAutoDetectWarning(t *testing.T) {
	engine := NewEngine(nil, quietLogger())

	content := "From: alice@acme.com\nTo: bob@example.com\nSubject: Note\n\nHello\n"
	result := engine.Parse(Input{RawContent: []byte(content), FileName: "paste.dat"})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}

	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "auto-detected") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an auto-detect warning, got %v", result.Warnings)
	}
}
