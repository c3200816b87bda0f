// Package mailparse is the public surface of the thread parsing engine. It
// wires format dispatch, per-format decoding and thread reconstruction behind
// a single Parse call that always returns a structured result, never panics.
package mailparse

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/aacamara/mailthread/internal/parser"
	"github.com/aacamara/mailthread/internal/thread"
	"github.com/aacamara/mailthread/pkg/types"
)

// Input is one parse request: raw artifact bytes plus the file name used for
// format dispatch. InternalDomains scope participant classification to this
// call only; OwnerKey scopes persistence.
type Input struct {
	RawContent      []byte
	FileName        string
	InternalDomains []string
	OwnerKey        string
}

// Result is the structured outcome of a parse. Failures are reported here,
// not thrown, so batch callers can continue past one bad file. Warnings carry
// degraded-but-successful conditions (auto-detected format, scraped binary
// container, unparseable dates).
type Result struct {
	Success  bool          `json:"success"`
	Thread   *types.Thread `json:"thread,omitempty"`
	Error    string        `json:"error,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Sink durably stores a built thread and returns its assigned id. Sink
// failures are logged and never change the parse outcome.
type Sink interface {
	SaveThread(ownerKey string, t *types.Thread) (string, error)
}

// Engine parses email artifacts into threads. Stateless per call; one engine
// may serve concurrent callers.
type Engine struct {
	sink   Sink
	logger *logrus.Logger
}

// NewEngine creates an engine. sink may be nil (parse-only); logger may be
// nil for a default logger.
func NewEngine(sink Sink, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{sink: sink, logger: logger}
}

// Parse decodes the artifact, builds the thread and hands it to the sink as a
// best-effort side effect after construction succeeds.
func (e *Engine) Parse(in Input) Result {
	messages, warnings, err := parser.Parse(in.FileName, in.RawContent)
	if err != nil {
		e.logger.WithError(err).WithField("file", in.FileName).Warn("Parse failed")
		return Result{Success: false, Error: errorMessage(err), Warnings: warnings}
	}

	builder := thread.NewBuilder(thread.NewClassifier(in.InternalDomains))
	t, err := builder.Build(messages)
	if err != nil {
		// Build only fails on an empty batch, which the parser already
		// maps to ErrNoMessages; kept as a guard.
		return Result{Success: false, Error: errorMessage(parser.ErrNoMessages), Warnings: warnings}
	}

	e.logger.WithFields(logrus.Fields{
		"file":     in.FileName,
		"messages": t.MessageCount,
		"subject":  t.Subject,
	}).Info("Parsed email thread")

	if e.sink != nil {
		if id, err := e.sink.SaveThread(in.OwnerKey, t); err != nil {
			e.logger.WithError(err).WithField("subject", t.Subject).Error("Failed to persist thread")
		} else {
			t.ID = id
		}
	}

	return Result{Success: true, Thread: t, Warnings: warnings}
}

// errorMessage keeps the user-facing taxonomy messages stable.
func errorMessage(err error) string {
	if errors.Is(err, parser.ErrNoMessages) {
		return parser.ErrNoMessages.Error()
	}
	return err.Error()
}
