// Package mailbox is the upstream sync source: it fetches raw message bytes
// from an IMAP folder and hands them to the parsing engine. It never decodes
// messages itself.
package mailbox

import (
	"crypto/tls"
	"fmt"
	"io"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"

	"github.com/aacamara/mailthread/internal/config"
)

// Client wraps an IMAP connection to the configured mailbox
type Client struct {
	config    *config.MailboxConfig
	client    *client.Client
	logger    *logrus.Logger
	connected bool
}

// NewClient creates a new mailbox client (does not connect immediately)
func NewClient(cfg *config.MailboxConfig, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		config: cfg,
		logger: logger,
	}
}

// Connect establishes a connection to the IMAP server
func (c *Client) Connect() error {
	if c.connected && c.client != nil {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)

	cl, err := client.DialTLS(addr, &tls.Config{
		ServerName: c.config.Host,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	c.client = cl

	if err := c.client.Login(c.config.Username, c.config.Password); err != nil {
		c.logger.WithError(err).Error("Failed to login to IMAP server")
		c.client.Logout() //nolint:errcheck
		c.client = nil
		return fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	c.connected = true
	c.logger.WithField("host", c.config.Host).Info("Connected to IMAP server")
	return nil
}

// Close closes the IMAP connection
func (c *Client) Close() error {
	if c.client != nil {
		if err := c.client.Logout(); err != nil {
			return err
		}
		c.client = nil
		c.connected = false
	}
	return nil
}

// FetchRaw fetches up to limit of the most recent messages from the
// configured folder as raw RFC 822 blobs, oldest first.
func (c *Client) FetchRaw(limit uint32) ([][]byte, error) {
	if err := c.Connect(); err != nil {
		return nil, err
	}

	mbox, err := c.client.Select(c.config.Folder, true)
	if err != nil {
		return nil, fmt.Errorf("failed to select folder: %w", err)
	}

	if mbox.Messages == 0 {
		return nil, nil
	}

	start := uint32(1)
	if limit > 0 && mbox.Messages > limit {
		start = mbox.Messages - limit + 1
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddRange(start, mbox.Messages)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)

	go func() {
		done <- c.client.Fetch(seqSet, items, messages)
	}()

	var raws [][]byte
	for msg := range messages {
		raw := readBodySection(msg)
		if len(raw) == 0 {
			c.logger.WithField("uid", msg.Uid).Warn("Message had no body content")
			continue
		}
		raws = append(raws, raw)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"folder":   c.config.Folder,
		"messages": len(raws),
	}).Info("Fetched raw messages")

	return raws, nil
}

// readBodySection pulls the first non-empty body literal off a fetched
// message, whatever section key the server used.
func readBodySection(msg *imap.Message) []byte {
	for _, literal := range msg.Body {
		if literal == nil {
			continue
		}
		raw, err := io.ReadAll(literal)
		if err == nil && len(raw) > 0 {
			return raw
		}
	}
	return nil
}
