package types

import "time"

// Address is a single normalized email address with an optional display name.
// Email is always lowercase.
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// DecodedMessage represents one email message decoded from an uploaded artifact
type DecodedMessage struct {
	MessageID       string    `json:"message_id"`
	InReplyTo       string    `json:"in_reply_to,omitempty"`
	References      []string  `json:"references,omitempty"`
	From            Address   `json:"from"`
	To              []Address `json:"to"`
	Cc              []Address `json:"cc,omitempty"`
	Subject         string    `json:"subject"`
	Date            time.Time `json:"date"`
	BodyText        string    `json:"body_text"`
	BodyHTML        string    `json:"body_html,omitempty"`
	HasAttachments  bool      `json:"has_attachments"`
	AttachmentNames []string  `json:"attachment_names,omitempty"`
}

// ParticipantRole classifies how an address participated in a thread
type ParticipantRole string

const (
	RoleSender    ParticipantRole = "sender"
	RoleRecipient ParticipantRole = "recipient"
	RoleCc        ParticipantRole = "cc"
)

// rank orders roles for the escalation rule; higher wins.
func (r ParticipantRole) rank() int {
	switch r {
	case RoleSender:
		return 3
	case RoleRecipient:
		return 2
	case RoleCc:
		return 1
	}
	return 0
}

// Outranks reports whether r is a stronger role than other. Within a thread
// a participant's role only escalates (sender > recipient > cc) and never
// downgrades once raised.
func (r ParticipantRole) Outranks(other ParticipantRole) bool {
	return r.rank() > other.rank()
}

// Participant aggregates one unique address across a thread
type Participant struct {
	Name         string          `json:"name,omitempty"`
	Email        string          `json:"email"`
	Role         ParticipantRole `json:"role"`
	MessageCount int             `json:"message_count"`
	FirstSeen    time.Time       `json:"first_seen"`
	LastSeen     time.Time       `json:"last_seen"`
	IsInternal   bool            `json:"is_internal"`
}

// ThreadSummary represents a stored thread in list views
type ThreadSummary struct {
	ID             string    `json:"id"`
	Subject        string    `json:"subject"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	MessageCount   int       `json:"message_count"`
	HasAttachments bool      `json:"has_attachments"`
}

// MessageSummary represents a full-text search hit over stored messages
type MessageSummary struct {
	ThreadID    string    `json:"thread_id"`
	Subject     string    `json:"subject"`
	SenderEmail string    `json:"sender_email"`
	Date        time.Time `json:"date"`
	Snippet     string    `json:"snippet"`
}

// Thread is the reconstructed, chronologically ordered conversation.
// ID is empty until a persistence sink assigns one.
type Thread struct {
	ID             string           `json:"id,omitempty"`
	Subject        string           `json:"subject"`
	Messages       []DecodedMessage `json:"messages"`
	Participants   []Participant    `json:"participants"`
	StartDate      time.Time        `json:"start_date"`
	EndDate        time.Time        `json:"end_date"`
	DurationMs     int64            `json:"duration_ms"`
	MessageCount   int              `json:"message_count"`
	HasAttachments bool             `json:"has_attachments"`
}
