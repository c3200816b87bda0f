// Package thread reconstructs a single conversation from decoded messages:
// chronological ordering, participant aggregation and subject normalization.
package thread

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aacamara/mailthread/pkg/types"
)

// ErrNoMessages is returned when construction is attempted on an empty batch.
var ErrNoMessages = errors.New("cannot build a thread from zero messages")

// replyPrefixPattern matches one leading reply/forward marker. Applied in a
// loop so stacked markers ("Re: Re: Fwd:") all strip.
var replyPrefixPattern = regexp.MustCompile(`(?i)^(re|fwd|fw|aw|sv)[ \t]*:[ \t]*`)

// NormalizeSubject strips leading reply/forward markers from a subject.
func NormalizeSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	for {
		stripped := replyPrefixPattern.ReplaceAllString(subject, "")
		if stripped == subject {
			return subject
		}
		subject = strings.TrimSpace(stripped)
	}
}

// Classifier decides whether an address belongs to one of the caller's
// internal domains. It is an explicit per-caller value, never global state,
// so independent parse calls can run concurrently.
type Classifier struct {
	domains map[string]struct{}
}

// NewClassifier builds a classifier from a domain list. Domains are matched
// case-insensitively against the part after @.
func NewClassifier(domains []string) *Classifier {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(d, "@")))
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return &Classifier{domains: set}
}

// IsInternal reports whether the address's domain is in the internal set.
func (c *Classifier) IsInternal(email string) bool {
	if c == nil || len(c.domains) == 0 {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	_, ok := c.domains[strings.ToLower(email[at+1:])]
	return ok
}

// Builder assembles threads. Safe for concurrent use; all state lives in the
// per-call message batch.
type Builder struct {
	classifier *Classifier
}

// NewBuilder creates a builder using the given internal-domain classifier
// (nil means no address is internal).
func NewBuilder(classifier *Classifier) *Builder {
	return &Builder{classifier: classifier}
}

// Build sorts the batch chronologically, aggregates participants and derives
// the thread-level fields. The input slice is not modified.
func (b *Builder) Build(messages []types.DecodedMessage) (*types.Thread, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	sorted := make([]types.DecodedMessage, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	participants := b.aggregateParticipants(sorted)

	start := sorted[0].Date
	end := sorted[len(sorted)-1].Date

	thread := &types.Thread{
		Subject:      NormalizeSubject(sorted[0].Subject),
		Messages:     sorted,
		Participants: participants,
		StartDate:    start,
		EndDate:      end,
		DurationMs:   end.Sub(start).Milliseconds(),
		MessageCount: len(sorted),
	}

	for _, msg := range sorted {
		if msg.HasAttachments {
			thread.HasAttachments = true
			break
		}
	}

	return thread, nil
}

// aggregateParticipants walks messages in chronological order, keyed by
// lowercase email. Roles follow the escalation rule (sender > recipient > cc,
// monotonic per thread); isInternal is derived once at first sight.
func (b *Builder) aggregateParticipants(sorted []types.DecodedMessage) []types.Participant {
	byEmail := make(map[string]*types.Participant)
	var order []string

	upsert := func(addr types.Address, role types.ParticipantRole, date time.Time) *types.Participant {
		email := strings.ToLower(addr.Email)
		if email == "" {
			return nil
		}

		p, ok := byEmail[email]
		if !ok {
			p = &types.Participant{
				Email:      email,
				Role:       role,
				FirstSeen:  date,
				LastSeen:   date,
				IsInternal: b.classifier.IsInternal(email),
			}
			byEmail[email] = p
			order = append(order, email)
		}

		if role.Outranks(p.Role) {
			p.Role = role
		}
		if addr.Name != "" {
			p.Name = addr.Name
		}
		if date.Before(p.FirstSeen) {
			p.FirstSeen = date
		}
		if date.After(p.LastSeen) {
			p.LastSeen = date
		}
		return p
	}

	for _, msg := range sorted {
		// Count each message once per participant, whatever mix of
		// headers the address appears in.
		seen := make(map[string]struct{})
		count := func(p *types.Participant) {
			if p == nil {
				return
			}
			if _, dup := seen[p.Email]; dup {
				return
			}
			seen[p.Email] = struct{}{}
			p.MessageCount++
		}

		count(upsert(msg.From, types.RoleSender, msg.Date))
		for _, to := range msg.To {
			count(upsert(to, types.RoleRecipient, msg.Date))
		}
		for _, cc := range msg.Cc {
			count(upsert(cc, types.RoleCc, msg.Date))
		}
	}

	participants := make([]types.Participant, 0, len(order))
	for _, email := range order {
		participants = append(participants, *byEmail[email])
	}
	return participants
}
