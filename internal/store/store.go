package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aacamara/mailthread/pkg/types"
)

// Store provides methods for saving and retrieving parsed threads. It
// implements the engine's persistence sink.
type Store struct {
	db     *DB
	logger *logrus.Logger
}

// NewStore creates a new store instance
func NewStore(db *DB, logger *logrus.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// SaveThread stores a thread with its messages and participants in one
// transaction and returns the assigned thread id.
func (s *Store) SaveThread(ownerKey string, t *types.Thread) (string, error) {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	threadID := uuid.New().String()

	_, err = tx.Exec(`
		INSERT INTO threads (id, owner_key, subject, start_date, end_date, duration_ms, message_count, has_attachments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		threadID,
		ownerKey,
		t.Subject,
		t.StartDate.UTC().Format(time.RFC3339),
		t.EndDate.UTC().Format(time.RFC3339),
		t.DurationMs,
		t.MessageCount,
		t.HasAttachments,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert thread: %w", err)
	}

	for i := range t.Messages {
		if err := insertMessage(tx, threadID, &t.Messages[i]); err != nil {
			return "", err
		}
	}

	for i := range t.Participants {
		if err := insertParticipant(tx, threadID, &t.Participants[i]); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit thread: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"thread_id": threadID,
		"messages":  t.MessageCount,
	}).Info("Thread saved")

	return threadID, nil
}

func insertMessage(tx *sql.Tx, threadID string, msg *types.DecodedMessage) error {
	referencesJSON, err := json.Marshal(msg.References)
	if err != nil {
		return fmt.Errorf("failed to marshal references: %w", err)
	}
	recipientsJSON, err := json.Marshal(msg.To)
	if err != nil {
		return fmt.Errorf("failed to marshal recipients: %w", err)
	}
	ccJSON, err := json.Marshal(msg.Cc)
	if err != nil {
		return fmt.Errorf("failed to marshal cc: %w", err)
	}
	attachmentsJSON, err := json.Marshal(msg.AttachmentNames)
	if err != nil {
		return fmt.Errorf("failed to marshal attachment names: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO messages (thread_id, message_id, in_reply_to, reference_ids, sender_name, sender_email, recipients, cc, subject, date, body_text, body_html, has_attachments, attachment_names)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id, message_id) DO NOTHING`,
		threadID,
		msg.MessageID,
		msg.InReplyTo,
		string(referencesJSON),
		msg.From.Name,
		msg.From.Email,
		string(recipientsJSON),
		string(ccJSON),
		msg.Subject,
		msg.Date.UTC().Format(time.RFC3339),
		msg.BodyText,
		msg.BodyHTML,
		msg.HasAttachments,
		string(attachmentsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func insertParticipant(tx *sql.Tx, threadID string, p *types.Participant) error {
	_, err := tx.Exec(`
		INSERT INTO participants (thread_id, email, name, role, message_count, first_seen, last_seen, is_internal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id, email) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			message_count = excluded.message_count,
			first_seen = excluded.first_seen,
			last_seen = excluded.last_seen`,
		threadID,
		p.Email,
		p.Name,
		string(p.Role),
		p.MessageCount,
		p.FirstSeen.UTC().Format(time.RFC3339),
		p.LastSeen.UTC().Format(time.RFC3339),
		p.IsInternal,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// GetThread retrieves a stored thread by id, including its messages and
// participants.
func (s *Store) GetThread(threadID string) (*types.Thread, error) {
	var (
		t                   types.Thread
		startStr, endStr    string
		ownerKey, createdAt string
	)

	err := s.db.Conn().QueryRow(`
		SELECT id, owner_key, subject, start_date, end_date, duration_ms, message_count, has_attachments, created_at
		FROM threads WHERE id = ?`, threadID).Scan(
		&t.ID,
		&ownerKey,
		&t.Subject,
		&startStr,
		&endStr,
		&t.DurationMs,
		&t.MessageCount,
		&t.HasAttachments,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("thread not found: %s", threadID)
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	if t.StartDate, err = time.Parse(time.RFC3339, startStr); err != nil {
		return nil, fmt.Errorf("failed to parse start date: %w", err)
	}
	if t.EndDate, err = time.Parse(time.RFC3339, endStr); err != nil {
		return nil, fmt.Errorf("failed to parse end date: %w", err)
	}

	if t.Messages, err = s.threadMessages(threadID); err != nil {
		return nil, err
	}
	if t.Participants, err = s.threadParticipants(threadID); err != nil {
		return nil, err
	}

	return &t, nil
}

func (s *Store) threadMessages(threadID string) ([]types.DecodedMessage, error) {
	rows, err := s.db.Conn().Query(`
		SELECT message_id, in_reply_to, reference_ids, sender_name, sender_email, recipients, cc, subject, date, body_text, body_html, has_attachments, attachment_names
		FROM messages WHERE thread_id = ? ORDER BY date ASC, id ASC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []types.DecodedMessage
	for rows.Next() {
		var (
			msg                                     types.DecodedMessage
			inReplyTo                               sql.NullString
			referencesJSON, recipientsJSON          string
			ccJSON, attachmentsJSON, dateStr        string
			senderName, bodyText, bodyHTML, subject sql.NullString
		)

		err := rows.Scan(
			&msg.MessageID,
			&inReplyTo,
			&referencesJSON,
			&senderName,
			&msg.From.Email,
			&recipientsJSON,
			&ccJSON,
			&subject,
			&dateStr,
			&bodyText,
			&bodyHTML,
			&msg.HasAttachments,
			&attachmentsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.InReplyTo = inReplyTo.String
		msg.From.Name = senderName.String
		msg.Subject = subject.String
		msg.BodyText = bodyText.String
		msg.BodyHTML = bodyHTML.String

		if msg.Date, err = time.Parse(time.RFC3339, dateStr); err != nil {
			return nil, fmt.Errorf("failed to parse message date: %w", err)
		}
		if err := json.Unmarshal([]byte(referencesJSON), &msg.References); err != nil {
			return nil, fmt.Errorf("failed to unmarshal references: %w", err)
		}
		if err := json.Unmarshal([]byte(recipientsJSON), &msg.To); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipients: %w", err)
		}
		if err := json.Unmarshal([]byte(ccJSON), &msg.Cc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cc: %w", err)
		}
		if err := json.Unmarshal([]byte(attachmentsJSON), &msg.AttachmentNames); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attachment names: %w", err)
		}

		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (s *Store) threadParticipants(threadID string) ([]types.Participant, error) {
	rows, err := s.db.Conn().Query(`
		SELECT email, name, role, message_count, first_seen, last_seen, is_internal
		FROM participants WHERE thread_id = ? ORDER BY first_seen ASC, id ASC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []types.Participant
	for rows.Next() {
		var (
			p                         types.Participant
			name                      sql.NullString
			role                      string
			firstSeenStr, lastSeenStr string
		)

		err := rows.Scan(&p.Email, &name, &role, &p.MessageCount, &firstSeenStr, &lastSeenStr, &p.IsInternal)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}

		p.Name = name.String
		p.Role = types.ParticipantRole(role)
		if p.FirstSeen, err = time.Parse(time.RFC3339, firstSeenStr); err != nil {
			return nil, fmt.Errorf("failed to parse first seen: %w", err)
		}
		if p.LastSeen, err = time.Parse(time.RFC3339, lastSeenStr); err != nil {
			return nil, fmt.Errorf("failed to parse last seen: %w", err)
		}

		participants = append(participants, p)
	}

	return participants, rows.Err()
}

// SearchMessages runs a full-text query over stored message bodies and
// subjects, returning the most recent hits first.
func (s *Store) SearchMessages(query string, limit int) ([]types.MessageSummary, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.Conn().Query(`
		SELECT m.thread_id, m.subject, m.sender_email, m.date, snippet(messages_fts, 3, '', '', '...', 12)
		FROM messages_fts
		JOIN messages m ON m.id = messages_fts.rowid
		WHERE messages_fts MATCH ?
		ORDER BY m.date DESC
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer rows.Close()

	var hits []types.MessageSummary
	for rows.Next() {
		var (
			hit     types.MessageSummary
			subject sql.NullString
			dateStr string
		)
		if err := rows.Scan(&hit.ThreadID, &subject, &hit.SenderEmail, &dateStr, &hit.Snippet); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hit.Subject = subject.String
		if hit.Date, err = time.Parse(time.RFC3339, dateStr); err != nil {
			return nil, fmt.Errorf("failed to parse hit date: %w", err)
		}
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// ListThreads lists stored threads for an owner (all owners when ownerKey is
// empty), most recent first.
func (s *Store) ListThreads(ownerKey string, limit int) ([]types.ThreadSummary, error) {
	if limit < 1 {
		limit = 50
	}

	query := `
		SELECT id, subject, start_date, end_date, message_count, has_attachments
		FROM threads`
	args := []interface{}{}
	if ownerKey != "" {
		query += " WHERE owner_key = ?"
		args = append(args, ownerKey)
	}
	query += " ORDER BY end_date DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	var threads []types.ThreadSummary
	for rows.Next() {
		var (
			t                types.ThreadSummary
			startStr, endStr string
		)
		if err := rows.Scan(&t.ID, &t.Subject, &startStr, &endStr, &t.MessageCount, &t.HasAttachments); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		if t.StartDate, err = time.Parse(time.RFC3339, startStr); err != nil {
			return nil, fmt.Errorf("failed to parse start date: %w", err)
		}
		if t.EndDate, err = time.Parse(time.RFC3339, endStr); err != nil {
			return nil, fmt.Errorf("failed to parse end date: %w", err)
		}
		threads = append(threads, t)
	}

	return threads, rows.Err()
}
