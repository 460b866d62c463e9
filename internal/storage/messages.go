package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

// CreateMessage appends a message document with read = false and a
// server-assigned timestamp, returning its id
func (s *Store) CreateMessage(ctx context.Context, msg NewMessage) (string, error) {
	s.logger.Debugf("Creating message from %s in conversation %s", msg.SenderID, msg.ConversationID)

	msgType := msg.Type
	if msgType == "" {
		msgType = MessageTypeText
	}

	id := newID()
	sql := `insert into messages (id, conversation_id, sender_id, sender_name, sender_avatar,
				receiver_id, content, type, media_url)
			values ($1, $2, $3, $4, nullif($5, ''), $6, $7, $8, nullif($9, ''))`
	_, err := s.db.Exec(ctx, sql, id, msg.ConversationID, msg.SenderID, msg.SenderName,
		msg.SenderAvatar, msg.ReceiverID, msg.Content, msgType, msg.MediaURL)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.ForeignKeyViolation {
				return "", ErrConversationNotExist
			}
		}
		return "", err
	}

	return id, nil
}

// MessagesByConversationID returns all messages of a conversation sorted by
// server creation time (from earliest to latest)
func (s *Store) MessagesByConversationID(ctx context.Context, conversationID string) ([]Message, error) {
	s.logger.Debugf("Retrieving messages for conversation %s", conversationID)

	sql := `select id, conversation_id, sender_id, sender_name, coalesce(sender_avatar, ''),
				   receiver_id, content, type, coalesce(media_url, ''), read, created_at
			  from messages
			 where conversation_id = $1
			 order by created_at asc`

	rows, err := s.db.Query(ctx, sql, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d messages", len(messages))

	return messages, nil
}

// UnreadMessages returns the messages addressed to userID not yet marked read
func (s *Store) UnreadMessages(ctx context.Context, conversationID, userID string) ([]Message, error) {
	sql := `select id, conversation_id, sender_id, sender_name, coalesce(sender_avatar, ''),
				   receiver_id, content, type, coalesce(media_url, ''), read, created_at
			  from messages
			 where conversation_id = $1 and receiver_id = $2 and read = false
			 order by created_at asc`

	rows, err := s.db.Query(ctx, sql, conversationID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return messages, nil
}

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.SenderName, &m.SenderAvatar,
		&m.ReceiverID, &m.Content, &m.Type, &m.MediaURL, &m.Read, &m.CreatedAt,
	)
	return m, err
}
