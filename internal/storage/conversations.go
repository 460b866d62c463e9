package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

const conversationColumns = `id, participants, coalesce(job_id, ''), coalesce(job_title, ''),
	last_message, unread_count, typing, created_at, updated_at`

// CreateConversation creates a conversation document with zero-initialized
// unread counters for both participants and returns its id
func (s *Store) CreateConversation(ctx context.Context, conv NewConversation) (string, error) {
	s.logger.Debugf("Creating conversation between %s and %s (job: %q)",
		conv.Participants[0], conv.Participants[1], conv.JobID)

	unread, err := json.Marshal(map[string]int{
		conv.Participants[0]: 0,
		conv.Participants[1]: 0,
	})
	if err != nil {
		return "", err
	}

	id := newID()
	sql := `insert into conversations (id, participants, job_id, job_title, unread_count)
			values ($1, $2, nullif($3, ''), nullif($4, ''), $5)`
	_, err = s.db.Exec(ctx, sql, id, conv.Participants[:], conv.JobID, conv.JobTitle, unread)
	if err != nil {
		return "", err
	}

	s.logger.Debugf("Created conversation with id %s", id)

	return id, nil
}

// ConversationByID returns a single conversation document
func (s *Store) ConversationByID(ctx context.Context, id string) (Conversation, error) {
	sql := `select ` + conversationColumns + ` from conversations where id = $1`

	c, err := scanConversation(s.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conversation{}, ErrConversationNotExist
		}
		return Conversation{}, err
	}

	return c, nil
}

// ConversationsByParticipant returns all conversations containing user,
// most recently updated first. Containment mirrors the array-membership
// lookup the conversation list is queried by.
func (s *Store) ConversationsByParticipant(ctx context.Context, userID string) ([]Conversation, error) {
	s.logger.Debugf("Retrieving conversations for user %s", userID)

	sql := `select ` + conversationColumns + `
			  from conversations
			 where participants @> array[$1]::text[]
			 order by updated_at desc`

	rows, err := s.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d conversations", len(conversations))

	return conversations, nil
}

// UpdateConversationSummary writes back the denormalized last-message
// snapshot and the full unread-counter map, bumping updated_at
func (s *Store) UpdateConversationSummary(ctx context.Context, id string, last LastMessage, unread map[string]int) error {
	s.logger.Debugf("Updating summary of conversation %s", id)

	lastJSON, err := json.Marshal(last)
	if err != nil {
		return err
	}
	unreadJSON, err := json.Marshal(unread)
	if err != nil {
		return err
	}

	sql := `update conversations
			   set last_message = $2, unread_count = $3, updated_at = now()
			 where id = $1`
	tag, err := s.db.Exec(ctx, sql, id, lastJSON, unreadJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotExist
	}

	return nil
}

// MarkMessagesRead flips every unread message addressed to userID in the
// conversation and resets the user's unread counter to zero. Both writes go
// through a single transaction batch so no partial read state is observable.
func (s *Store) MarkMessagesRead(ctx context.Context, conversationID, userID string) error {
	s.logger.Debugf("Marking messages as read in conversation %s for user %s", conversationID, userID)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	// error handling can be omitted for rollback according docs
	// see https://pkg.go.dev/github.com/jackc/pgx/v4?tab=doc#hdr-Transactions or any source comment on Rollback
	defer tx.Rollback(context.Background())

	batch := &pgx.Batch{}
	batch.Queue(
		`update messages
			set read = true
		  where conversation_id = $1 and receiver_id = $2 and read = false`,
		conversationID, userID,
	)
	batch.Queue(
		`update conversations
			set unread_count = coalesce(unread_count, '{}'::jsonb) || jsonb_build_object($2::text, 0)
		  where id = $1`,
		conversationID, userID,
	)

	results := tx.SendBatch(ctx, batch)

	if _, err := results.Exec(); err != nil {
		results.Close()
		return err
	}
	tag, err := results.Exec()
	if err != nil {
		results.Close()
		return err
	}
	if err := results.Close(); err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrConversationNotExist
	}

	return tx.Commit(ctx)
}

// SetTyping merges a single per-user typing flag into the conversation.
// updated_at is left untouched so typing does not reorder conversation lists.
func (s *Store) SetTyping(ctx context.Context, conversationID, userID string, isTyping bool) error {
	sql := `update conversations
			   set typing = coalesce(typing, '{}'::jsonb) || jsonb_build_object($2::text, $3::bool)
			 where id = $1`

	tag, err := s.db.Exec(ctx, sql, conversationID, userID, isTyping)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotExist
	}

	return nil
}

// DeleteConversation removes a conversation; its messages go with it via
// the on delete cascade on messages.conversation_id
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	s.logger.Debugf("Deleting conversation %s", id)

	tag, err := s.db.Exec(ctx, `delete from conversations where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotExist
	}

	return nil
}

func scanConversation(row pgx.Row) (Conversation, error) {
	var (
		c          Conversation
		lastJSON   pgtype.JSONB
		unreadJSON []byte
		typingJSON []byte
	)

	err := row.Scan(
		&c.ID, &c.Participants, &c.JobID, &c.JobTitle,
		&lastJSON, &unreadJSON, &typingJSON, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return Conversation{}, err
	}

	if lastJSON.Status == pgtype.Present {
		var last LastMessage
		if err := json.Unmarshal(lastJSON.Bytes, &last); err != nil {
			return Conversation{}, err
		}
		c.LastMessage = &last
	}

	c.UnreadCount = map[string]int{}
	if len(unreadJSON) > 0 {
		if err := json.Unmarshal(unreadJSON, &c.UnreadCount); err != nil {
			return Conversation{}, err
		}
	}

	c.Typing = map[string]bool{}
	if len(typingJSON) > 0 {
		if err := json.Unmarshal(typingJSON, &c.Typing); err != nil {
			return Conversation{}, err
		}
	}

	return c, nil
}
