package chat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/storage"
)

// Store is the slice of the document store the messaging core depends on.
// *storage.Store satisfies it; tests substitute an in-memory implementation.
type Store interface {
	CreateConversation(ctx context.Context, conv storage.NewConversation) (string, error)
	ConversationByID(ctx context.Context, id string) (storage.Conversation, error)
	ConversationsByParticipant(ctx context.Context, userID string) ([]storage.Conversation, error)
	UpdateConversationSummary(ctx context.Context, id string, last storage.LastMessage, unread map[string]int) error
	MarkMessagesRead(ctx context.Context, conversationID, userID string) error
	SetTyping(ctx context.Context, conversationID, userID string, isTyping bool) error
	DeleteConversation(ctx context.Context, id string) error
	CreateMessage(ctx context.Context, msg storage.NewMessage) (string, error)
	MessagesByConversationID(ctx context.Context, conversationID string) ([]storage.Message, error)
}

// Notifier is the change feed behind live queries. Publish announces that
// the result set of queries on topic may have changed; Subscribe returns a
// channel ticking on every such announcement plus a cancel function that
// closes the channel.
type Notifier interface {
	Publish(ctx context.Context, topic string) error
	Subscribe(topic string) (<-chan struct{}, func())
}

// Service implements the messaging core: conversation resolution, message
// dispatch, read-state tracking, typing status and live subscriptions.
type Service struct {
	logger   *zap.SugaredLogger
	store    Store
	notifier Notifier
}

func NewService(logger *zap.SugaredLogger, store Store, notifier Notifier) *Service {
	return &Service{
		logger:   logger,
		store:    store,
		notifier: notifier,
	}
}

func messagesTopic(conversationID string) string {
	return "chat:conversation:" + conversationID + ":messages"
}

func conversationsTopic(userID string) string {
	return "chat:user:" + userID + ":conversations"
}

// GetOrCreateConversation finds the conversation pairing both users, scoped
// to jobID when one is given, or creates it. Two concurrent calls for the
// same pair can race and create duplicates: the scan-then-insert is not
// transactional. The race is accepted, matching the store's lack of a
// cross-document uniqueness primitive.
func (s *Service) GetOrCreateConversation(ctx context.Context, currentUserID, otherUserID, jobID, jobTitle string) (string, error) {
	s.logger.Debugf("Resolving conversation between %s and %s (job: %q)", currentUserID, otherUserID, jobID)

	conversations, err := s.store.ConversationsByParticipant(ctx, currentUserID)
	if err != nil {
		return "", err
	}

	for _, c := range conversations {
		if !containsParticipant(c.Participants, otherUserID) {
			continue
		}
		if jobID == "" || c.JobID == jobID {
			return c.ID, nil
		}
	}

	id, err := s.store.CreateConversation(ctx, storage.NewConversation{
		Participants: [2]string{currentUserID, otherUserID},
		JobID:        jobID,
		JobTitle:     jobTitle,
	})
	if err != nil {
		return "", err
	}

	s.notify(ctx, conversationsTopic(currentUserID), conversationsTopic(otherUserID))

	return id, nil
}

// SendMessageParams carries the fields of a message dispatch. Type defaults
// to "text" when blank.
type SendMessageParams struct {
	ConversationID string
	SenderID       string
	SenderName     string
	SenderAvatar   string
	ReceiverID     string
	Content        string
	Type           string
	MediaURL       string
}

// SendMessage appends the message, then folds it into the conversation's
// denormalized summary (last message, receiver's unread counter, updated_at).
// The append always completes before the summary write starts; if the
// summary write fails the message is already durable and the error is
// returned so the caller can retry the whole operation. A retried send
// duplicates the message: the append is not idempotent.
func (s *Service) SendMessage(ctx context.Context, p SendMessageParams) error {
	_, err := s.store.CreateMessage(ctx, storage.NewMessage{
		ConversationID: p.ConversationID,
		SenderID:       p.SenderID,
		SenderName:     p.SenderName,
		SenderAvatar:   p.SenderAvatar,
		ReceiverID:     p.ReceiverID,
		Content:        p.Content,
		Type:           p.Type,
		MediaURL:       p.MediaURL,
	})
	if err != nil {
		return err
	}

	s.notify(ctx, messagesTopic(p.ConversationID))

	conv, err := s.store.ConversationByID(ctx, p.ConversationID)
	if err != nil {
		return err
	}

	// unprotected read-modify-write: concurrent dispatches can lose an
	// increment, see GetOrCreateConversation for the same trade-off
	unread := conv.UnreadCount
	if unread == nil {
		unread = map[string]int{}
	}
	unread[p.ReceiverID]++

	last := storage.LastMessage{
		Content:  p.Content,
		SenderID: p.SenderID,
		SentAt:   time.Now().UTC(),
	}
	if err := s.store.UpdateConversationSummary(ctx, p.ConversationID, last, unread); err != nil {
		return err
	}

	topics := make([]string, 0, len(conv.Participants))
	for _, participant := range conv.Participants {
		topics = append(topics, conversationsTopic(participant))
	}
	s.notify(ctx, topics...)

	return nil
}

// MarkMessagesAsRead flips every unread message addressed to userID in the
// conversation and resets the user's unread counter to zero, atomically.
// Calling it with nothing unread still resets the counter and is a no-op
// beyond that.
func (s *Service) MarkMessagesAsRead(ctx context.Context, conversationID, userID string) error {
	conv, err := s.store.ConversationByID(ctx, conversationID)
	if err != nil {
		return err
	}

	if err := s.store.MarkMessagesRead(ctx, conversationID, userID); err != nil {
		return err
	}

	topics := []string{messagesTopic(conversationID)}
	for _, participant := range conv.Participants {
		topics = append(topics, conversationsTopic(participant))
	}
	s.notify(ctx, topics...)

	return nil
}

// UpdateTypingStatus merges the per-user typing flag into the conversation.
// Best effort: failures are logged and never surfaced, typing indicators
// are advisory only.
func (s *Service) UpdateTypingStatus(ctx context.Context, conversationID, userID string, isTyping bool) {
	if err := s.store.SetTyping(ctx, conversationID, userID, isTyping); err != nil {
		s.logger.Errorf("updating typing status in conversation %s: %v", conversationID, err)
		return
	}

	conv, err := s.store.ConversationByID(ctx, conversationID)
	if err != nil {
		s.logger.Errorf("retrieving conversation %s after typing update: %v", conversationID, err)
		return
	}

	topics := make([]string, 0, len(conv.Participants))
	for _, participant := range conv.Participants {
		topics = append(topics, conversationsTopic(participant))
	}
	s.notify(ctx, topics...)
}

// DeleteConversation removes a conversation and, via the store's cascade,
// all its messages.
func (s *Service) DeleteConversation(ctx context.Context, conversationID string) error {
	conv, err := s.store.ConversationByID(ctx, conversationID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteConversation(ctx, conversationID); err != nil {
		return err
	}

	topics := []string{messagesTopic(conversationID)}
	for _, participant := range conv.Participants {
		topics = append(topics, conversationsTopic(participant))
	}
	s.notify(ctx, topics...)

	return nil
}

// notify publishes change announcements, logging failures: a missed
// notification only delays the next snapshot, it never corrupts state.
func (s *Service) notify(ctx context.Context, topics ...string) {
	for _, topic := range topics {
		if err := s.notifier.Publish(ctx, topic); err != nil {
			s.logger.Errorf("publishing change on %s: %v", topic, err)
		}
	}
}

func containsParticipant(participants []string, userID string) bool {
	for _, p := range participants {
		if p == userID {
			return true
		}
	}
	return false
}
