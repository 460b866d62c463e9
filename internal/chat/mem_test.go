package chat

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/storage"
)

// memStore is an in-memory Store substitute. Timestamps come from a
// monotonic counter so every write gets a strictly later "server" time.
type memStore struct {
	mu            sync.Mutex
	seq           int
	base          time.Time
	conversations map[string]*storage.Conversation
	messages      map[string][]storage.Message

	conversationsErr error // injected failure for conversation list queries
	messagesErr      error // injected failure for message list queries
	typingErr        error // injected failure for typing updates
}

func newMemStore() *memStore {
	return &memStore{
		base:          time.Now().UTC(),
		conversations: map[string]*storage.Conversation{},
		messages:      map[string][]storage.Message{},
	}
}

func (m *memStore) tick() time.Time {
	m.seq++
	return m.base.Add(time.Duration(m.seq) * time.Millisecond)
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return prefix + strconv.Itoa(m.seq)
}

func (m *memStore) CreateConversation(_ context.Context, conv storage.NewConversation) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID("c")
	now := m.tick()
	m.conversations[id] = &storage.Conversation{
		ID:           id,
		Participants: []string{conv.Participants[0], conv.Participants[1]},
		JobID:        conv.JobID,
		JobTitle:     conv.JobTitle,
		UnreadCount: map[string]int{
			conv.Participants[0]: 0,
			conv.Participants[1]: 0,
		},
		Typing:    map[string]bool{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return id, nil
}

func (m *memStore) ConversationByID(_ context.Context, id string) (storage.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[id]
	if !ok {
		return storage.Conversation{}, storage.ErrConversationNotExist
	}

	return copyConversation(c), nil
}

func (m *memStore) ConversationsByParticipant(_ context.Context, userID string) ([]storage.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conversationsErr != nil {
		return nil, m.conversationsErr
	}

	var out []storage.Conversation
	for _, c := range m.conversations {
		for _, p := range c.Participants {
			if p == userID {
				out = append(out, copyConversation(c))
				break
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })

	return out, nil
}

func (m *memStore) UpdateConversationSummary(_ context.Context, id string, last storage.LastMessage, unread map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[id]
	if !ok {
		return storage.ErrConversationNotExist
	}

	c.LastMessage = &last
	c.UnreadCount = map[string]int{}
	for k, v := range unread {
		c.UnreadCount[k] = v
	}
	c.UpdatedAt = m.tick()

	return nil
}

func (m *memStore) MarkMessagesRead(_ context.Context, conversationID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[conversationID]
	if !ok {
		return storage.ErrConversationNotExist
	}

	msgs := m.messages[conversationID]
	for i := range msgs {
		if msgs[i].ReceiverID == userID {
			msgs[i].Read = true
		}
	}
	c.UnreadCount[userID] = 0

	return nil
}

func (m *memStore) SetTyping(_ context.Context, conversationID, userID string, isTyping bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.typingErr != nil {
		return m.typingErr
	}

	c, ok := m.conversations[conversationID]
	if !ok {
		return storage.ErrConversationNotExist
	}
	c.Typing[userID] = isTyping

	return nil
}

func (m *memStore) DeleteConversation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[id]; !ok {
		return storage.ErrConversationNotExist
	}
	delete(m.conversations, id)
	delete(m.messages, id)

	return nil
}

func (m *memStore) CreateMessage(_ context.Context, msg storage.NewMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[msg.ConversationID]; !ok {
		return "", storage.ErrConversationNotExist
	}

	msgType := msg.Type
	if msgType == "" {
		msgType = storage.MessageTypeText
	}

	id := m.nextID("m")
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], storage.Message{
		ID:             id,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderName:     msg.SenderName,
		SenderAvatar:   msg.SenderAvatar,
		ReceiverID:     msg.ReceiverID,
		Content:        msg.Content,
		Type:           msgType,
		MediaURL:       msg.MediaURL,
		CreatedAt:      m.tick(),
	})

	return id, nil
}

func (m *memStore) MessagesByConversationID(_ context.Context, conversationID string) ([]storage.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.messagesErr != nil {
		return nil, m.messagesErr
	}

	msgs := append([]storage.Message(nil), m.messages[conversationID]...)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })

	return msgs, nil
}

func (m *memStore) setConversationsErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversationsErr = err
}

func (m *memStore) setMessagesErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesErr = err
}

func copyConversation(c *storage.Conversation) storage.Conversation {
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.UnreadCount = map[string]int{}
	for k, v := range c.UnreadCount {
		out.UnreadCount[k] = v
	}
	out.Typing = map[string]bool{}
	for k, v := range c.Typing {
		out.Typing[k] = v
	}
	if c.LastMessage != nil {
		last := *c.LastMessage
		out.LastMessage = &last
	}
	return out
}

// memNotifier is an in-process Notifier substitute with per-subscriber
// buffered tick channels.
type memNotifier struct {
	mu   sync.Mutex
	subs map[string][]chan struct{}
}

func newMemNotifier() *memNotifier {
	return &memNotifier{subs: map[string][]chan struct{}{}}
}

func (n *memNotifier) Publish(_ context.Context, topic string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}

	return nil
}

func (n *memNotifier) Subscribe(topic string) (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan struct{}, 16)
	n.subs[topic] = append(n.subs[topic], ch)

	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		subs := n.subs[topic]
		for i, sub := range subs {
			if sub == ch {
				n.subs[topic] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
}
