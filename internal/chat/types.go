package chat

import (
	"time"

	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/storage"
)

// Conversation is the UI-facing view of a conversation document. Every
// subscription delivery carries the complete translated list, never a diff.
type Conversation struct {
	ID           string               `json:"id"`
	Participants []string             `json:"participants"`
	JobID        string               `json:"jobId,omitempty"`
	JobTitle     string               `json:"jobTitle,omitempty"`
	LastMessage  *storage.LastMessage `json:"lastMessage,omitempty"`
	UnreadCount  map[string]int       `json:"unreadCount"`
	Typing       map[string]bool      `json:"typing,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// Message is the UI-facing view of a message document.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	SenderAvatar   string    `json:"senderAvatar,omitempty"`
	ReceiverID     string    `json:"receiverId"`
	Content        string    `json:"content"`
	Type           string    `json:"type"`
	MediaURL       string    `json:"mediaUrl,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

// toMessage translates a raw message document, defaulting a blank type tag
// to "text".
func toMessage(m storage.Message) Message {
	msgType := m.Type
	if msgType == "" {
		msgType = storage.MessageTypeText
	}

	return Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		SenderAvatar:   m.SenderAvatar,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		Type:           msgType,
		MediaURL:       m.MediaURL,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
}

func toMessages(raw []storage.Message) []Message {
	messages := make([]Message, len(raw))
	for i, m := range raw {
		messages[i] = toMessage(m)
	}
	return messages
}

// toConversation translates a raw conversation document. A conversation
// without messages keeps LastMessage nil rather than an empty snapshot, and
// the unread map is always non-nil so missing counters read as zero.
func toConversation(c storage.Conversation) Conversation {
	unread := c.UnreadCount
	if unread == nil {
		unread = map[string]int{}
	}

	return Conversation{
		ID:           c.ID,
		Participants: c.Participants,
		JobID:        c.JobID,
		JobTitle:     c.JobTitle,
		LastMessage:  c.LastMessage,
		UnreadCount:  unread,
		Typing:       c.Typing,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toConversations(raw []storage.Conversation) []Conversation {
	conversations := make([]Conversation, len(raw))
	for i, c := range raw {
		conversations[i] = toConversation(c)
	}
	return conversations
}
