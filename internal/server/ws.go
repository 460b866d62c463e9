package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/chat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// conversationsWS streams the caller's conversation-list snapshots over a
// websocket. Each frame is the complete current list; the client replaces
// its state on every frame rather than merging.
func (h *handler) conversationsWS(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := userFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("upgrading conversation feed for %s: %v", userID, err)
		return
	}
	defer conn.Close()

	unsubscribe := h.chat.SubscribeToConversations(userID,
		func(conversations []chat.Conversation) {
			if err := conn.WriteJSON(conversations); err != nil {
				h.logger.Debugf("conversation feed write for %s: %v", userID, err)
			}
		},
		func(err error) {
			h.logger.Errorf("conversation feed for %s: %v", userID, err)
		},
	)
	defer unsubscribe()

	// hold the subscription open until the peer goes away
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// messagesWS streams message-list snapshots of one conversation, with the
// same full-snapshot framing as conversationsWS.
func (h *handler) messagesWS(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := userFromContext(r.Context()); !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	conversationID := r.URL.Query().Get("conversation")
	if conversationID == "" {
		http.Error(w, "Query parameter \"conversation\" is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("upgrading message feed for conversation %s: %v", conversationID, err)
		return
	}
	defer conn.Close()

	unsubscribe := h.chat.SubscribeToMessages(conversationID, func(messages []chat.Message) {
		if err := conn.WriteJSON(messages); err != nil {
			h.logger.Debugf("message feed write for conversation %s: %v", conversationID, err)
		}
	})
	defer unsubscribe()

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
