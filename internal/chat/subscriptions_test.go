package chat

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitForMessages(t *testing.T, snapshots <-chan []Message, n int) []Message {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-snapshots:
			if len(snap) == n {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a snapshot with %d messages", n)
		}
	}
}

func waitForConversations(t *testing.T, snapshots <-chan []Conversation, match func([]Conversation) bool) []Conversation {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-snapshots:
			if match(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for a matching conversation snapshot")
		}
	}
}

func TestSubscribeToMessagesDeliversFullSnapshots(t *testing.T) {
	s, _, _ := bootstrap(t)
	ctx := context.Background()

	id, err := s.GetOrCreateConversation(ctx, "u1", "u2", "", "")
	require.NoError(t, err)

	snapshots := make(chan []Message, 16)
	unsubscribe := s.SubscribeToMessages(id, func(messages []Message) {
		snapshots <- messages
	})
	defer unsubscribe()

	// the initial snapshot arrives without any change happening
	waitForMessages(t, snapshots, 0)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.SendMessage(ctx, SendMessageParams{
			ConversationID: id,
			SenderID:       "u1",
			SenderName:     "Alice",
			ReceiverID:     "u2",
			Content:        "msg " + strconv.Itoa(i),
		}))

		// every delivery is the complete list, not a diff
		snap := waitForMessages(t, snapshots, i)
		require.Equal(t, "msg "+strconv.Itoa(i), snap[len(snap)-1].Content)
	}
}

func TestSubscribeToMessagesOrdering(t *testing.T) {
	s, _, _ := bootstrap(t)
	ctx := context.Background()

	id, err := s.GetOrCreateConversation(ctx, "u1", "u2", "", "")
	require.NoError(t, err)

	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		require.NoError(t, s.SendMessage(ctx, SendMessageParams{
			ConversationID: id,
			SenderID:       "u1",
			SenderName:     "Alice",
			ReceiverID:     "u2",
			Content:        content,
		}))
	}

	snapshots := make(chan []Message, 16)
	unsubscribe := s.SubscribeToMessages(id, func(messages []Message) {
		snapshots <- messages
	})
	defer unsubscribe()

	snap := waitForMessages(t, snapshots, len(contents))
	for i, content := range contents {
		require.Equal(t, content, snap[i].Content)
		if i > 0 {
			require.True(t, snap[i-1].CreatedAt.Before(snap[i].CreatedAt))
		}
	}
}

func TestUnsubscribeStopsDeliveries(t *testing.T) {
	s, _, _ := bootstrap(t)
	ctx := context.Background()

	id, err := s.GetOrCreateConversation(ctx, "u1", "u2", "", "")
	require.NoError(t, err)

	snapshots := make(chan []Message, 16)
	unsubscribe := s.SubscribeToMessages(id, func(messages []Message) {
		snapshots <- messages
	})

	waitForMessages(t, snapshots, 0)

	unsubscribe()
	// calling unsubscribe again is a no-op
	unsubscribe()

	require.NoError(t, s.SendMessage(ctx, SendMessageParams{
		ConversationID: id,
		SenderID:       "u1",
		SenderName:     "Alice",
		ReceiverID:     "u2",
		Content:        "after unsubscribe",
	}))

	select {
	case snap := <-snapshots:
		require.Empty(t, snap, "no delivery expected after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeToConversationsOrdering(t *testing.T) {
	s, _, _ := bootstrap(t)
	ctx := context.Background()

	older, err := s.GetOrCreateConversation(ctx, "u1", "u2", "", "")
	require.NoError(t, err)
	newer, err := s.GetOrCreateConversation(ctx, "u1", "u3", "", "")
	require.NoError(t, err)

	snapshots := make(chan []Conversation, 16)
	unsubscribe := s.SubscribeToConversations("u1", func(conversations []Conversation) {
		snapshots <- conversations
	}, nil)
	defer unsubscribe()

	waitForConversations(t, snapshots, func(snap []Conversation) bool {
		return len(snap) == 2 && snap[0].ID == newer
	})

	// a message into the older conversation moves it to the top
	require.NoError(t, s.SendMessage(ctx, SendMessageParams{
		ConversationID: older,
		SenderID:       "u2",
		SenderName:     "Bob",
		ReceiverID:     "u1",
		Content:        "ping",
	}))

	snap := waitForConversations(t, snapshots, func(snap []Conversation) bool {
		return len(snap) == 2 && snap[0].ID == older && snap[0].LastMessage != nil
	})
	require.Equal(t, "ping", snap[0].LastMessage.Content)
	require.Equal(t, 1, snap[0].UnreadCount["u1"])
}

func TestSubscribeToConversationsErrorCallback(t *testing.T) {
	s, store, notifier := bootstrap(t)
	ctx := context.Background()

	_, err := s.GetOrCreateConversation(ctx, "u1", "u2", "", "")
	require.NoError(t, err)

	store.setConversationsErr(errors.New("store unavailable"))

	errs := make(chan error, 16)
	snapshots := make(chan []Conversation, 16)
	unsubscribe := s.SubscribeToConversations("u1", func(conversations []Conversation) {
		snapshots <- conversations
	}, func(err error) {
		errs <- err
	})
	defer unsubscribe()

	select {
	case err := <-errs:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the error callback")
	}

	// the subscription survives the error: once the store recovers, the
	// next change produces a snapshot again
	store.setConversationsErr(nil)
	require.NoError(t, notifier.Publish(ctx, conversationsTopic("u1")))

	waitForConversations(t, snapshots, func(snap []Conversation) bool {
		return len(snap) == 1
	})
}

func TestSubscribeToMessagesErrorLoggedWithoutCallback(t *testing.T) {
	s, store, notifier := bootstrap(t)
	ctx := context.Background()

	id, err := s.GetOrCreateConversation(ctx, "u1", "u2", "", "")
	require.NoError(t, err)

	store.setMessagesErr(errors.New("store unavailable"))

	snapshots := make(chan []Message, 16)
	unsubscribe := s.SubscribeToMessages(id, func(messages []Message) {
		snapshots <- messages
	})
	defer unsubscribe()

	// errors without a callback are swallowed; recovery still works
	store.setMessagesErr(nil)
	require.NoError(t, notifier.Publish(ctx, messagesTopic(id)))

	waitForMessages(t, snapshots, 0)
}
