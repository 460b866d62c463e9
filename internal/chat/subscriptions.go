package chat

import (
	"context"
	"sync"
)

// SubscribeToMessages establishes a live query over the conversation's
// messages, ordered by server creation time ascending. The full translated
// list is delivered to onData immediately and again after every change;
// each delivery is the authoritative complete list, not an increment.
// The returned function tears the subscription down and is safe to call
// more than once.
func (s *Service) SubscribeToMessages(conversationID string, onData func([]Message)) func() {
	return s.subscribe(messagesTopic(conversationID), nil, func(ctx context.Context) error {
		raw, err := s.store.MessagesByConversationID(ctx, conversationID)
		if err != nil {
			return err
		}
		onData(toMessages(raw))
		return nil
	})
}

// SubscribeToConversations establishes a live query over the user's
// conversation list, most recently updated first, with the same snapshot
// semantics as SubscribeToMessages. Query errors go to onError when one is
// supplied and are logged otherwise; either way the subscription stays
// alive until the returned function is called.
func (s *Service) SubscribeToConversations(userID string, onData func([]Conversation), onError func(error)) func() {
	return s.subscribe(conversationsTopic(userID), onError, func(ctx context.Context) error {
		raw, err := s.store.ConversationsByParticipant(ctx, userID)
		if err != nil {
			return err
		}
		onData(toConversations(raw))
		return nil
	})
}

func (s *Service) subscribe(topic string, onError func(error), deliver func(context.Context) error) func() {
	changes, cancel := s.notifier.Subscribe(topic)
	done := make(chan struct{})

	report := func(err error) {
		if onError != nil {
			onError(err)
			return
		}
		s.logger.Errorf("live query on %s: %v", topic, err)
	}

	go func() {
		if err := deliver(context.Background()); err != nil {
			report(err)
		}

		for {
			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
				if err := deliver(context.Background()); err != nil {
					report(err)
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			close(done)
		})
	}
}
