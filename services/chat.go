package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/riserecover/server/models"
	"github.com/riserecover/server/store"
	"github.com/riserecover/server/utils"
)

// maxMessageLength bounds a single chat message in runes.
const maxMessageLength = 500

// Hub fans change notifications out to chat subscribers. A notification carries no
// payload; subscribers re-read the log, so a slow subscriber only ever misses
// intermediate states, never the latest one.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan struct{}]struct{}
	closed bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: map[chan struct{}]struct{}{}}
}

// Subscribe registers a listener. The channel is closed when the returned cancel func
// is called or the hub shuts down.
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Notify wakes every subscriber without blocking.
func (h *Hub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		close(ch)
		delete(h.subs, ch)
	}
}

// Run blocks until ctx is done and then closes the hub.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	h.Close()
	return nil
}

// ChatService is the community message log.
type ChatService struct {
	store *store.Store
	hub   *Hub
	now   Clock
	log   *zap.Logger
}

// NewChatService creates a ChatService that notifies hub on every new message.
func NewChatService(s *store.Store, hub *Hub, now Clock, log *zap.Logger) *ChatService {
	if hub == nil {
		hub = NewHub()
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatService{store: s, hub: hub, now: now, log: log}
}

// Hub returns the notification hub subscribers listen on.
func (s *ChatService) Hub() *Hub { return s.hub }

// Send appends a message from sender. Markup is stripped and blank messages are rejected.
func (s *ChatService) Send(ctx context.Context, sender, content string) (models.ChatMessage, error) {
	content = utils.StripTags(content)
	if content == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	if r := []rune(content); len(r) > maxMessageLength {
		content = string(r[:maxMessageLength])
	}
	id, err := uuid.NewV7()
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("generate message id: %w", err)
	}
	msg := models.ChatMessage{
		ID:             id.String(),
		SenderUsername: sender,
		Content:        content,
		Timestamp:      s.now(),
	}
	if _, err := s.store.AppendMessage(ctx, msg); err != nil {
		return models.ChatMessage{}, err
	}
	s.hub.Notify()
	s.log.Debug("chat message sent", zap.String("sender", sender))
	return msg, nil
}

// List returns the retained messages, oldest first.
func (s *ChatService) List(ctx context.Context) ([]models.ChatMessage, error) {
	return s.store.Messages(ctx)
}
