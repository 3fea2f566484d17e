// Package state keeps the chat to document session mapping of the bot
package state

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Sessions maps a Telegram chat to the document session it uploads into.
// Mappings expire after ttl without activity; a ttl of zero keeps them.
type Sessions struct {
	mu    sync.Mutex
	chats *cache.Cache
	newID func() string
}

func NewSessions(ttl time.Duration) *Sessions {
	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration, cleanup = ttl, ttl/2
	}
	return &Sessions{
		chats: cache.New(expiration, cleanup),
		newID: func() string { return uuid.New().String() },
	}
}

// Current returns the session of the chat, starting one when there is none
func (s *Sessions) Current(chatID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := chatKey(chatID)
	if v, ok := s.chats.Get(key); ok {
		id := v.(string)
		s.chats.SetDefault(key, id)
		return id
	}

	id := s.newID()
	s.chats.SetDefault(key, id)
	return id
}

// Lookup returns the session of the chat without creating one
func (s *Sessions) Lookup(chatID int64) (string, bool) {
	v, ok := s.chats.Get(chatKey(chatID))
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Reset replaces the session of the chat and returns the previous one
func (s *Sessions) Reset(chatID int64) (previous, current string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := chatKey(chatID)
	if v, ok := s.chats.Get(key); ok {
		previous = v.(string)
	}

	current = s.newID()
	s.chats.SetDefault(key, current)
	return previous, current
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
