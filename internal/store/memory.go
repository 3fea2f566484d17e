package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps chunks in process memory, partitioned by session id.
// A session bucket is removed as a whole on delete. Writers that raced with
// the delete notice the bucket was dropped and write into a fresh one.
type MemoryStore struct {
	mu       sync.Mutex
	sessions *cache.Cache
}

type bucket struct {
	mu      sync.RWMutex
	chunks  map[string]entity.Chunk
	dropped bool
}

// NewMemoryStore creates a store. Sessions that receive no writes for ttl are
// evicted; a ttl of zero disables expiry.
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	expiration := cache.NoExpiration
	if ttl > 0 {
		expiration = ttl
	} else {
		cleanupInterval = 0
	}

	c := cache.New(expiration, cleanupInterval)
	c.OnEvicted(func(_ string, v interface{}) {
		if b, ok := v.(*bucket); ok {
			b.drop()
		}
	})

	return &MemoryStore{sessions: c}
}

// Write stores embedded chunks. It rejects the whole batch when any chunk
// has no session, no content or no embedding.
func (s *MemoryStore) Write(ctx context.Context, chunks []entity.Chunk) (int, error) {
	bySession := make(map[string][]entity.Chunk)
	for _, ch := range chunks {
		switch {
		case ch.Meta.SessionID == "":
			return 0, fmt.Errorf("%w: chunk %s has no session id", entity.ErrInvalidParameter, ch.ID)
		case ch.ID == "":
			return 0, fmt.Errorf("%w: chunk without id", entity.ErrInvalidParameter)
		case ch.Content == "":
			return 0, fmt.Errorf("%w: chunk %s has no content", entity.ErrInvalidParameter, ch.ID)
		case len(ch.Embedding) == 0:
			return 0, fmt.Errorf("%w: chunk %s", entity.ErrEmptyEmbedding, ch.ID)
		}
		bySession[ch.Meta.SessionID] = append(bySession[ch.Meta.SessionID], ch)
	}

	written := 0
	for sessionID, group := range bySession {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		for {
			b := s.bucket(sessionID)
			if b.put(group) {
				break
			}
		}
		written += len(group)
	}

	return written, nil
}

// Search returns up to topK chunks of the session ranked by cosine
// similarity to query. Score holds the similarity.
func (s *MemoryStore) Search(ctx context.Context, sessionID string, query []float32, topK int) ([]entity.Chunk, error) {
	if len(query) == 0 {
		return nil, entity.ErrEmptyEmbedding
	}
	if topK <= 0 {
		return nil, nil
	}

	snapshot := s.snapshot(sessionID)
	if len(snapshot) == 0 {
		return nil, ctx.Err()
	}

	scored := make([]entity.Chunk, 0, len(snapshot))
	for _, ch := range snapshot {
		if len(ch.Embedding) != len(query) {
			continue
		}
		ch.Score = cosine(query, ch.Embedding)
		scored = append(scored, ch)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].ID < scored[j].ID
		}
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, ctx.Err()
}

// Filter returns every chunk of the session
func (s *MemoryStore) Filter(_ context.Context, sessionID string) ([]entity.Chunk, error) {
	return s.snapshot(sessionID), nil
}

// Count reports the number of chunks stored for the session
func (s *MemoryStore) Count(_ context.Context, sessionID string) (int, error) {
	v, ok := s.sessions.Get(sessionID)
	if !ok {
		return 0, nil
	}
	b := v.(*bucket)
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.chunks), nil
}

// DeleteSession removes the session bucket and returns how many chunks it held
func (s *MemoryStore) DeleteSession(_ context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.sessions.Get(sessionID)
	if !ok {
		return 0, nil
	}
	n := v.(*bucket).drop()
	s.sessions.Delete(sessionID)
	return n, nil
}

// Sessions reports the number of live sessions
func (s *MemoryStore) Sessions() int {
	return s.sessions.ItemCount()
}

func (s *MemoryStore) bucket(sessionID string) *bucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.sessions.Get(sessionID); ok {
		b := v.(*bucket)
		// refresh expiry on write
		s.sessions.SetDefault(sessionID, b)
		return b
	}

	b := &bucket{chunks: make(map[string]entity.Chunk)}
	s.sessions.SetDefault(sessionID, b)
	return b
}

func (s *MemoryStore) snapshot(sessionID string) []entity.Chunk {
	v, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil
	}
	b := v.(*bucket)

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]entity.Chunk, 0, len(b.chunks))
	for _, ch := range b.chunks {
		out = append(out, ch)
	}
	return out
}

func (b *bucket) put(chunks []entity.Chunk) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dropped {
		return false
	}
	for _, ch := range chunks {
		b.chunks[ch.ID] = ch
	}
	return true
}

func (b *bucket) drop() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.chunks)
	b.dropped = true
	b.chunks = nil
	return n
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
