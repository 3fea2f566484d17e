package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/futig/docqa-backend/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	inactiveUserTTL = time.Hour
	cleanupInterval = 10 * time.Minute
	warningInterval = 30 * time.Second
)

// userLimit tracks rate limit state for a single user
type userLimit struct {
	limiter       *rate.Limiter
	mu            sync.Mutex
	warningsSent  int
	lastWarningAt time.Time
}

// RateLimiterMiddleware applies a token bucket per user. Users that stay
// quiet for an hour are forgotten.
type RateLimiterMiddleware struct {
	mu              sync.Mutex
	users           *cache.Cache
	limit           rate.Limit
	burst           int
	warningInterval time.Duration
	now             func() time.Time
	logger          *zap.Logger
	sender          Sender
}

// NewRateLimiterMiddleware creates a new rate limiter middleware
func NewRateLimiterMiddleware(
	requestsPerMinute int,
	burstSize int,
	logger *zap.Logger,
	sender Sender,
) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		users:           cache.New(inactiveUserTTL, cleanupInterval),
		limit:           rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:           burstSize,
		warningInterval: warningInterval,
		now:             time.Now,
		logger:          logger,
		sender:          sender,
	}
}

// Handle drops the update when the user is over the limit
func (rl *RateLimiterMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	userID, chatID, ok := origin(update)
	if !ok {
		next(update)
		return
	}

	if !rl.allowRequest(userID, chatID) {
		rl.logger.Warn("rate limit exceeded",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", chatID),
		)
		return
	}

	next(update)
}

func (rl *RateLimiterMiddleware) allowRequest(userID, chatID int64) bool {
	limit := rl.userLimit(userID)

	limit.mu.Lock()
	defer limit.mu.Unlock()

	now := rl.now()
	if limit.limiter.AllowN(now, 1) {
		limit.warningsSent = 0
		return true
	}

	if now.Sub(limit.lastWarningAt) > rl.warningInterval {
		limit.warningsSent++
		limit.lastWarningAt = now
		rl.sendRateLimitWarning(chatID, limit.warningsSent)
	}

	return false
}

func (rl *RateLimiterMiddleware) userLimit(userID int64) *userLimit {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := strconv.FormatInt(userID, 10)
	if v, ok := rl.users.Get(key); ok {
		rl.users.SetDefault(key, v)
		return v.(*userLimit)
	}

	limit := &userLimit{limiter: rate.NewLimiter(rl.limit, rl.burst)}
	rl.users.SetDefault(key, limit)
	return limit
}

func (rl *RateLimiterMiddleware) sendRateLimitWarning(chatID int64, warningCount int) {
	text := render.ErrRateLimited
	switch {
	case warningCount == 2:
		text = render.ErrRateLimited2
	case warningCount >= 3:
		text = render.ErrRateLimitedHi
	}

	if _, err := rl.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		rl.logger.Error("failed to send rate limit warning",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}
