package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maynagashev/taskkeeper/internal/metrics"
)

// Limiter решает, можно ли выполнить еще один запрос по ключу.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
	Window() time.Duration
}

// incrScript атомарно увеличивает счетчик окна и ставит срок жизни при первом запросе.
var incrScript = redis.NewScript(`
	local current = redis.call("INCR", KEYS[1])
	if current == 1 then
		redis.call("EXPIRE", KEYS[1], ARGV[1])
	end
	return current
`)

// RedisLimiter - ограничитель с фиксированным окном на Redis.
type RedisLimiter struct {
	client   redis.Scripter
	prefix   string
	requests int
	window   time.Duration
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter создает ограничитель: не больше requests запросов за window на ключ.
func NewRedisLimiter(client redis.Scripter, prefix string, requests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, requests: requests, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	windowSeconds := int(l.window.Seconds())
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	count, err := incrScript.Run(ctx, l.client, []string{redisKey}, windowSeconds).Int()
	if err != nil {
		return false, 0, fmt.Errorf("ошибка обращения к Redis: %w", err)
	}

	remaining := max(l.requests-count, 0)
	return count <= l.requests, remaining, nil
}

func (l *RedisLimiter) Limit() int            { return l.requests }
func (l *RedisLimiter) Window() time.Duration { return l.window }

// RateLimit ограничивает частоту запросов аутентифицированного пользователя.
// Ставится после Authenticator. При недоступном ограничителе отвечает 503.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + r.RemoteAddr
			if userID, ok := GetUserIDFromContext(r.Context()); ok {
				key = "user:" + userID.String()
			}

			allowed, remaining, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Printf("[RateLimit] Ограничитель недоступен: %v", err)
				writeJSONError(w, "Сервис временно недоступен", http.StatusServiceUnavailable)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				metrics.VaultReveals.WithLabelValues(metrics.RevealRateLimited).Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.Window().Seconds())))
				writeJSONError(w, "Слишком много попыток, повторите позже", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
