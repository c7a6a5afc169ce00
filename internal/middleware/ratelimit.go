package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/emodiary-backend/internal/database"
	"github.com/AnshRaj112/emodiary-backend/pkg/clientip"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the number of requests allowed per window
	RateLimitMaxRequests = 60
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked after exceeding the limit
	BlockedIPDuration = 15 * time.Minute
)

// RateLimitMiddleware is a fixed-window per-IP limiter kept in Redis, so every
// instance shares the same counters. An IP over the limit is blocked for
// BlockedIPDuration. Redis errors let the request through.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := database.RedisClient
		if client == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ipAddress := clientip.RealClientIP(r)
		blockedKey := BlockedIPKeyPrefix + ipAddress

		// Already blocked?
		isBlocked, err := client.Exists(ctx, blockedKey).Result()
		if err == nil && isBlocked > 0 {
			writeTooMany(w, `{"success":false,"message":"Your IP has been temporarily blocked due to excessive requests. Please try again later."}`)
			return
		}

		// Count this request in the current window
		rateLimitKey := RateLimitKeyPrefix + ipAddress
		count, err := client.Incr(ctx, rateLimitKey).Result()
		if err != nil {
			log.Printf("[RateLimit] redis unavailable, allowing %s: %v", ipAddress, err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			// First request opens the window
			client.Expire(ctx, rateLimitKey, RateLimitWindow)
		}

		// Over the limit: block the IP
		if count > RateLimitMaxRequests {
			if err := client.Set(ctx, blockedKey, "1", BlockedIPDuration).Err(); err != nil {
				log.Printf("[RateLimit] failed to block %s: %v", ipAddress, err)
			}
			writeTooMany(w, fmt.Sprintf(`{"success":false,"message":"Rate limit exceeded. Your IP has been temporarily blocked. Please try again later.","retry_after":%d}`, int(BlockedIPDuration.Seconds())))
			return
		}

		// Rate limit headers
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(RateLimitMaxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(RateLimitMaxRequests-count, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(RateLimitWindow).Unix(), 10))

		next.ServeHTTP(w, r)
	})
}

func writeTooMany(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(body))
}
