package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// ConnectRedis connects to Redis (sessions, diary cache, toggle locks, event fan-out)
func ConnectRedis(redisURI string) error {
	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return err
	}

	// Pool and timeouts
	opt.PoolSize = 10                     // Max connections
	opt.MinIdleConns = 5                  // Warm connections kept open
	opt.MaxRetries = 3                    // Command retries
	opt.DialTimeout = 5 * time.Second     // Connect timeout
	opt.ReadTimeout = 3 * time.Second     // Per-read timeout
	opt.WriteTimeout = 3 * time.Second    // Per-write timeout
	opt.PoolTimeout = 4 * time.Second     // Wait for a free connection
	opt.ConnMaxIdleTime = 5 * time.Minute // Drop idle connections

	RedisClient = redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Verify the connection
	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return err
	}

	log.Println("✅ Connected to Redis")
	return nil
}

// DisconnectRedis closes the Redis connection
func DisconnectRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}
