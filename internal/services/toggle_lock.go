package services

import (
	"context"
	"time"

	"github.com/AnshRaj112/emodiary-backend/internal/database"
)

const (
	// ToggleLockKeyPrefix is the Redis key prefix for in-flight like toggles
	ToggleLockKeyPrefix = "diary_toggle:"
	// ToggleLockTTL bounds how long a crashed request can hold a toggle
	ToggleLockTTL = 15 * time.Second
)

func toggleLockKey(ownerID, entryID string) string {
	return ToggleLockKeyPrefix + ownerID + ":" + entryID
}

// AcquireToggleLock marks a like toggle of (ownerID, entryID) as in flight.
// It returns false when another request already holds it.
func AcquireToggleLock(ctx context.Context, ownerID, entryID string) (bool, error) {
	return database.RedisClient.SetNX(ctx, toggleLockKey(ownerID, entryID), "1", ToggleLockTTL).Result()
}

// ReleaseToggleLock clears the in-flight marker
func ReleaseToggleLock(ctx context.Context, ownerID, entryID string) error {
	return database.RedisClient.Del(ctx, toggleLockKey(ownerID, entryID)).Err()
}

// ToggleLocker serializes like toggles of one entry across requests
type ToggleLocker interface {
	Acquire(ctx context.Context, ownerID, entryID string) (bool, error)
	Release(ctx context.Context, ownerID, entryID string) error
}

// RedisToggleLocker is the ToggleLocker shared by every instance
type RedisToggleLocker struct{}

func (RedisToggleLocker) Acquire(ctx context.Context, ownerID, entryID string) (bool, error) {
	return AcquireToggleLock(ctx, ownerID, entryID)
}

func (RedisToggleLocker) Release(ctx context.Context, ownerID, entryID string) error {
	return ReleaseToggleLock(ctx, ownerID, entryID)
}
