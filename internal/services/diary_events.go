package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/emodiary-backend/internal/database"
)

const (
	// DiaryEventChannelPrefix is the Redis Pub/Sub channel prefix, one channel per owner
	DiaryEventChannelPrefix = "diary:owner:"

	EventEntryCreated = "entry_created"
	EventLikeToggled  = "like_toggled"

	subscriberBuffer = 16
)

// DiaryEvent tells an owner's open views that their entry list changed and
// should be reconciled with a fresh fetch.
type DiaryEvent struct {
	Type      string    `json:"type"`
	OwnerID   string    `json:"owner_id"`
	EntryID   string    `json:"entry_id,omitempty"`
	Liked     *bool     `json:"liked,omitempty"`
	Likes     *int      `json:"likes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DiaryHub fans events out to the local subscribers of each owner.
type DiaryHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan DiaryEvent]struct{}
}

func NewDiaryHub() *DiaryHub {
	return &DiaryHub{subscribers: make(map[string]map[chan DiaryEvent]struct{})}
}

var (
	diaryHub             = NewDiaryHub()
	diarySubscriberStart sync.Once
)

// DefaultDiaryHub is the process-wide hub fed by the Redis subscriber
func DefaultDiaryHub() *DiaryHub {
	return diaryHub
}

// Subscribe registers a subscriber for ownerID. The returned func unregisters
// it and closes the channel.
func (h *DiaryHub) Subscribe(ownerID string) (<-chan DiaryEvent, func()) {
	ch := make(chan DiaryEvent, subscriberBuffer)

	h.mu.Lock()
	if h.subscribers[ownerID] == nil {
		h.subscribers[ownerID] = make(map[chan DiaryEvent]struct{})
	}
	h.subscribers[ownerID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers[ownerID], ch)
			if len(h.subscribers[ownerID]) == 0 {
				delete(h.subscribers, ownerID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// FanOut delivers event to every local subscriber of its owner.
// Slow subscribers miss events rather than block the hub.
func (h *DiaryHub) FanOut(event DiaryEvent) {
	if event.OwnerID == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[event.OwnerID] {
		select {
		case ch <- event:
		default:
			log.Printf("[DiaryHub] dropping %s event for slow subscriber of %s", event.Type, event.OwnerID)
		}
	}
}

// SubscriberCount is the number of local subscribers for ownerID
func (h *DiaryHub) SubscriberCount(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[ownerID])
}

// PublishDiaryEvent sends event to every instance through Redis.
// Without Redis it is delivered to local subscribers only.
func PublishDiaryEvent(ctx context.Context, event DiaryEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if database.RedisClient == nil {
		diaryHub.FanOut(event)
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return database.RedisClient.Publish(ctx, DiaryEventChannelPrefix+event.OwnerID, data).Err()
}

// StartRedisDiarySubscriber starts the single Redis listener of this instance
func StartRedisDiarySubscriber(ctx context.Context) {
	diarySubscriberStart.Do(func() {
		go runRedisDiarySubscriber(ctx, diaryHub)
	})
}

func runRedisDiarySubscriber(ctx context.Context, hub *DiaryHub) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; diary event subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, DiaryEventChannelPrefix+"*")
			defer pubsub.Close()

			log.Printf("✅ Diary event subscriber started (pattern: %s*)", DiaryEventChannelPrefix)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("Redis diary subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event DiaryEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal diary event: %v", err)
					continue
				}
				if event.OwnerID == "" {
					event.OwnerID = strings.TrimPrefix(msg.Channel, DiaryEventChannelPrefix)
				}

				hub.FanOut(event)
			}
		}()
	}
}
