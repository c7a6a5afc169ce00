package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/AnshRaj112/emodiary-backend/internal/diary"
	"github.com/AnshRaj112/emodiary-backend/internal/models"
	"github.com/AnshRaj112/emodiary-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DiaryCollection is the MongoDB collection holding diary entries
const DiaryCollection = "diaries"

// MongoDiaryStore implements diary.Store on a MongoDB collection.
// Every query is scoped by owner_id.
type MongoDiaryStore struct {
	coll   *mongo.Collection
	cipher *utils.Cipher
	cache  *CacheService
	loc    *time.Location
}

// NewMongoDiaryStore creates a store. cipher may be nil (content stored as-is).
func NewMongoDiaryStore(coll *mongo.Collection, cipher *utils.Cipher) *MongoDiaryStore {
	return &MongoDiaryStore{coll: coll, cipher: cipher}
}

// WithCache enables the per-owner Redis list cache
func (s *MongoDiaryStore) WithCache(cache *CacheService) *MongoDiaryStore {
	s.cache = cache
	return s
}

// WithLocation sets the zone entry dates are normalized to. Date-only values
// are read as midnight there; timestamps are converted into it.
func (s *MongoDiaryStore) WithLocation(loc *time.Location) *MongoDiaryStore {
	s.loc = loc
	return s
}

// EnsureIndexes creates the owner index used by every lookup
func (s *MongoDiaryStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_id", Value: 1}},
		Options: options.Index().SetName("owner_id_1"),
	})
	return err
}

func diaryCacheKey(ownerID string) string {
	return CacheKey("diaries", ownerID)
}

// ListAll returns every entry of ownerID in store order. No sort is requested.
// Reads go through the list cache when one is configured.
func (s *MongoDiaryStore) ListAll(ctx context.Context, ownerID string) ([]diary.Entry, error) {
	docs, err := s.listDocuments(ctx, ownerID, true)
	if err != nil {
		return nil, err
	}
	return s.toEntries(docs)
}

// ListAllFresh is ListAll straight from MongoDB. Read-modify-write paths
// use it so a stale cached list never feeds a write.
func (s *MongoDiaryStore) ListAllFresh(ctx context.Context, ownerID string) ([]diary.Entry, error) {
	docs, err := s.listDocuments(ctx, ownerID, false)
	if err != nil {
		return nil, err
	}
	return s.toEntries(docs)
}

func (s *MongoDiaryStore) toEntries(docs []models.DiaryDocument) ([]diary.Entry, error) {
	entries := make([]diary.Entry, 0, len(docs))
	for _, doc := range docs {
		entry, err := s.toEntry(doc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *MongoDiaryStore) listDocuments(ctx context.Context, ownerID string, useCache bool) ([]models.DiaryDocument, error) {
	if s.cache != nil && useCache {
		var cached []models.DiaryDocument
		hit, err := s.cache.Get(ctx, diaryCacheKey(ownerID), &cached)
		if err != nil {
			log.Printf("[DiaryStore] cache read failed for %s: %v", ownerID, err)
		} else if hit {
			return cached, nil
		}
	}

	cursor, err := s.coll.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", diary.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	docs := make([]models.DiaryDocument, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: %w", diary.ErrStoreUnavailable, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, diaryCacheKey(ownerID), docs); err != nil {
			log.Printf("[DiaryStore] cache write failed for %s: %v", ownerID, err)
		}
	}
	return docs, nil
}

// UpdateFields applies a partial update to one entry of ownerID
func (s *MongoDiaryStore) UpdateFields(ctx context.Context, ownerID, entryID string, fields map[string]interface{}) error {
	objectID, err := primitive.ObjectIDFromHex(entryID)
	if err != nil {
		return fmt.Errorf("entry %q: %w", entryID, diary.ErrEntryNotFound)
	}

	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		set[k] = v
	}

	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": objectID, "owner_id": ownerID},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("%w: %w", diary.ErrStoreUnavailable, err)
	}
	s.invalidate(ctx, ownerID)

	if result.MatchedCount == 0 {
		return fmt.Errorf("entry %q: %w", entryID, diary.ErrEntryNotFound)
	}
	return nil
}

// Insert stores a new document and returns it as an entry.
// The document's Content is encrypted when a cipher is configured.
func (s *MongoDiaryStore) Insert(ctx context.Context, doc models.DiaryDocument) (diary.Entry, error) {
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	plaintext := doc.Content
	if s.cipher != nil {
		sealed, err := s.cipher.Encrypt(doc.Content)
		if err != nil {
			return diary.Entry{}, fmt.Errorf("encrypt diary content: %w", err)
		}
		doc.Content = sealed
		doc.Encrypted = true
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return diary.Entry{}, fmt.Errorf("%w: %w", diary.ErrStoreUnavailable, err)
	}
	s.invalidate(ctx, doc.OwnerID)

	doc.Content = plaintext
	doc.Encrypted = false
	return s.toEntry(doc)
}

func (s *MongoDiaryStore) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, diaryCacheKey(ownerID)); err != nil {
		log.Printf("[DiaryStore] cache invalidation failed for %s: %v", ownerID, err)
	}
}

func (s *MongoDiaryStore) toEntry(doc models.DiaryDocument) (diary.Entry, error) {
	content := doc.Content
	if doc.Encrypted {
		if s.cipher == nil {
			return diary.Entry{}, errors.New("diary content is encrypted but no ENCRYPTION_KEY is configured")
		}
		opened, err := s.cipher.Decrypt(doc.Content)
		if err != nil {
			return diary.Entry{}, fmt.Errorf("decrypt diary %s: %w", doc.ID.Hex(), err)
		}
		content = opened
	}

	return diary.Entry{
		ID:        doc.ID.Hex(),
		OwnerID:   doc.OwnerID,
		Title:     doc.Title,
		Content:   content,
		CreatedAt: entryDate(doc, s.loc),
		ImageURL:  deref(doc.ImageURL),
		AudioURL:  deref(doc.AudioURL),
		Emotion:   doc.Emotion,
		Liked:     doc.Liked,
		LikeCount: max(doc.Likes, 0),
	}, nil
}

// entryDate reads the ISO-8601 date field, falling back to created_at.
// With a location set the result is always expressed in it.
func entryDate(doc models.DiaryDocument, loc *time.Location) time.Time {
	inLoc := func(t time.Time) time.Time {
		if loc == nil {
			return t
		}
		return t.In(loc)
	}

	if t, err := time.Parse(time.RFC3339Nano, doc.Date); err == nil {
		return inLoc(t)
	}
	// date-only: midnight of that day in the diary's zone
	dateLoc := loc
	if dateLoc == nil {
		dateLoc = time.UTC
	}
	if t, err := time.ParseInLocation("2006-01-02", doc.Date, dateLoc); err == nil {
		return t
	}

	if doc.Date != "" {
		log.Printf("[DiaryStore] diary %s has unparseable date %q, using created_at", doc.ID.Hex(), doc.Date)
	}
	return inLoc(doc.CreatedAt)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
