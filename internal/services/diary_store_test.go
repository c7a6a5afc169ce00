package services

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/AnshRaj112/emodiary-backend/internal/database"
	"github.com/AnshRaj112/emodiary-backend/internal/diary"
	"github.com/AnshRaj112/emodiary-backend/internal/models"
	"github.com/AnshRaj112/emodiary-backend/pkg/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func diaryDoc(id primitive.ObjectID, date string, likes int, emotion interface{}) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "owner_id", Value: "owner-1"},
		{Key: "created_at", Value: time.Date(2024, 5, 9, 8, 0, 0, 0, time.UTC)},
		{Key: "title", Value: "Title"},
		{Key: "content", Value: "Body"},
		{Key: "date", Value: date},
		{Key: "image_url", Value: nil},
		{Key: "audio_url", Value: "https://media.example/a.mp3"},
		{Key: "emotion", Value: emotion},
		{Key: "liked", Value: likes > 0},
		{Key: "likes", Value: likes},
	}
}

func TestMongoDiaryStore_ListAll(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("maps documents to entries", func(mt *mtest.T) {
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				diaryDoc(first, "2024-05-02T00:00:00+05:30", 1, "joy"),
				diaryDoc(second, "not a date", -3, nil),
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		store := NewMongoDiaryStore(mt.Coll, nil)
		entries, err := store.ListAll(context.Background(), "owner-1")
		require.NoError(mt, err)
		require.Len(mt, entries, 2)

		assert.Equal(mt, first.Hex(), entries[0].ID)
		assert.Equal(mt, "2024-05-02", entries[0].CreatedAt.Format("2006-01-02"))
		require.NotNil(mt, entries[0].Emotion)
		assert.Equal(mt, "joy", *entries[0].Emotion)
		assert.True(mt, entries[0].Liked)
		assert.Equal(mt, 1, entries[0].LikeCount)
		assert.Empty(mt, entries[0].ImageURL)
		assert.Equal(mt, "https://media.example/a.mp3", entries[0].AudioURL)

		// unparseable date falls back to created_at, negative count clamps
		assert.Equal(mt, "2024-05-09", entries[1].CreatedAt.Format("2006-01-02"))
		assert.Nil(mt, entries[1].Emotion)
		assert.Equal(mt, 0, entries[1].LikeCount)
	})

	mt.Run("empty collection", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		entries, err := NewMongoDiaryStore(mt.Coll, nil).ListAll(context.Background(), "owner-1")
		require.NoError(mt, err)
		assert.NotNil(mt, entries)
		assert.Empty(mt, entries)
	})

	mt.Run("command error is store unavailable", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 91, Message: "shutting down"}))

		_, err := NewMongoDiaryStore(mt.Coll, nil).ListAll(context.Background(), "owner-1")
		assert.ErrorIs(mt, err, diary.ErrStoreUnavailable)
	})
}

func TestMongoDiaryStore_UpdateFields(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := NewMongoDiaryStore(mt.Coll, nil).UpdateFields(context.Background(), "owner-1", primitive.NewObjectID().Hex(),
			diary.Patch{Liked: true, LikeCount: 1}.Fields())
		assert.NoError(mt, err)
	})

	mt.Run("no match is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := NewMongoDiaryStore(mt.Coll, nil).UpdateFields(context.Background(), "owner-1", primitive.NewObjectID().Hex(),
			map[string]interface{}{"liked": true})
		assert.ErrorIs(mt, err, diary.ErrEntryNotFound)
	})

	mt.Run("malformed id is not found", func(mt *mtest.T) {
		err := NewMongoDiaryStore(mt.Coll, nil).UpdateFields(context.Background(), "owner-1", "xyz", map[string]interface{}{})
		assert.ErrorIs(mt, err, diary.ErrEntryNotFound)
	})
}

func TestMongoDiaryStore_InsertEncrypts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert", func(mt *mtest.T) {
		cipher, err := utils.NewCipher(base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32))))
		require.NoError(mt, err)
		store := NewMongoDiaryStore(mt.Coll, cipher)

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		entry, err := store.Insert(context.Background(), models.DiaryDocument{
			OwnerID: "owner-1",
			Title:   "Secret",
			Content: "plain words",
			Date:    "2024-05-02T00:00:00Z",
		})
		require.NoError(mt, err)
		assert.NotEmpty(mt, entry.ID)
		assert.Equal(mt, "plain words", entry.Content)

		sent := mt.GetStartedEvent()
		require.NotNil(mt, sent)
		assert.Equal(mt, "insert", sent.CommandName)
		docs := sent.Command.Lookup("documents").Array()
		values, err := docs.Values()
		require.NoError(mt, err)
		require.Len(mt, values, 1)
		stored := values[0].Document()
		assert.True(mt, stored.Lookup("encrypted").Boolean())
		assert.NotEqual(mt, "plain words", stored.Lookup("content").StringValue())
	})
}

func cursorOf(mt *mtest.T, docs ...bson.D) []bson.D {
	ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
	return []bson.D{
		mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, docs...),
		mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
	}
}

func TestMongoDiaryStore_ListCache(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	cacheKey := CacheKeyPrefix + diaryCacheKey("owner-1")

	mt.Run("miss fills the cache and a hit skips MongoDB", func(mt *mtest.T) {
		mr := setupRedis(mt.T)
		id := primitive.NewObjectID()
		mt.AddMockResponses(cursorOf(mt, diaryDoc(id, "2024-05-01", 2, "joy"))...)

		store := NewMongoDiaryStore(mt.Coll, nil).WithCache(&CacheService{})
		entries, err := store.ListAll(ctx, "owner-1")
		require.NoError(mt, err)
		require.Len(mt, entries, 1)
		assert.True(mt, mr.Exists(cacheKey))

		// nothing queued on the mock: a second MongoDB round trip would fail
		again, err := store.ListAll(ctx, "owner-1")
		require.NoError(mt, err)
		require.Len(mt, again, 1)
		assert.Equal(mt, id.Hex(), again[0].ID)
		assert.Equal(mt, 2, again[0].LikeCount)
	})

	mt.Run("update invalidates", func(mt *mtest.T) {
		mr := setupRedis(mt.T)
		require.NoError(mt, (&CacheService{}).Set(ctx, diaryCacheKey("owner-1"), []models.DiaryDocument{}))
		require.True(mt, mr.Exists(cacheKey))

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		store := NewMongoDiaryStore(mt.Coll, nil).WithCache(&CacheService{})
		require.NoError(mt, store.UpdateFields(ctx, "owner-1", primitive.NewObjectID().Hex(),
			diary.Patch{Liked: true, LikeCount: 1}.Fields()))
		assert.False(mt, mr.Exists(cacheKey))
	})

	mt.Run("insert invalidates", func(mt *mtest.T) {
		mr := setupRedis(mt.T)
		require.NoError(mt, (&CacheService{}).Set(ctx, diaryCacheKey("owner-1"), []models.DiaryDocument{}))

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := NewMongoDiaryStore(mt.Coll, nil).WithCache(&CacheService{})
		_, err := store.Insert(ctx, models.DiaryDocument{OwnerID: "owner-1", Title: "t", Content: "c", Date: "2024-05-01"})
		require.NoError(mt, err)
		assert.False(mt, mr.Exists(cacheKey))
	})

	mt.Run("fresh read bypasses a stale cache", func(mt *mtest.T) {
		setupRedis(mt.T)
		id := primitive.NewObjectID()
		stale := []models.DiaryDocument{{ID: id, OwnerID: "owner-1", Title: "Title", Date: "2024-05-01", Liked: false, Likes: 0}}
		require.NoError(mt, (&CacheService{}).Set(ctx, diaryCacheKey("owner-1"), stale))

		store := NewMongoDiaryStore(mt.Coll, nil).WithCache(&CacheService{})
		cached, err := store.ListAll(ctx, "owner-1")
		require.NoError(mt, err)
		require.Len(mt, cached, 1)
		assert.False(mt, cached[0].Liked)

		mt.AddMockResponses(cursorOf(mt, diaryDoc(id, "2024-05-01", 1, nil))...)
		fresh, err := store.ListAllFresh(ctx, "owner-1")
		require.NoError(mt, err)
		require.Len(mt, fresh, 1)
		assert.True(mt, fresh[0].Liked)
		assert.Equal(mt, 1, fresh[0].LikeCount)

		// the fresh read also replaces the cached list
		cached, err = store.ListAll(ctx, "owner-1")
		require.NoError(mt, err)
		assert.True(mt, cached[0].Liked)
	})

	mt.Run("redis down fails open", func(mt *mtest.T) {
		prev := database.RedisClient
		database.RedisClient = redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
		mt.T.Cleanup(func() {
			database.RedisClient.Close()
			database.RedisClient = prev
		})

		mt.AddMockResponses(cursorOf(mt, diaryDoc(primitive.NewObjectID(), "2024-05-01", 0, nil))...)
		store := NewMongoDiaryStore(mt.Coll, nil).WithCache(&CacheService{})
		entries, err := store.ListAll(ctx, "owner-1")
		require.NoError(mt, err)
		assert.Len(mt, entries, 1)
	})
}

func TestMongoDiaryStore_NormalizesDatesToLocation(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	est := time.FixedZone("EST", -5*3600)

	mt.Run("date-only and UTC timestamps land on the same local day", func(mt *mtest.T) {
		dateOnly, stamped := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(cursorOf(mt,
			diaryDoc(dateOnly, "2024-05-01", 0, "joy"),
			diaryDoc(stamped, "2024-05-02T03:00:00.000Z", 0, "sadness"),
		)...)

		entries, err := NewMongoDiaryStore(mt.Coll, nil).WithLocation(est).ListAll(context.Background(), "owner-1")
		require.NoError(mt, err)
		require.Len(mt, entries, 2)

		selected := time.Date(2024, 5, 1, 0, 0, 0, 0, est)
		day := diary.SelectView(entries, diary.ModeSingleDate, &selected)
		assert.Len(mt, day, 2)

		trend := diary.BuildTrendIn(entries, est)
		require.Len(mt, trend, 2)
		for _, p := range trend {
			assert.Equal(mt, "2024-05-01", p.Date.Format("2006-01-02"))
		}
	})
}

func TestEntryDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	created := time.Date(2024, 5, 9, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date string
		loc  *time.Location
		want string
	}{
		{"date only without location is UTC midnight", "2024-05-01", nil, "2024-05-01T00:00:00Z"},
		{"date only is midnight in location", "2024-05-01", ist, "2024-05-01T00:00:00+05:30"},
		{"timestamp is converted into location", "2024-05-01T22:00:00.000Z", ist, "2024-05-02T03:30:00+05:30"},
		{"timestamp keeps its offset without location", "2024-05-01T22:00:00.000Z", nil, "2024-05-01T22:00:00Z"},
		{"unparseable falls back to created_at in location", "yesterday", ist, "2024-05-10T01:30:00+05:30"},
		{"missing falls back to created_at", "", nil, "2024-05-09T20:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := entryDate(models.DiaryDocument{Date: tt.date, CreatedAt: created}, tt.loc)
			assert.Equal(t, tt.want, got.Format(time.RFC3339))
		})
	}
}
