package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/AnshRaj112/emodiary-backend/internal/database"
	"github.com/AnshRaj112/emodiary-backend/internal/diary"
	"github.com/AnshRaj112/emodiary-backend/internal/models"
	"github.com/AnshRaj112/emodiary-backend/internal/services"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// memoryDiaries is an in-memory diary repository
type memoryDiaries struct {
	mu        sync.Mutex
	docs      []models.DiaryDocument
	listErr   error
	updateErr error
}

func (m *memoryDiaries) ListAll(ctx context.Context, ownerID string) ([]diary.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]diary.Entry, 0)
	for _, d := range m.docs {
		if d.OwnerID == ownerID {
			out = append(out, docEntry(d))
		}
	}
	return out, nil
}

func (m *memoryDiaries) UpdateFields(ctx context.Context, ownerID, entryID string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	for i, d := range m.docs {
		if d.OwnerID == ownerID && d.ID.Hex() == entryID {
			m.docs[i].Liked = fields["liked"].(bool)
			m.docs[i].Likes = fields["likes"].(int)
			return nil
		}
	}
	return diary.ErrEntryNotFound
}

func (m *memoryDiaries) Insert(ctx context.Context, doc models.DiaryDocument) (diary.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, doc)
	return docEntry(doc), nil
}

func docEntry(d models.DiaryDocument) diary.Entry {
	date, _ := time.Parse(time.RFC3339, d.Date)
	e := diary.Entry{
		ID: d.ID.Hex(), OwnerID: d.OwnerID, Title: d.Title, Content: d.Content, CreatedAt: date,
		Emotion: d.Emotion, Liked: d.Liked, LikeCount: d.Likes,
	}
	if d.ImageURL != nil {
		e.ImageURL = *d.ImageURL
	}
	if d.AudioURL != nil {
		e.AudioURL = *d.AudioURL
	}
	return e
}

type labelClassifier struct {
	labels map[string]string
}

func (c *labelClassifier) Analyze(ctx context.Context, ownerID, text string) (*services.EmotionAnalysis, error) {
	return &services.EmotionAnalysis{Emotion: c.labels[text], Activity: "Keep writing."}, nil
}

type recordingMedia struct {
	mu      sync.Mutex
	folders []string
}

func (m *recordingMedia) Upload(ctx context.Context, data io.Reader, folder, publicID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := io.ReadAll(data); err != nil {
		return "", err
	}
	m.folders = append(m.folders, folder)
	return "https://media.example/" + folder + "/" + publicID, nil
}

type testEnv struct {
	redis  *miniredis.Miniredis
	repo   *memoryDiaries
	media  *recordingMedia
	owner  uuid.UUID
	token  string
	router chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	prevRedis := database.RedisClient
	database.RedisClient = client

	env := &testEnv{
		redis: mr,
		repo:  &memoryDiaries{},
		media: &recordingMedia{},
		owner: uuid.New(),
	}

	token, err := services.CreateSession(context.Background(), env.owner)
	require.NoError(t, err)
	env.token = token

	prevService := diaryService
	InitDiaryService(services.NewDiaryService(services.DiaryServiceOptions{
		Store: env.repo,
		Classifier: &labelClassifier{labels: map[string]string{
			"great day": "joy",
			"rough day": "sadness",
			"so mad":    "angry",
			"meh":       "anger",
		}},
		Media:    env.media,
		Locker:   services.RedisToggleLocker{},
		Location: time.UTC,
		Publish:  func(ctx context.Context, e services.DiaryEvent) error { return nil },
	}))
	prevUploader, prevFolder := mediaUploader, mediaFolder
	SetMediaUploader(env.media, "test")

	t.Cleanup(func() {
		client.Close()
		database.RedisClient = prevRedis
		diaryService = prevService
		mediaUploader, mediaFolder = prevUploader, prevFolder
	})

	r := chi.NewRouter()
	r.Post("/api/auth/signup", Signup)
	r.Post("/api/auth/signin", Signin)
	r.Post("/api/auth/signout", Signout)
	r.Get("/api/auth/me", GetMe)
	r.Post("/api/diaries", CreateDiary)
	r.Get("/api/diaries", ListDiaries)
	r.Get("/api/diaries/liked", ListLikedDiaries)
	r.Get("/api/diaries/trend", GetEmotionTrend)
	r.Post("/api/diaries/{id}/like", ToggleDiaryLike)
	r.Post("/api/upload", UploadFile)
	r.Get("/ws/diaries", DiaryWebSocket)
	env.router = r

	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) create(t *testing.T, title, content, date string) diary.Entry {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/diaries", CreateDiaryRequest{Title: title, Content: content, Date: date})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp DiaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Entry)
	return *resp.Entry
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
