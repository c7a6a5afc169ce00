package routes

import (
	"net/http"

	"github.com/AnshRaj112/emodiary-backend/internal/handlers"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(r chi.Router) {
	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Get("/api/auth/me", handlers.GetMe)

	// Diary routes
	r.Route("/api/diaries", func(r chi.Router) {
		r.Post("/", handlers.CreateDiary)
		r.Get("/", handlers.ListDiaries)
		r.Get("/liked", handlers.ListLikedDiaries)
		r.Get("/trend", handlers.GetEmotionTrend)
		r.Post("/{id}/like", handlers.ToggleDiaryLike)
	})

	// File upload routes
	r.Post("/api/upload", handlers.UploadFile)

	// WebSocket feed of diary changes for open views
	r.Get("/ws/diaries", handlers.DiaryWebSocket)
}
