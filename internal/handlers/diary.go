package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/emodiary-backend/internal/diary"
	"github.com/AnshRaj112/emodiary-backend/internal/services"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
)

// maxDiaryUpload bounds a multipart diary submission (text plus image and audio)
const maxDiaryUpload = 25 << 20

var diaryService *services.DiaryService

// InitDiaryService sets the service behind the diary routes
func InitDiaryService(svc *services.DiaryService) {
	diaryService = svc
}

// CreateDiaryRequest is the JSON form of a new entry. Date is YYYY-MM-DD.
type CreateDiaryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date,omitempty"`
}

// DiaryResponse carries one entry
type DiaryResponse struct {
	Success  bool                      `json:"success"`
	Message  string                    `json:"message"`
	Entry    *diary.Entry              `json:"entry,omitempty"`
	Analysis *services.EmotionAnalysis `json:"analysis,omitempty"`
}

// DiaryListResponse carries a filtered entry list
type DiaryListResponse struct {
	Success bool          `json:"success"`
	View    string        `json:"view"`
	Date    string        `json:"date,omitempty"`
	Count   int           `json:"count"`
	Entries []diary.Entry `json:"entries"`
}

// AxisLabel names one rank of the trend's value axis
type AxisLabel struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// TrendResponse is the emotion series with its value-axis labels
type TrendResponse struct {
	Success bool                 `json:"success"`
	Points  []diary.EmotionPoint `json:"points"`
	Axis    []AxisLabel          `json:"axis"`
}

func trendAxis() []AxisLabel {
	axis := make([]AxisLabel, 0, 4)
	for rank := diary.RankAngry; rank <= diary.RankJoy; rank++ {
		axis = append(axis, AxisLabel{Value: rank, Label: diary.EmotionLabel(rank)})
	}
	return axis
}

// parseDiaryDate reads a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp
func parseDiaryDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

// checkAttachmentType sniffs the file content and rewinds it. The image field
// takes image/*, the audio field audio/* or a webm recording.
func checkAttachmentType(field string, file multipart.File) error {
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return fmt.Errorf("failed to detect %s file type", field)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to read %s file", field)
	}

	detected := strings.Split(mt.String(), ";")[0]
	switch field {
	case "image":
		if strings.HasPrefix(detected, "image/") {
			return nil
		}
	case "audio":
		if strings.HasPrefix(detected, "audio/") || detected == "video/webm" {
			return nil
		}
	}
	return fmt.Errorf("%s file has unsupported type %s", field, detected)
}

func serviceReady(w http.ResponseWriter) bool {
	if diaryService == nil {
		writeError(w, http.StatusServiceUnavailable, "Diary service not initialized")
		return false
	}
	return true
}

// CreateDiary stores a new entry. Accepts JSON, or multipart/form-data with
// title, content, date fields and optional image and audio files.
func CreateDiary(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w) {
		return
	}
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var (
		req   CreateDiaryRequest
		input services.NewEntry
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxDiaryUpload); err != nil {
			writeError(w, http.StatusBadRequest, "Failed to parse form: "+err.Error())
			return
		}
		req.Title = r.FormValue("title")
		req.Content = r.FormValue("content")
		req.Date = r.FormValue("date")

		for field, target := range map[string]**services.Attachment{"image": &input.Image, "audio": &input.Audio} {
			file, _, err := r.FormFile(field)
			if err == http.ErrMissingFile {
				continue
			}
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid "+field+" file: "+err.Error())
				return
			}
			defer func(f multipart.File) { f.Close() }(file)
			if err := checkAttachmentType(field, file); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			*target = &services.Attachment{Reader: file}
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input.Title = req.Title
	input.Content = req.Content
	if req.Date != "" {
		date, err := parseDiaryDate(req.Date, diaryService.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		input.Date = date
	}

	result, err := diaryService.Create(r.Context(), ownerID, input)
	if err != nil {
		if statusForError(err) >= http.StatusInternalServerError {
			log.Printf("[Diary] create failed for %s: %v", ownerID, err)
		}
		writeError(w, statusForError(err), messageForError(err))
		return
	}

	writeJSON(w, http.StatusCreated, DiaryResponse{
		Success:  true,
		Message:  "Diary entry saved",
		Entry:    &result.Entry,
		Analysis: result.Analysis,
	})
}

// ListDiaries returns the owner's entries through the view filter.
// ?view=date&date=YYYY-MM-DD narrows to one calendar date; a date-mode
// request without a date shows the full history. ?view=recent shows the last
// seven days up to date, or up to today.
func ListDiaries(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w) {
		return
	}
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	mode, err := diary.ParseViewMode(query.Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "view must be 'history', 'date' or 'recent'")
		return
	}

	var selected *time.Time
	if raw := query.Get("date"); raw != "" {
		date, err := parseDiaryDate(raw, diaryService.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		selected = &date
	}
	if mode == diary.ModeRecent && selected == nil {
		today := diaryService.Today()
		selected = &today
	}

	view, err := diaryService.OpenView(r.Context(), ownerID)
	if err != nil {
		log.Printf("[Diary] list failed for %s: %v", ownerID, err)
		writeError(w, statusForError(err), messageForError(err))
		return
	}

	entries := view.Entries(mode, selected)
	resp := DiaryListResponse{
		Success: true,
		View:    mode.String(),
		Count:   len(entries),
		Entries: entries,
	}
	if mode != diary.ModeFullHistory && selected != nil {
		resp.Date = selected.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListLikedDiaries returns the owner's liked entries
func ListLikedDiaries(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w) {
		return
	}
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	view, err := diaryService.OpenView(r.Context(), ownerID)
	if err != nil {
		log.Printf("[Diary] liked list failed for %s: %v", ownerID, err)
		writeError(w, statusForError(err), messageForError(err))
		return
	}

	entries := view.Liked()
	writeJSON(w, http.StatusOK, DiaryListResponse{
		Success: true,
		View:    "liked",
		Count:   len(entries),
		Entries: entries,
	})
}

// ToggleDiaryLike flips the like of /api/diaries/{id}. When the write fails
// the 503 reply still carries the entry, flagged sync_pending.
func ToggleDiaryLike(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w) {
		return
	}
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	entryID := chi.URLParam(r, "id")
	entry, err := diaryService.ToggleLike(r.Context(), ownerID, entryID)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			log.Printf("[Diary] like toggle failed for %s/%s: %v", ownerID, entryID, err)
		}
		resp := DiaryResponse{Success: false, Message: messageForError(err)}
		if entry.SyncPending {
			resp.Entry = &entry
		}
		writeJSON(w, status, resp)
		return
	}

	message := "Entry unliked"
	if entry.Liked {
		message = "Entry liked"
	}
	writeJSON(w, http.StatusOK, DiaryResponse{Success: true, Message: message, Entry: &entry})
}

// GetEmotionTrend returns the owner's emotion series sorted by date
func GetEmotionTrend(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w) {
		return
	}
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	view, err := diaryService.OpenView(r.Context(), ownerID)
	if err != nil {
		log.Printf("[Diary] trend failed for %s: %v", ownerID, err)
		writeError(w, statusForError(err), messageForError(err))
		return
	}

	writeJSON(w, http.StatusOK, TrendResponse{
		Success: true,
		Points:  view.Trend(),
		Axis:    trendAxis(),
	})
}
