package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/AnshRaj112/emodiary-backend/internal/diary"
	"github.com/AnshRaj112/emodiary-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrInvalidEntry is returned for a diary entry that fails validation
	ErrInvalidEntry = errors.New("invalid diary entry")
	// ErrMediaUnavailable is returned when an attachment is sent but no media store is configured
	ErrMediaUnavailable = errors.New("media uploads are not available")
)

// DiaryRepository is the diary store plus creation
type DiaryRepository interface {
	diary.Store
	Insert(ctx context.Context, doc models.DiaryDocument) (diary.Entry, error)
}

// FreshLister is implemented by repositories that cache ListAll. The toggle
// path reads through ListAllFresh so its patch is computed from stored state.
type FreshLister interface {
	ListAllFresh(ctx context.Context, ownerID string) ([]diary.Entry, error)
}

// freshStore routes ListAll to ListAllFresh and everything else to the repository
type freshStore struct {
	DiaryRepository
	fresh FreshLister
}

func (f freshStore) ListAll(ctx context.Context, ownerID string) ([]diary.Entry, error) {
	return f.fresh.ListAllFresh(ctx, ownerID)
}

// Attachment is an uploaded image or audio file
type Attachment struct {
	Reader io.Reader
}

// NewEntry is the input of the add-entry flow
type NewEntry struct {
	Title   string
	Content string
	// Date is the calendar date written for; zero means today
	Date  time.Time
	Image *Attachment
	Audio *Attachment
}

// CreateResult is a stored entry plus the classifier's recommendation, if any
type CreateResult struct {
	Entry    diary.Entry
	Analysis *EmotionAnalysis
}

// DiaryServiceOptions wires a DiaryService. Classifier, Media and Locker are optional.
type DiaryServiceOptions struct {
	Store        DiaryRepository
	StoreTimeout time.Duration
	Classifier   EmotionClassifier
	Media        MediaUploader
	MediaFolder  string
	Locker       ToggleLocker
	Location     *time.Location
	Publish      func(ctx context.Context, event DiaryEvent) error
	Now          func() time.Time
}

// DiaryService runs the diary flows for authenticated owners
type DiaryService struct {
	store       DiaryRepository
	accessor    *diary.Accessor
	toggles     *diary.Accessor
	classifier  EmotionClassifier
	media       MediaUploader
	mediaFolder string
	locker      ToggleLocker
	location    *time.Location
	publish     func(ctx context.Context, event DiaryEvent) error
	now         func() time.Time
}

func NewDiaryService(opts DiaryServiceOptions) *DiaryService {
	s := &DiaryService{
		store:       opts.Store,
		accessor:    diary.NewAccessor(opts.Store, opts.StoreTimeout),
		classifier:  opts.Classifier,
		media:       opts.Media,
		mediaFolder: opts.MediaFolder,
		locker:      opts.Locker,
		location:    opts.Location,
		publish:     opts.Publish,
		now:         opts.Now,
	}
	s.toggles = s.accessor
	if fresh, ok := opts.Store.(FreshLister); ok {
		s.toggles = diary.NewAccessor(freshStore{DiaryRepository: opts.Store, fresh: fresh}, opts.StoreTimeout)
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.publish == nil {
		s.publish = PublishDiaryEvent
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.mediaFolder == "" {
		s.mediaFolder = "emodiary"
	}
	return s
}

// Today is the current calendar date in the diary's zone
func (s *DiaryService) Today() time.Time {
	return calendarDate(s.now().In(s.location))
}

// Location is the zone calendar dates are read in
func (s *DiaryService) Location() *time.Location {
	return s.location
}

// OpenView loads every entry of ownerID into a fresh view
func (s *DiaryService) OpenView(ctx context.Context, ownerID string) (*diary.View, error) {
	view := diary.NewView(s.accessor, ownerID).In(s.location)
	if err := view.Refresh(ctx); err != nil {
		return nil, err
	}
	return view, nil
}

// ToggleLike flips the like of one entry. A concurrent toggle of the same
// entry from another request fails with diary.ErrToggleInFlight.
func (s *DiaryService) ToggleLike(ctx context.Context, ownerID, entryID string) (diary.Entry, error) {
	if ownerID == "" {
		return diary.Entry{}, diary.ErrNotAuthenticated
	}

	if s.locker != nil {
		acquired, err := s.locker.Acquire(ctx, ownerID, entryID)
		if err != nil {
			// lock backend down: proceed unserialized
			log.Printf("[DiaryService] toggle lock unavailable for %s/%s: %v", ownerID, entryID, err)
		} else if !acquired {
			return diary.Entry{}, diary.ErrToggleInFlight
		} else {
			defer func() {
				if err := s.locker.Release(context.Background(), ownerID, entryID); err != nil {
					log.Printf("[DiaryService] failed to release toggle lock %s/%s: %v", ownerID, entryID, err)
				}
			}()
		}
	}

	view := diary.NewView(s.toggles, ownerID).In(s.location)
	if err := view.Refresh(ctx); err != nil {
		return diary.Entry{}, err
	}

	entry, err := view.ToggleLike(ctx, entryID)
	if err != nil {
		return entry, err
	}

	liked, likes := entry.Liked, entry.LikeCount
	s.emit(ctx, DiaryEvent{Type: EventLikeToggled, OwnerID: ownerID, EntryID: entryID, Liked: &liked, Likes: &likes})
	return entry, nil
}

// Create runs the add-entry flow: validate, upload media, classify, store.
// A classifier failure is logged and the entry is stored without an emotion.
func (s *DiaryService) Create(ctx context.Context, ownerID string, in NewEntry) (*CreateResult, error) {
	if ownerID == "" {
		return nil, diary.ErrNotAuthenticated
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidEntry)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidEntry)
	}

	now := s.now().In(s.location)
	date := in.Date
	if date.IsZero() {
		date = now
	}
	date = calendarDate(date.In(s.location))
	if date.After(calendarDate(now)) {
		return nil, fmt.Errorf("%w: date cannot be in the future", ErrInvalidEntry)
	}

	doc := models.DiaryDocument{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
		Title:     title,
		Content:   in.Content,
		Date:      date.Format(time.RFC3339),
	}

	folder := fmt.Sprintf("%s/diaries/%s/%s", s.mediaFolder, ownerID, date.Format("2006-01-02"))
	var err error
	if doc.ImageURL, err = s.upload(ctx, in.Image, folder, doc.ID.Hex()+"_image"); err != nil {
		return nil, err
	}
	if doc.AudioURL, err = s.upload(ctx, in.Audio, folder, doc.ID.Hex()+"_audio"); err != nil {
		return nil, err
	}

	var analysis *EmotionAnalysis
	if s.classifier != nil {
		analysis, err = s.classifier.Analyze(ctx, ownerID, in.Content)
		if err != nil {
			log.Printf("[DiaryService] emotion analysis failed for %s, storing without emotion: %v", ownerID, err)
			analysis = nil
		} else {
			if label := strings.ToLower(strings.TrimSpace(analysis.Emotion)); label != "" {
				doc.Emotion = &label
			}
		}
	}

	entry, err := s.store.Insert(ctx, doc)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, DiaryEvent{Type: EventEntryCreated, OwnerID: ownerID, EntryID: entry.ID})
	return &CreateResult{Entry: entry, Analysis: analysis}, nil
}

func (s *DiaryService) upload(ctx context.Context, a *Attachment, folder, publicID string) (*string, error) {
	if a == nil || a.Reader == nil {
		return nil, nil
	}
	if s.media == nil {
		return nil, ErrMediaUnavailable
	}
	url, err := s.media.Upload(ctx, a.Reader, folder, publicID)
	if err != nil {
		return nil, err
	}
	return optional(url), nil
}

func (s *DiaryService) emit(ctx context.Context, event DiaryEvent) {
	if err := s.publish(ctx, event); err != nil {
		log.Printf("[DiaryService] failed to publish %s event: %v", event.Type, err)
	}
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
