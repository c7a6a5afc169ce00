package diary

import "time"

// Entry is one journal record as held in memory by a view.
type Entry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"date"`
	ImageURL  string    `json:"image_url,omitempty"`
	AudioURL  string    `json:"audio_url,omitempty"`

	// Emotion is nil when the entry was never analysed.
	Emotion *string `json:"emotion"`

	Liked     bool `json:"liked"`
	LikeCount int  `json:"likes"`

	// SyncPending marks a local like toggle that has not reached the store yet.
	// Never persisted; cleared by the next successful fetch.
	SyncPending bool `json:"sync_pending,omitempty"`
}

// Patch is the partial update written back after a like toggle.
type Patch struct {
	Liked     bool
	LikeCount int
}

// Fields returns the patch as store field names.
func (p Patch) Fields() map[string]interface{} {
	return map[string]interface{}{
		"liked": p.Liked,
		"likes": p.LikeCount,
	}
}

// HasEmotion reports whether the entry carries a classifier label at all.
func (e Entry) HasEmotion() bool {
	return e.Emotion != nil
}

// StringPtr is a small helper for building entries with an emotion label.
func StringPtr(s string) *string {
	return &s
}

func indexOf(entries []Entry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
