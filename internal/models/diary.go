package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DiaryDocument is a diary entry as stored in the "diaries" collection
type DiaryDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   string             `bson:"owner_id" json:"owner_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Title   string `bson:"title" json:"title"`
	Content string `bson:"content" json:"content"`
	// Date is the ISO-8601 calendar date the entry was written for
	Date string `bson:"date" json:"date"`

	// Media URLs (nil when no attachment was uploaded)
	ImageURL *string `bson:"image_url" json:"image_url"`
	AudioURL *string `bson:"audio_url" json:"audio_url"`

	// Emotion is set by the classifier at creation time; nil when analysis was skipped
	Emotion *string `bson:"emotion" json:"emotion"`

	Liked bool `bson:"liked" json:"liked"`
	Likes int  `bson:"likes" json:"likes"`

	// Encrypted is true when Content holds AES-GCM ciphertext
	Encrypted bool `bson:"encrypted,omitempty" json:"encrypted,omitempty"`
}
