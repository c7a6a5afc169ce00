package diary

import "fmt"

// ToggleLike flips the like state of targetID and returns a new list plus the
// patch to persist. likeCount never drops below zero.
func ToggleLike(entries []Entry, targetID string) ([]Entry, Patch, error) {
	idx := indexOf(entries, targetID)
	if idx < 0 {
		return nil, Patch{}, fmt.Errorf("toggle %q: %w", targetID, ErrEntryNotFound)
	}

	entry := entries[idx]
	newLiked := !entry.Liked
	newCount := entry.LikeCount
	if newLiked {
		newCount++
	} else {
		newCount--
	}
	if newCount < 0 {
		newCount = 0
	}

	updated := make([]Entry, len(entries))
	copy(updated, entries)
	entry.Liked = newLiked
	entry.LikeCount = newCount
	updated[idx] = entry

	return updated, Patch{Liked: newLiked, LikeCount: newCount}, nil
}
