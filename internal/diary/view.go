package diary

import (
	"context"
	"errors"
	"sync"
	"time"
)

// View holds the entry list backing one open diary view for one owner.
// The list is rebuilt wholesale on every successful Refresh.
type View struct {
	accessor *Accessor
	ownerID  string
	loc      *time.Location

	mu       sync.Mutex
	entries  []Entry
	inFlight map[string]struct{}
}

// NewView creates an empty view for ownerID. Call Refresh to load it.
func NewView(accessor *Accessor, ownerID string) *View {
	return &View{
		accessor: accessor,
		ownerID:  ownerID,
		entries:  []Entry{},
		inFlight: make(map[string]struct{}),
	}
}

// In sets the location the trend reads calendar dates in. It should match
// the location selected dates are given in.
func (v *View) In(loc *time.Location) *View {
	v.loc = loc
	return v
}

// Refresh reloads every entry. On failure the previous list is kept as is.
func (v *View) Refresh(ctx context.Context) error {
	entries, err := v.accessor.FetchAll(ctx, v.ownerID)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.entries = entries
	v.mu.Unlock()
	return nil
}

// Entries applies the view filter to the held list.
func (v *View) Entries(mode ViewMode, selectedDate *time.Time) []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return SelectView(v.entries, mode, selectedDate)
}

// Liked returns the liked entries of the held list.
func (v *View) Liked() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return LikedOnly(v.entries)
}

// Trend reduces the held list into the emotion series.
func (v *View) Trend() []EmotionPoint {
	v.mu.Lock()
	defer v.mu.Unlock()
	return BuildTrendIn(v.entries, v.loc)
}

// ToggleLike applies the toggle locally, then writes it to the store.
//
// While a write for entryID is outstanding, further toggles of the same entry
// fail with ErrToggleInFlight. If the store is unavailable the local state is
// kept and the entry is flagged SyncPending until the next successful Refresh.
func (v *View) ToggleLike(ctx context.Context, entryID string) (Entry, error) {
	v.mu.Lock()
	if _, busy := v.inFlight[entryID]; busy {
		v.mu.Unlock()
		return Entry{}, ErrToggleInFlight
	}
	updated, patch, err := ToggleLike(v.entries, entryID)
	if err != nil {
		v.mu.Unlock()
		return Entry{}, err
	}
	v.entries = updated
	v.inFlight[entryID] = struct{}{}
	v.mu.Unlock()

	writeErr := v.accessor.Update(ctx, v.ownerID, entryID, patch)

	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.inFlight, entryID)
	idx := indexOf(v.entries, entryID)
	if idx < 0 {
		// list replaced by a Refresh while the write was outstanding
		return Entry{}, writeErr
	}
	v.entries[idx].SyncPending = errors.Is(writeErr, ErrStoreUnavailable)
	return v.entries[idx], writeErr
}
