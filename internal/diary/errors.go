package diary

import "errors"

var (
	// ErrNotAuthenticated means no owner identity could be resolved.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStoreUnavailable wraps any transport or server failure of the diary store.
	ErrStoreUnavailable = errors.New("diary store unavailable")
	// ErrEntryNotFound is returned when toggling an id that is not in the current list.
	ErrEntryNotFound = errors.New("diary entry not found")
	// ErrToggleInFlight is returned while a previous toggle of the same entry is still being written.
	ErrToggleInFlight = errors.New("like toggle already in progress")
)
