package diary

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Store is the document database holding diary entries, keyed by (owner, entry).
type Store interface {
	ListAll(ctx context.Context, ownerID string) ([]Entry, error)
	UpdateFields(ctx context.Context, ownerID, entryID string, fields map[string]interface{}) error
}

// Accessor is the thin adapter between the core and the Store. It adds a
// per-call timeout and error classification, nothing else.
type Accessor struct {
	store   Store
	timeout time.Duration
}

// NewAccessor wraps store. A zero timeout leaves deadlines to the caller's context.
func NewAccessor(store Store, timeout time.Duration) *Accessor {
	return &Accessor{store: store, timeout: timeout}
}

// FetchAll returns every entry of ownerID in store order.
func (a *Accessor) FetchAll(ctx context.Context, ownerID string) ([]Entry, error) {
	if ownerID == "" {
		return nil, ErrNotAuthenticated
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	entries, err := a.store.ListAll(ctx, ownerID)
	if err != nil {
		return nil, storeError("fetch diaries", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Update writes patch to exactly one entry.
func (a *Accessor) Update(ctx context.Context, ownerID, entryID string, patch Patch) error {
	if ownerID == "" {
		return ErrNotAuthenticated
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.store.UpdateFields(ctx, ownerID, entryID, patch.Fields()); err != nil {
		return storeError("update diary "+entryID, err)
	}
	return nil
}

func (a *Accessor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

func storeError(op string, err error) error {
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrEntryNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
