package memory

import (
	"context"
	"sync"
)

// Archive is the reference in-memory content archive. Entries are
// write-once: a second Store for the same content id keeps the first
// copy, matching the audit semantics of the durable implementation.
type Archive struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewArchive() *Archive {
	return &Archive{entries: make(map[string]string)}
}

func (a *Archive) Store(_ context.Context, contentID, text string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.entries[contentID]; !ok {
		a.entries[contentID] = text
	}
	return "memory://" + contentID, nil
}

func (a *Archive) Retrieve(_ context.Context, contentID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.entries[contentID], nil
}

func (a *Archive) Delete(_ context.Context, contentID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.entries, contentID)
	return nil
}
