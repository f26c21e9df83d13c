package billing

import (
	"context"
	"encoding/json"
	"sync"
)

const (
	DraftDestinationEntry = "destination_entry"
	DraftServiceBill      = "service_bill"
)

// EntryDraftLock is the InFlightGuard key serialising writes to one
// destination entry draft.
func EntryDraftLock(key string) string { return "entry-draft:" + key }

func billDraftLock(key string) string { return "bill-draft:" + key }

// DraftStore persists in-progress editor state. Editors load on open and
// save after every successful mutation.
type DraftStore interface {
	Load(ctx context.Context, kind, key string, v any) (bool, error)
	Save(ctx context.Context, kind, key string, v any) error
	Delete(ctx context.Context, kind, key string) error
}

// MemoryDraftStore keeps drafts as JSON in process memory.
type MemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[string][]byte)}
}

func (m *MemoryDraftStore) Load(_ context.Context, kind, key string, v any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.drafts[kind+"/"+key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (m *MemoryDraftStore) Save(_ context.Context, kind, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.drafts[kind+"/"+key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryDraftStore) Delete(_ context.Context, kind, key string) error {
	m.mu.Lock()
	delete(m.drafts, kind+"/"+key)
	m.mu.Unlock()
	return nil
}
