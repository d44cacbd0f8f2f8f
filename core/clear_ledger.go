package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ClearKey identifies one inbound message for clearing purposes.
func ClearKey(receiver Address, sourceChainID uint32, sender Address, nonce uint64) string {
	return fmt.Sprintf("%s:%d:%s:%d", receiver, sourceChainID, sender, nonce)
}

type composeEntry struct {
	record      ComposeRecord
	deliveredAt time.Time
}

// MemoryClearLedger records cleared messages and pending compose deliveries.
// Every key is accepted exactly once.
type MemoryClearLedger struct {
	mu       sync.Mutex
	cleared  map[string]ClearRecord
	composed map[string]*composeEntry
	Now      func() time.Time
}

func NewMemoryClearLedger() *MemoryClearLedger {
	return &MemoryClearLedger{
		cleared:  map[string]ClearRecord{},
		composed: map[string]*composeEntry{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (l *MemoryClearLedger) RecordClear(_ context.Context, record ClearRecord) error {
	if l == nil {
		return fmt.Errorf("core: clear ledger is not configured")
	}
	key := ClearKey(record.Receiver, record.SourceChainID, record.Sender, record.Nonce)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cleared[key]; ok {
		return ErrAlreadyCleared
	}
	if record.ClearedAt.IsZero() {
		record.ClearedAt = l.now()
	}
	l.cleared[key] = record
	return nil
}

func (l *MemoryClearLedger) RecordCompose(_ context.Context, record ComposeRecord) error {
	if l == nil {
		return fmt.Errorf("core: clear ledger is not configured")
	}
	key := record.Key.String()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.composed[key]; ok {
		return ErrComposeExists
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = l.now()
	}
	record.Message = append([]byte(nil), record.Message...)
	l.composed[key] = &composeEntry{record: record}
	return nil
}

func (l *MemoryClearLedger) ConsumeCompose(_ context.Context, key ComposeKey, messageHash [32]byte) error {
	if l == nil {
		return fmt.Errorf("core: clear ledger is not configured")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.composed[key.String()]
	if !ok {
		return ErrComposeNotFound
	}
	if !entry.deliveredAt.IsZero() {
		return ErrComposeDelivered
	}
	if entry.record.MessageHash != messageHash {
		return ErrComposeHashMismatch
	}
	entry.deliveredAt = l.now()
	return nil
}

func (l *MemoryClearLedger) Cleared(key string) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.cleared[key]
	return ok
}

// PendingCompose returns compose records that have not been delivered yet.
func (l *MemoryClearLedger) PendingCompose() []ComposeRecord {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ComposeRecord, 0, len(l.composed))
	for _, entry := range l.composed {
		if entry.deliveredAt.IsZero() {
			out = append(out, entry.record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

func (l *MemoryClearLedger) now() time.Time {
	if l != nil && l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}
