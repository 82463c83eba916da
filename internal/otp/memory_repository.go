package otp

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryRepository builds an in-memory otp store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *memoryRepository) Latest(_ context.Context, email string, purpose Purpose) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := false
	var latest Record
	for _, rec := range r.records {
		if rec.Email != email || rec.Purpose != purpose {
			continue
		}
		if !found || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
			found = true
		}
	}
	if !found {
		return Record{}, ErrNoRecord
	}
	return latest, nil
}

func (r *memoryRepository) DeleteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	for _, rec := range r.records {
		if rec.Email != email {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

type memoryResetRepository struct {
	mu    sync.RWMutex
	slots map[string]ResetRecord
}

// NewMemoryResetRepository builds an in-memory reset store for development and tests.
func NewMemoryResetRepository() ResetRepository {
	return &memoryResetRepository{slots: make(map[string]ResetRecord)}
}

func (r *memoryResetRepository) Upsert(_ context.Context, rec ResetRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[rec.Email] = rec
	return nil
}

func (r *memoryResetRepository) Get(_ context.Context, email string) (ResetRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.slots[email]
	if !ok {
		return ResetRecord{}, ErrNoRecord
	}
	return rec, nil
}

func (r *memoryResetRepository) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slots, email)
	return nil
}
