package session

import (
	"context"
	"errors"
	"strings"
)

// Store keeps the single persisted session record under one logical key.
type Store struct {
	kv  KV
	key string
}

// NewStore creates a [Store] on kv. The record lives at prefix + ":" + name; an empty
// name defaults to "auth", the key the original device storage used.
func NewStore(kv KV, prefix, name string) *Store {
	if name == "" {
		name = "auth"
	}
	key := name
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		key = prefix + ":" + name
	}
	return &Store{kv: kv, key: key}
}

// Key returns the storage key of the record.
func (s *Store) Key() string {
	return s.key
}

// Load reads and decodes the record. It returns [ErrNotFound] when nothing is
// persisted, [ErrRecordCorrupt] when the bytes cannot be decoded, and backend errors
// as returned by the [KV].
func (s *Store) Load(ctx context.Context) (*Record, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return Decode(data)
}

// Save overwrites any previous record.
func (s *Store) Save(ctx context.Context, r *Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key, data)
}

// Erase removes the record. Erasing an absent record succeeds.
func (s *Store) Erase(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
