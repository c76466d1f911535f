package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type kvFactory struct {
	name string
	new  func(t *testing.T) KV
}

func kvFactories() []kvFactory {
	return []kvFactory{
		{
			name: "memory",
			new: func(t *testing.T) KV {
				return NewMemoryKV()
			},
		},
		{
			name: "file",
			new: func(t *testing.T) KV {
				kv, err := NewFileKV(t.TempDir())
				if err != nil {
					t.Fatalf("NewFileKV: %v", err)
				}
				return kv
			},
		},
		{
			name: "redis",
			new: func(t *testing.T) KV {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis start: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() {
					_ = rdb.Close()
					mr.Close()
				})
				return NewRedisKV(rdb, 0)
			},
		},
	}
}

func testRecord() *Record {
	return &Record{
		Email:      "a@b.com",
		Identity:   []byte(`{"id":7,"name":"Door A"}`),
		Credential: "tok-123",
		SavedAt:    1700000000,
	}
}

func TestStoreSaveLoadErase(t *testing.T) {
	for _, f := range kvFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewStore(f.new(t), "checkin", "")

			if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on empty store, got %v", err)
			}

			if err := store.Save(ctx, testRecord()); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			want := testRecord()
			if got.Email != want.Email || got.Credential != want.Credential ||
				string(got.Identity) != string(want.Identity) || got.SavedAt != want.SavedAt {
				t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
			}

			if err := store.Erase(ctx); err != nil {
				t.Fatalf("erase: %v", err)
			}
			if err := store.Erase(ctx); err != nil {
				t.Fatalf("second erase must be a no-op, got %v", err)
			}
			if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after erase, got %v", err)
			}
		})
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryKV(), "", "")

	first := testRecord()
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second := testRecord()
	second.Email = "c@d.com"
	second.Credential = "tok-456"
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Email != "c@d.com" || got.Credential != "tok-456" {
		t.Fatalf("expected overwritten record, got %+v", got)
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	for _, f := range kvFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			kv := f.new(t)
			store := NewStore(kv, "checkin", "auth")

			if err := kv.Set(ctx, store.Key(), []byte("{not binary}")); err != nil {
				t.Fatalf("seed corrupt value: %v", err)
			}
			if _, err := store.Load(ctx); !errors.Is(err, ErrRecordCorrupt) {
				t.Fatalf("expected ErrRecordCorrupt, got %v", err)
			}
		})
	}
}

func TestStoreKeyDefaults(t *testing.T) {
	if got := NewStore(NewMemoryKV(), "", "").Key(); got != "auth" {
		t.Fatalf("expected default key auth, got %q", got)
	}
	if got := NewStore(NewMemoryKV(), "checkin", "auth").Key(); got != "checkin:auth" {
		t.Fatalf("expected prefixed key, got %q", got)
	}
}

func TestRedisKVTTLAndUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	kv := NewRedisKV(rdb, time.Hour)
	if err := kv.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("k"); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", ttl)
	}

	mr.Close()

	if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable with redis down, got %v", err)
	}
}
