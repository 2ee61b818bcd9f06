package kvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
	boardredis "github.com/communityboard/board-client/internal/infrastructure/db/redis"
)

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, store ports.KVStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Set(ctx, "a", "1", 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if v, err := store.Get(ctx, "a"); err != nil || v != "1" {
		t.Fatalf("expected 1, got %q %v", v, err)
	}

	if err := store.SetMany(ctx, map[string]string{"token": "t", "role": "ADMIN"}); err != nil {
		t.Fatalf("SetMany returned error: %v", err)
	}
	if v, _ := store.Get(ctx, "role"); v != "ADMIN" {
		t.Fatalf("expected ADMIN, got %q", v)
	}

	if err := store.Delete(ctx, "token", "role", "never-set"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := store.Get(ctx, "token"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected token deleted, got %v", err)
	}
	if v, _ := store.Get(ctx, "a"); v != "1" {
		t.Fatalf("unrelated key must survive Delete")
	}
}

func waitChange(t *testing.T, ch <-chan ports.ChangeEvent, key string) ports.ChangeEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("change feed closed")
			}
			for _, k := range ev.Keys {
				if k == key {
					return ev
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change to %q", key)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_TTL(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Set(ctx, "view:1:2", "x", time.Hour)
	now = now.Add(59 * time.Minute)
	if _, err := store.Get(ctx, "view:1:2"); err != nil {
		t.Fatalf("expected entry before expiry, got %v", err)
	}
	now = now.Add(time.Minute)
	if _, err := store.Get(ctx, "view:1:2"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected entry expired, got %v", err)
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	_ = store.SetMany(ctx, map[string]string{"token": "t", "role": "USER"})
	if ev := waitChange(t, ch, "token"); ev.Deleted || len(ev.Keys) != 2 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	_ = store.Delete(ctx, "token")
	if ev := waitChange(t, ch, "token"); !ev.Deleted {
		t.Fatalf("expected delete event, got %+v", ev)
	}

	cancel()
	for range ch {
	}
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "session.json"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	exerciseStore(t, store)
}

func TestFileStore_SharedBetweenInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	a, err := NewFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	b, _ := NewFileStore(path, zerolog.Nop())
	ctx := context.Background()

	_ = a.Set(ctx, "token", "from-a", 0)
	if v, err := b.Get(ctx, "token"); err != nil || v != "from-a" {
		t.Fatalf("expected b to read a's write, got %q %v", v, err)
	}

	// last writer wins
	_ = b.Set(ctx, "token", "from-b", 0)
	if v, _ := a.Get(ctx, "token"); v != "from-b" {
		t.Fatalf("expected last write to win, got %q", v)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(matches) != 0 {
		t.Fatalf("expected no temp files left behind, got %v", matches)
	}
}

func TestFileStore_ConcurrentWritersKeepEachOthersKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	a, _ := NewFileStore(path, zerolog.Nop())
	b, _ := NewFileStore(path, zerolog.Nop())
	ctx := context.Background()

	for round := 0; round < 50; round++ {
		if err := a.SetMany(ctx, map[string]string{"token": "t", "displayName": "kim"}); err != nil {
			t.Fatalf("SetMany returned error: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := a.Delete(ctx, "token", "displayName"); err != nil {
				t.Errorf("Delete returned error: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				key := "view:" + strconv.Itoa(round) + ":" + strconv.Itoa(i)
				if err := b.Set(ctx, key, "x", time.Hour); err != nil {
					t.Errorf("Set returned error: %v", err)
				}
			}
		}()
		wg.Wait()

		if _, err := b.Get(ctx, "token"); !errors.Is(err, domain.ErrKeyNotFound) {
			t.Fatalf("round %d: deleted token came back (%v)", round, err)
		}
		for i := 0; i < 5; i++ {
			key := "view:" + strconv.Itoa(round) + ":" + strconv.Itoa(i)
			if _, err := a.Get(ctx, key); err != nil {
				t.Fatalf("round %d: lost %s: %v", round, key, err)
			}
		}
	}
}

func TestFileStore_TTL(t *testing.T) {
	store, _ := NewFileStore(filepath.Join(t.TempDir(), "s.json"), zerolog.Nop())
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Set(ctx, "k", "v", time.Minute)
	now = now.Add(time.Minute)
	if _, err := store.Get(ctx, "k"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected expired key, got %v", err)
	}
}

func TestFileStore_CorruptFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	store, _ := NewFileStore(path, zerolog.Nop())

	if _, err := store.Get(context.Background(), "token"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := store.Set(context.Background(), "token", "t", 0); err != nil {
		t.Fatalf("expected Set to recover a corrupt file, got %v", err)
	}
}

func TestFileStore_SubscribeSeesOtherWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	watcher, _ := NewFileStore(path, zerolog.Nop())
	writer, _ := NewFileStore(path, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := watcher.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}

	_ = writer.SetMany(ctx, map[string]string{"token": "t", "displayName": "kim"})
	if ev := waitChange(t, ch, "token"); ev.Deleted {
		t.Fatalf("unexpected delete event: %+v", ev)
	}

	_ = writer.Delete(ctx, "token", "displayName")
	if ev := waitChange(t, ch, "token"); !ev.Deleted {
		t.Fatalf("expected delete event, got %+v", ev)
	}
}

func TestDiff(t *testing.T) {
	before := map[string]fileEntry{"a": {Value: "1"}, "b": {Value: "2"}}
	after := map[string]fileEntry{"a": {Value: "1"}, "b": {Value: "3"}, "c": {Value: "4"}}

	ev, changed := diff(before, after)
	if !changed || len(ev.Keys) != 2 || ev.Keys[0] != "b" || ev.Keys[1] != "c" || ev.Deleted {
		t.Fatalf("unexpected diff: %+v", ev)
	}
	if _, changed := diff(after, after); changed {
		t.Fatalf("expected no change for identical snapshots")
	}
}

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("BOARD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BOARD_TEST_REDIS_ADDR not set")
	}
	client, err := boardredis.Connect(context.Background(), boardredis.Config{Addr: addr})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "board:test:"+t.Name()+":", zerolog.Nop())
}

func TestRedisStore(t *testing.T) {
	exerciseStore(t, newTestRedisStore(t))
}

func TestRedisStore_Subscribe(t *testing.T) {
	store := newTestRedisStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	_ = store.Set(ctx, "token", "t", 0)
	waitChange(t, ch, "token")
	_ = store.Delete(ctx, "token")
	if ev := waitChange(t, ch, "token"); !ev.Deleted {
		t.Fatalf("expected delete event, got %+v", ev)
	}
}
