package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type stubStore struct {
	data       map[string]string
	getErr     error
	setErr     error
	delErr     error
	patternErr error
	deleted    []string
	patterns   []string
}

func newStubStore() *stubStore {
	return &stubStore{data: make(map[string]string)}
}

func (s *stubStore) Get(ctx context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (s *stubStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value.(string)
	return nil
}

func (s *stubStore) Del(ctx context.Context, keys ...string) error {
	if s.delErr != nil {
		return s.delErr
	}
	for _, key := range keys {
		delete(s.data, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func (s *stubStore) DeletePattern(ctx context.Context, pattern string) (int, error) {
	s.patterns = append(s.patterns, pattern)
	if s.patternErr != nil {
		return 0, s.patternErr
	}
	return 0, nil
}

func TestGetMissThenHit(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	c := New(store, nil, nil)

	if _, hit := c.Get(ctx, "k"); hit {
		t.Fatalf("expected miss on empty store")
	}

	c.Set(ctx, "k", "payload", time.Minute)
	payload, hit := c.Get(ctx, "k")
	if !hit {
		t.Fatalf("expected hit after set")
	}
	if payload != "payload" {
		t.Fatalf("unexpected payload %q", payload)
	}
}

func TestGetFailsOpenOnTransportError(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.getErr = errors.New("connection refused")
	c := New(store, nil, nil)

	if _, hit := c.Get(ctx, "k"); hit {
		t.Fatalf("transport error must read as a miss")
	}
}

func TestSetSwallowsErrors(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.setErr = errors.New("connection refused")
	c := New(store, nil, nil)

	c.Set(ctx, "k", "payload", time.Minute)
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	c := New(store, nil, nil)

	type entry struct {
		Name   string  `json:"name"`
		Rating float64 `json:"rating"`
	}
	in := []entry{{Name: "Luigi's", Rating: 4.5}, {Name: "Taqueria Sur", Rating: 4.2}}
	c.SetJSON(ctx, "leaderboard", in, time.Minute)

	var out []entry
	if !c.GetJSON(ctx, "leaderboard", &out) {
		t.Fatalf("expected hit")
	}
	if len(out) != 2 || out[0].Name != "Luigi's" || out[1].Rating != 4.2 {
		t.Fatalf("unexpected decoded payload %+v", out)
	}
}

func TestGetJSONCorruptPayloadIsMiss(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	store.data["k"] = "{not json"
	c := New(store, nil, nil)

	var out map[string]any
	if c.GetJSON(ctx, "k", &out) {
		t.Fatalf("corrupt payload must read as a miss")
	}
}

func TestInvalidateCombinesFailures(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	c := New(store, nil, nil)

	if err := c.Invalidate(ctx, "a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deleted) != 2 {
		t.Fatalf("expected both keys deleted, got %v", store.deleted)
	}

	store.delErr = errors.New("connection refused")
	err := c.Invalidate(ctx, "a", "b")
	if err == nil {
		t.Fatalf("expected combined error")
	}
}

func TestInvalidatePattern(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	c := New(store, nil, nil)

	if err := c.InvalidatePattern(ctx, "cache:leaderboard:*"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.patterns) != 1 || store.patterns[0] != "cache:leaderboard:*" {
		t.Fatalf("unexpected patterns %v", store.patterns)
	}

	store.patternErr = errors.New("connection refused")
	if err := c.InvalidatePattern(ctx, "cache:leaderboard:*"); err == nil {
		t.Fatalf("expected error for logging")
	}
}
