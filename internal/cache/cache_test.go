package cache

import (
	"testing"
	"time"

	"github.com/mkravets/newswire/internal/store"
)

func TestKey_OrderIndependent(t *testing.T) {
	a := Key([]string{"Texas", "California"}, []string{"Sports", "Politics"}, "flood", 1, 10)
	b := Key([]string{"California", "Texas"}, []string{"Politics", "Sports"}, "flood", 1, 10)
	if a != b {
		t.Fatalf("keys differ for same effective filters:\n%s\n%s", a, b)
	}
}

func TestKey_DistinguishesPageAndLimit(t *testing.T) {
	a := Key([]string{"California"}, nil, "", 1, 10)
	b := Key([]string{"California"}, nil, "", 2, 10)
	c := Key([]string{"California"}, nil, "", 1, 20)
	if a == b || a == c {
		t.Fatal("page and limit must be part of the key")
	}
}

func TestKey_DoesNotMutateInputs(t *testing.T) {
	regions := []string{"Texas", "California"}
	Key(regions, nil, "", 1, 10)
	if regions[0] != "Texas" {
		t.Fatal("Key must not sort the caller's slice")
	}
}

func TestGetPut(t *testing.T) {
	c := New(time.Minute)
	page := []store.Article{{ID: 1, Title: "cached"}}

	key := Key([]string{"California"}, []string{"Politics"}, "", 1, 10)
	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss before put")
	}

	c.Put(key, page)
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(got) != 1 || got[0].Title != "cached" {
		t.Fatalf("unexpected page: %+v", got)
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c := New(time.Minute)
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	key := Key(nil, nil, "", 1, 10)
	c.Put(key, []store.Article{{ID: 1}})

	current = current.Add(59 * time.Second)
	if _, ok := c.Get(key); !ok {
		t.Fatal("expected hit before expiry")
	}

	current = current.Add(2 * time.Second)
	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Fatal("expired entry must be lazily evicted")
	}
}

func TestInvalidateAll(t *testing.T) {
	c := New(time.Minute)
	c.Put(Key([]string{"California"}, nil, "", 1, 10), []store.Article{{ID: 1}})
	c.Put(Key([]string{"Texas"}, nil, "", 1, 10), []store.Article{{ID: 2}})

	c.InvalidateAll()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}
