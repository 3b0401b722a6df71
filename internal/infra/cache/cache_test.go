package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "jti-1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "jti-1" {
		t.Errorf("expected 'jti-1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "jti-1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "jti-1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_SetWithTTL(t *testing.T) {
	c := cache.New[bool](5 * time.Minute)
	defer c.Close()

	c.SetWithTTL("short", true, 30*time.Millisecond)
	c.Set("long", true)
	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expected short-lived entry to expire")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("expected default-ttl entry to survive")
	}
}

func TestCache_CleanupPurgesExpired(t *testing.T) {
	c := cache.New[int](20 * time.Millisecond)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(100 * time.Millisecond)

	if n := c.Len(); n != 0 {
		t.Errorf("expected expired entries to be purged, %d left", n)
	}
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	c := cache.New[string](time.Minute)
	c.Close()
	c.Close()
}
