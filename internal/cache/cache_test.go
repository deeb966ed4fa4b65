package cache

import (
	"testing"
	"time"
)

func TestMemoryCache_GetSet(t *testing.T) {
	c, err := New("memory", ProviderConfig{Size: 10, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New memory cache: %v", err)
	}
	defer c.Close()

	// Miss
	val, ok := c.Get("key1")
	if ok {
		t.Fatal("Expected miss for key1")
	}
	if val != nil {
		t.Fatalf("Expected nil value on miss, got %v", val)
	}

	// Set + hit
	c.Set("key1", []byte("value1"))
	val, ok = c.Get("key1")
	if !ok {
		t.Fatal("Expected hit for key1")
	}
	if string(val) != "value1" {
		t.Fatalf("Expected value1, got %s", string(val))
	}
}

func TestMemoryCache_Overwrite(t *testing.T) {
	c, err := New("memory", ProviderConfig{Size: 10, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set("key", []byte("first"))
	c.Set("key", []byte("second"))

	val, ok := c.Get("key")
	if !ok {
		t.Fatal("Expected hit")
	}
	if string(val) != "second" {
		t.Fatalf("Expected second, got %s", string(val))
	}
}

func TestMemoryCache_Len(t *testing.T) {
	c, err := New("memory", ProviderConfig{Size: 10, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if c.Len() != 0 {
		t.Fatalf("Expected Len 0, got %d", c.Len())
	}

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	if c.Len() != 2 {
		t.Fatalf("Expected Len 2, got %d", c.Len())
	}
}

func TestMemoryCache_EvictsAtCapacity(t *testing.T) {
	c, err := New("memory", ProviderConfig{Size: 2, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("c", []byte("3"))

	if c.Len() != 2 {
		t.Fatalf("Expected Len 2 after eviction, got %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("Expected oldest entry to be evicted")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New("bogus", ProviderConfig{Size: 1, TTL: time.Minute})
	if err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}

func TestRegisteredProviders(t *testing.T) {
	names := RegisteredProviders()

	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["memory"] {
		t.Errorf("Expected memory provider registered, got %v", names)
	}
	if !found["redis"] {
		t.Errorf("Expected redis provider registered, got %v", names)
	}
}

func TestRegister_NilProviderPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Expected panic for nil provider")
		}
	}()
	Register("nil-provider", nil)
}

func TestInstrumentedCache_Wraps(t *testing.T) {
	c, err := New("memory", ProviderConfig{Size: 10, TTL: time.Hour, Group: "test-group"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, ok := c.(*instrumentedCache); !ok {
		t.Fatalf("Expected instrumented cache when Group set, got %T", c)
	}

	c.Set("k", []byte("v"))
	if val, ok := c.Get("k"); !ok || string(val) != "v" {
		t.Fatalf("Instrumented cache Get = %q, %v", val, ok)
	}
}
