package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/okarpov/athanor/internal/model"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("chembl", "https://example.org/a")
	b := Fingerprint("chembl", "https://example.org/b")
	c := Fingerprint("pubchem", "https://example.org/a")

	if a == b || a == c {
		t.Error("distinct inputs must fingerprint differently")
	}
	if a != Fingerprint("chembl", "https://example.org/a") {
		t.Error("fingerprint must be stable")
	}
}

func roundtrip(t *testing.T, c Cache) {
	t.Helper()

	key := Fingerprint("test", "https://example.org")
	if _, found := c.Get(key); found {
		t.Error("empty cache reported a hit")
	}
	if err := c.Set(key, []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, found := c.Get(key)
	if !found || string(data) != "value" {
		t.Fatalf("Get after Set: %q, %v", data, found)
	}
	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("hit after delete")
	}
}

func TestMemoryCache(t *testing.T) {
	roundtrip(t, NewMemoryCache(time.Minute, time.Minute))
}

func TestDiskCache(t *testing.T) {
	roundtrip(t, NewDiskCache(t.TempDir(), time.Hour))
}

func TestSQLiteCache(t *testing.T) {
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "responses.db"), time.Hour)
	if err != nil {
		t.Fatalf("NewSQLiteCache: %v", err)
	}
	defer func() { _ = c.Close() }()
	roundtrip(t, c)
}

func TestLayeredCachePromotes(t *testing.T) {
	persistent := NewDiskCache(t.TempDir(), time.Hour)
	layered := NewLayeredCache(time.Minute, persistent)

	key := Fingerprint("test", "https://example.org")
	// Write to the persistent layer behind the memory layer's back.
	if err := persistent.Set(key, []byte("cold"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, found := layered.Get(key)
	if !found || string(data) != "cold" {
		t.Fatalf("layered Get: %q, %v", data, found)
	}
	// After promotion the memory layer serves it even if the file goes away.
	if err := persistent.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := layered.Get(key); !found {
		t.Error("expected promoted entry in the memory layer")
	}
}

func TestFromConfig(t *testing.T) {
	if c, err := FromConfig(model.CacheConfig{Enabled: false}); err != nil {
		t.Fatalf("disabled: %v", err)
	} else if _, ok := c.(Nop); !ok {
		t.Errorf("disabled cache should be Nop, got %T", c)
	}

	dir := t.TempDir()
	if _, err := FromConfig(model.CacheConfig{Enabled: true, Backend: "disk", Dir: dir}); err != nil {
		t.Errorf("disk backend: %v", err)
	}
	if _, err := FromConfig(model.CacheConfig{Enabled: true, Backend: "sqlite", Dir: dir}); err != nil {
		t.Errorf("sqlite backend: %v", err)
	}
	if _, err := FromConfig(model.CacheConfig{Enabled: true, Backend: "redis"}); err == nil {
		t.Error("expected unknown backend to fail")
	}
}

func TestNopCache(t *testing.T) {
	var c Cache = Nop{}
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("Nop must never hit")
	}
}
