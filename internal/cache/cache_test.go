package cache

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func TestKey_PartBoundaries(t *testing.T) {
	if Key("verify", "ab", "c") == Key("verify", "a", "bc") {
		t.Error("shifted part boundaries must not collide")
	}
	if Key("verify", "347 U.S. 483") != Key("verify", "347 U.S. 483") {
		t.Error("key generation must be deterministic")
	}
	if Key("verify", "x") == Key("attribution", "x") {
		t.Error("namespaces must not collide")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	c := NewDiskCache(filepath.Join(t.TempDir(), "cache"), time.Hour)

	key := Key("verify", "347 U.S. 483")
	if err := c.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := c.Get(key)
	if !ok || !bytes.Equal(got, []byte("payload")) {
		t.Errorf("got %q, %v", got, ok)
	}
}

func TestDiskCache_ExpiredEntryMisses(t *testing.T) {
	c := NewDiskCache(filepath.Join(t.TempDir(), "cache"), time.Hour)

	key := Key("verify", "999 U.S. 999")
	if err := c.Set(key, []byte("stale"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, ok := c.Get(key); ok {
		t.Error("expired entry returned")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewLayeredCache(time.Hour, dir, time.Hour)

	key := Key("verify", "347 U.S. 483")
	if err := c.Set(key, []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Drop the memory layer; the next Get must fall through to disk and
	// promote the entry back.
	c.memory.Clear()

	if _, ok := c.Get(key); !ok {
		t.Fatal("disk layer miss")
	}
	if _, ok := c.memory.Get(key); !ok {
		t.Error("disk hit was not promoted to memory")
	}
}

func TestLayeredCache_NoDiskDir(t *testing.T) {
	c := NewLayeredCache(time.Hour, "", time.Hour)

	key := Key("verify", "347 U.S. 483")
	if err := c.Set(key, []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok := c.Get(key); !ok || !bytes.Equal(got, []byte("payload")) {
		t.Errorf("memory-only layered cache broken: %q, %v", got, ok)
	}
}
