package cache_test

import (
	"testing"
	"time"

	"github.com/geocoder89/taskify/internal/cache"
)

func TestCacheSetGet(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("k", 42)

	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Fatalf("got %v %v, want 42 true", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("unexpected hit for missing key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := cache.New(10 * time.Millisecond)

	c.Set("k", "v")

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
}

func TestCacheDeletePrefix(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("tasks:list:v1:owner=a:status=", 1)
	c.Set("tasks:list:v1:owner=a:status=PENDING", 2)
	c.Set("tasks:list:v1:owner=b:status=", 3)

	c.DeletePrefix("tasks:list:v1:owner=a")

	if _, ok := c.Get("tasks:list:v1:owner=a:status="); ok {
		t.Fatal("owner=a variant should be gone")
	}
	if _, ok := c.Get("tasks:list:v1:owner=a:status=PENDING"); ok {
		t.Fatal("owner=a filtered variant should be gone")
	}
	if _, ok := c.Get("tasks:list:v1:owner=b:status="); !ok {
		t.Fatal("owner=b must survive")
	}
}
