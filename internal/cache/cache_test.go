package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"portfolio/api/internal/store"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	c, err := New("redis://"+s.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return c, s
}

func TestNewCache(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	c, err := New("redis://"+s.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSetAndGet(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	logoID := int64(6)
	item := store.CaseStudy{
		ID:                 12,
		Title:              "Checkout revamp",
		ClientName:         "Acme",
		ClientLogoID:       &logoID,
		ProblemDescription: `<img src="http://x/api/images/7"/>`,
	}

	if err := c.Set(ctx, item); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := c.Get(ctx, 12)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Title != item.Title {
		t.Errorf("title = %q, want %q", got.Title, item.Title)
	}
	if got.ProblemDescription != item.ProblemDescription {
		t.Errorf("problem description = %q, want %q", got.ProblemDescription, item.ProblemDescription)
	}
	if got.ClientLogoID == nil || *got.ClientLogoID != 6 {
		t.Errorf("logo id = %v, want 6", got.ClientLogoID)
	}
}

func TestGetMiss(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	_, ok, err := c.Get(context.Background(), 999)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("expected cache miss")
	}
}

func TestInvalidate(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	if err := c.Set(ctx, store.CaseStudy{ID: 3, Title: "To drop"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := c.Invalidate(ctx, 3); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	_, ok, err := c.Get(ctx, 3)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("expected miss after invalidate")
	}
}

func TestInvalidateMissing(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	// Invalidating an id that was never cached should not error.
	if err := c.Invalidate(context.Background(), 404); err != nil {
		t.Errorf("Invalidate for missing id failed: %v", err)
	}
}

func TestExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	c, err := New("redis://"+s.Addr(), time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, store.CaseStudy{ID: 8, Title: "Short lived"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Fast-forward time in miniredis past the TTL
	s.FastForward(2 * time.Second)

	_, ok, err := c.Get(ctx, 8)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("expected miss after TTL expiry")
	}
}
