package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, time.Hour, nil), mr
}

func TestRatingRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok, err := c.GetRating(ctx, "u1"); err != nil || ok {
		t.Fatalf("cold GetRating = (ok=%v, err=%v), want miss", ok, err)
	}

	if err := c.SetRating(ctx, "u1", 640); err != nil {
		t.Fatalf("SetRating error = %v", err)
	}

	rating, ok, err := c.GetRating(ctx, "u1")
	if err != nil {
		t.Fatalf("GetRating error = %v", err)
	}
	if !ok || rating != 640 {
		t.Errorf("GetRating = (%d, %v), want (640, true)", rating, ok)
	}
}

func TestRatingExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.SetRating(ctx, "u1", 500); err != nil {
		t.Fatalf("SetRating error = %v", err)
	}
	mr.FastForward(2 * time.Hour)

	if _, ok, err := c.GetRating(ctx, "u1"); err != nil || ok {
		t.Errorf("GetRating after expiry = (ok=%v, err=%v), want miss", ok, err)
	}
}

func TestLikeCount_ReadThrough(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (int, error) {
		loads++
		return 7, nil
	}

	for i := 0; i < 3; i++ {
		count, err := c.LikeCount(ctx, "u1", load)
		if err != nil {
			t.Fatalf("LikeCount error = %v", err)
		}
		if count != 7 {
			t.Errorf("LikeCount = %d, want 7", count)
		}
	}
	if loads != 1 {
		t.Errorf("loader ran %d times, want 1 (cache-first)", loads)
	}
}

func TestLikeCount_HitRefreshesTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	load := func(context.Context) (int, error) { return 3, nil }
	if _, err := c.LikeCount(ctx, "u1", load); err != nil {
		t.Fatalf("LikeCount error = %v", err)
	}

	// Keep reading just inside the TTL; refreshes must keep the entry
	// alive past its original expiry.
	for i := 0; i < 3; i++ {
		mr.FastForward(45 * time.Minute)
		failing := func(context.Context) (int, error) {
			return 0, errors.New("loader must not run on a hit")
		}
		count, err := c.LikeCount(ctx, "u1", failing)
		if err != nil {
			t.Fatalf("LikeCount on refreshed entry error = %v", err)
		}
		if count != 3 {
			t.Errorf("LikeCount = %d, want 3", count)
		}
	}
}

func TestLikeCount_InvalidateForcesReload(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	counts := []int{4, 5}
	loads := 0
	load := func(context.Context) (int, error) {
		v := counts[loads]
		loads++
		return v, nil
	}

	if count, _ := c.LikeCount(ctx, "u1", load); count != 4 {
		t.Fatalf("first LikeCount = %d, want 4", count)
	}
	if err := c.InvalidateLikeCount(ctx, "u1"); err != nil {
		t.Fatalf("InvalidateLikeCount error = %v", err)
	}
	count, err := c.LikeCount(ctx, "u1", load)
	if err != nil {
		t.Fatalf("LikeCount error = %v", err)
	}
	if count != 5 {
		t.Errorf("LikeCount after invalidation = %d, want reloaded 5", count)
	}
	if loads != 2 {
		t.Errorf("loader ran %d times, want 2", loads)
	}
}

func TestLikeCount_LoaderErrorPropagates(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	wantErr := errors.New("storage down")
	_, err := c.LikeCount(ctx, "u1", func(context.Context) (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want loader error", err)
	}
}

func TestLikeCount_RedisDownFallsBackToLoader(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c := New(client, time.Hour, nil)
	mr.Close()

	count, err := c.LikeCount(context.Background(), "u1", func(context.Context) (int, error) {
		return 9, nil
	})
	if err != nil {
		t.Fatalf("LikeCount with redis down error = %v", err)
	}
	if count != 9 {
		t.Errorf("LikeCount = %d, want loader value 9", count)
	}
}
