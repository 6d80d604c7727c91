package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newReadMarkerForTest(t *testing.T) ReadMarkerRepository {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewReadMarkerRepository(client)
}

func TestWatermarkRoundTrip(t *testing.T) {
	repo := newReadMarkerForTest(t)
	ctx := context.Background()

	if err := repo.SetWatermark(ctx, "viewer-1", "t1", 42); err != nil {
		t.Fatalf("set: %v", err)
	}
	seq, err := repo.GetWatermark(ctx, "viewer-1", "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if seq != 42 {
		t.Fatalf("seq = %d", seq)
	}
}

func TestWatermarkDefaultsToZero(t *testing.T) {
	repo := newReadMarkerForTest(t)

	seq, err := repo.GetWatermark(context.Background(), "viewer-1", "never-opened")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if seq != 0 {
		t.Fatalf("seq = %d", seq)
	}
}

func TestWatermarkAdvanceOverwrites(t *testing.T) {
	repo := newReadMarkerForTest(t)
	ctx := context.Background()

	_ = repo.SetWatermark(ctx, "viewer-1", "t1", 5)
	_ = repo.SetWatermark(ctx, "viewer-1", "t1", 9)

	seq, _ := repo.GetWatermark(ctx, "viewer-1", "t1")
	if seq != 9 {
		t.Fatalf("seq = %d", seq)
	}
}

func TestWatermarksBatchMixedPresence(t *testing.T) {
	repo := newReadMarkerForTest(t)
	ctx := context.Background()

	_ = repo.SetWatermark(ctx, "viewer-1", "t1", 3)
	_ = repo.SetWatermark(ctx, "viewer-2", "t2", 99)

	marks, err := repo.GetWatermarks(ctx, "viewer-1", []string{"t1", "t2", "t3"})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if marks["t1"] != 3 {
		t.Fatalf("t1 = %d", marks["t1"])
	}
	// t2 belongs to another viewer; t3 was never opened.
	if marks["t2"] != 0 || marks["t3"] != 0 {
		t.Fatalf("marks = %v", marks)
	}
}

func TestWatermarksEmptyRequest(t *testing.T) {
	repo := newReadMarkerForTest(t)

	marks, err := repo.GetWatermarks(context.Background(), "viewer-1", nil)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(marks) != 0 {
		t.Fatalf("marks = %v", marks)
	}
}
