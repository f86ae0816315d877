package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestArchiveAndGetPost(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	rec := &PostRecord{
		ArticleTitle: "GPT-5 Released",
		ArticleLink:  "https://example.com/gpt5",
		Source:       "TechCrunch",
		Content:      "Big news today...",
		QualityScore: 7,
		PostID:       "urn:li:share:1",
		PostedAt:     time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	id, err := db.ArchivePost(ctx, rec)
	if err != nil {
		t.Fatalf("ArchivePost: %v", err)
	}

	got, err := db.GetPost(ctx, id)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.ArticleTitle != rec.ArticleTitle || got.QualityScore != 7 || got.PostID != rec.PostID {
		t.Errorf("got %+v", got)
	}
	if !got.PostedAt.Equal(rec.PostedAt) {
		t.Errorf("posted_at = %v, want %v", got.PostedAt, rec.PostedAt)
	}
}

func TestGetPostNotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetPost(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecentPostsOrder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := db.ArchivePost(ctx, &PostRecord{
			ArticleTitle: "post",
			ArticleLink:  "https://example.com",
			Content:      "body",
			PostedAt:     base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	recs, err := db.RecentPosts(ctx, 2)
	if err != nil {
		t.Fatalf("RecentPosts: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if !recs[0].PostedAt.After(recs[1].PostedAt) {
		t.Error("recent posts not in newest-first order")
	}
}

func TestTopSources(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, src := range []string{"Wired", "Wired", "VentureBeat", ""} {
		_, err := db.ArchivePost(ctx, &PostRecord{
			ArticleTitle: "post",
			ArticleLink:  "https://example.com",
			Content:      "body",
			Source:       src,
			PostedAt:     time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	counts, err := db.TopSources(ctx, 5)
	if err != nil {
		t.Fatalf("TopSources: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("got %d sources, want 2 (empty excluded)", len(counts))
	}
	if counts[0].Source != "Wired" || counts[0].Count != 2 {
		t.Errorf("top source = %+v", counts[0])
	}
}

func TestCounters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if v, err := db.GetCounter(ctx, CounterGenerated); err != nil || v != 0 {
		t.Fatalf("fresh counter = %d, %v", v, err)
	}
	for i := 0; i < 3; i++ {
		if err := db.IncrementCounter(ctx, CounterGenerated); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.IncrementCounter(ctx, CounterFailed); err != nil {
		t.Fatal(err)
	}

	if v, _ := db.GetCounter(ctx, CounterGenerated); v != 3 {
		t.Errorf("generated = %d, want 3", v)
	}
	if v, _ := db.GetCounter(ctx, CounterFailed); v != 1 {
		t.Errorf("failed = %d, want 1", v)
	}
}
