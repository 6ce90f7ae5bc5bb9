package memstore_test

import (
	"context"
	"testing"

	"github.com/janm-dev/links-go/internal/linkid"
	"github.com/janm-dev/links-go/internal/normalized"
	"github.com/janm-dev/links-go/internal/statistic"
	"github.com/janm-dev/links-go/internal/store"
	_ "github.com/janm-dev/links-go/internal/store/memstore"
)

func newBackend(t *testing.T) store.Backend {
	t.Helper()
	b, err := store.New("memory", nil)
	if err != nil {
		t.Fatalf("store.New(memory): %v", err)
	}
	if err := b.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestRedirectCRUD(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	id := linkid.New()
	link, err := normalized.NewLink("https://example.com/")
	if err != nil {
		t.Fatalf("NewLink: %v", err)
	}

	if _, had, err := b.GetRedirect(ctx, id); err != nil || had {
		t.Fatalf("GetRedirect before set: had=%v err=%v", had, err)
	}

	if _, had, err := b.SetRedirect(ctx, id, link); err != nil || had {
		t.Fatalf("SetRedirect first: had=%v err=%v", had, err)
	}

	got, had, err := b.GetRedirect(ctx, id)
	if err != nil || !had || got.String() != link.String() {
		t.Fatalf("GetRedirect after set: got=%v had=%v err=%v", got, had, err)
	}

	old, had, err := b.RemRedirect(ctx, id)
	if err != nil || !had || old.String() != link.String() {
		t.Fatalf("RemRedirect: old=%v had=%v err=%v", old, had, err)
	}

	if _, had, _ := b.GetRedirect(ctx, id); had {
		t.Fatal("GetRedirect after remove should report absent")
	}
}

func TestVanityCRUD(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	id := linkid.New()
	vanity := normalized.New("Example")

	if _, had, err := b.SetVanity(ctx, vanity, id); err != nil || had {
		t.Fatalf("SetVanity: had=%v err=%v", had, err)
	}

	got, had, err := b.GetVanity(ctx, vanity)
	if err != nil || !had || got.Compare(id) != 0 {
		t.Fatalf("GetVanity: got=%v had=%v err=%v", got, had, err)
	}

	// Normalized equality is case-insensitive.
	if got2, had, _ := b.GetVanity(ctx, normalized.New("EXAMPLE")); !had || got2.Compare(id) != 0 {
		t.Fatalf("GetVanity should be case-insensitive: got=%v had=%v", got2, had)
	}
}

func TestStatisticsIncrAndQuery(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	now := statistic.Now()
	s := statistic.Statistic{Link: "abc", Type: statistic.Request, Data: "", Time: now}

	v, err := b.IncrStatistic(ctx, s)
	if err != nil || v != 1 {
		t.Fatalf("first IncrStatistic: v=%v err=%v", v, err)
	}
	v, err = b.IncrStatistic(ctx, s)
	if err != nil || v != 2 {
		t.Fatalf("second IncrStatistic: v=%v err=%v", v, err)
	}

	link := "abc"
	entries, err := b.GetStatistics(ctx, statistic.Description{Link: &link})
	if err != nil || len(entries) != 1 || entries[0].Value != 2 {
		t.Fatalf("GetStatistics: entries=%v err=%v", entries, err)
	}

	removed, err := b.RemStatistics(ctx, statistic.Description{Link: &link})
	if err != nil || len(removed) != 1 {
		t.Fatalf("RemStatistics: removed=%v err=%v", removed, err)
	}
	if entries, _ := b.GetStatistics(ctx, statistic.Description{Link: &link}); len(entries) != 0 {
		t.Fatalf("statistics should be gone after removal, got %v", entries)
	}
}

func TestClosedBackendRejectsOps(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, _, err := b.GetRedirect(ctx, linkid.New()); err != store.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
