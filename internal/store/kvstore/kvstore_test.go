package kvstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/janm-dev/links-go/internal/linkid"
	"github.com/janm-dev/links-go/internal/normalized"
	"github.com/janm-dev/links-go/internal/statistic"
	"github.com/janm-dev/links-go/internal/store/kvstore"
)

func newBackend(t *testing.T) *kvstore.Backend {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := kvstore.DefaultConfig()
	cfg.Addr = mr.Addr()

	b, err := kvstore.New(cfg)
	if err != nil {
		t.Fatalf("kvstore.New: %v", err)
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
		t.Fatalf("SetRedirect: had=%v err=%v", had, err)
	}

	got, had, err := b.GetRedirect(ctx, id)
	if err != nil || !had || got.String() != link.String() {
		t.Fatalf("GetRedirect: got=%v had=%v err=%v", got, had, err)
	}

	old, had, err := b.RemRedirect(ctx, id)
	if err != nil || !had || old.String() != link.String() {
		t.Fatalf("RemRedirect: old=%v had=%v err=%v", old, had, err)
	}

	if _, had, _ := b.GetRedirect(ctx, id); had {
		t.Fatal("redirect should be gone after removal")
	}
}

func TestVanityCRUD(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	id := linkid.New()
	vanity := normalized.New("example")

	if _, had, err := b.SetVanity(ctx, vanity, id); err != nil || had {
		t.Fatalf("SetVanity: had=%v err=%v", had, err)
	}

	got, had, err := b.GetVanity(ctx, vanity)
	if err != nil || !had || got.Compare(id) != 0 {
		t.Fatalf("GetVanity: got=%v had=%v err=%v", got, had, err)
	}
}

func TestStatisticsIncrAndQuery(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	s := statistic.Statistic{Link: "abc", Type: statistic.Request, Data: "", Time: statistic.Now()}

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
