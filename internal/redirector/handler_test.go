package redirector_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/janm-dev/links-go/internal/linkid"
	"github.com/janm-dev/links-go/internal/normalized"
	"github.com/janm-dev/links-go/internal/platform/config"
	"github.com/janm-dev/links-go/internal/redirector"
	"github.com/janm-dev/links-go/internal/statistic"
	"github.com/janm-dev/links-go/internal/store"
	_ "github.com/janm-dev/links-go/internal/store/memstore"
)

func newHandler(t *testing.T) (*redirector.Handler, *store.Current) {
	t.Helper()
	backend, err := store.New("memory", nil)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	if err := backend.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cur := store.NewCurrent(backend)

	h := &redirector.Handler{
		Store: cur,
		ConfigFunc: func() config.RedirectorConfig {
			return config.RedirectorConfig{
				HSTS:       config.HSTSEnable,
				HSTSMaxAge: 63072000,
				SendServer: true,
				SendCSP:    true,
				Statistics: []statistic.Category{statistic.CategoryRedirect},
			}
		},
	}
	return h, cur
}

func TestHandlerRedirectsByID(t *testing.T) {
	h, cur := newHandler(t)
	ctx := context.Background()
	backend := cur.Get()

	id := linkid.New()
	link, err := normalized.NewLink("https://example.com/")
	if err != nil {
		t.Fatalf("NewLink: %v", err)
	}
	if _, _, err := backend.SetRedirect(ctx, id, link); err != nil {
		t.Fatalf("SetRedirect: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/"+id.String(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if got := rec.Header().Get("Location"); got != link.String() {
		t.Fatalf("Location = %q, want %q", got, link.String())
	}
	if got := rec.Header().Get("Link-ID"); got != id.String() {
		t.Fatalf("Link-ID = %q, want %q", got, id.String())
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected a Strict-Transport-Security header")
	}
}

func TestHandlerRedirectsByVanity(t *testing.T) {
	h, cur := newHandler(t)
	ctx := context.Background()
	backend := cur.Get()

	id := linkid.New()
	link, _ := normalized.NewLink("https://example.org/")
	vanity := normalized.New("example")
	if _, _, err := backend.SetRedirect(ctx, id, link); err != nil {
		t.Fatalf("SetRedirect: %v", err)
	}
	if _, _, err := backend.SetVanity(ctx, vanity, id); err != nil {
		t.Fatalf("SetVanity: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/example", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if got := rec.Header().Get("Link-ID"); got != id.String() {
		t.Fatalf("Link-ID = %q, want %q", got, id.String())
	}
}

func TestHandlerVanityRecordsStatisticUnderBothKeys(t *testing.T) {
	h, cur := newHandler(t)
	ctx := context.Background()
	backend := cur.Get()

	id := linkid.New()
	link, _ := normalized.NewLink("https://example.org/")
	vanity := normalized.New("example")
	if _, _, err := backend.SetRedirect(ctx, id, link); err != nil {
		t.Fatalf("SetRedirect: %v", err)
	}
	if _, _, err := backend.SetVanity(ctx, vanity, id); err != nil {
		t.Fatalf("SetVanity: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/example", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}

	vanityKey := vanity.String()
	idKey := id.String()

	reqType := statistic.Request

	for _, key := range []string{vanityKey, idKey} {
		key := key
		found := false
		for i := 0; i < 100; i++ {
			desc := statistic.Description{Link: &key, Type: &reqType}
			entries, err := backend.GetStatistics(ctx, desc)
			if err != nil {
				t.Fatalf("GetStatistics(%q): %v", key, err)
			}
			if len(entries) > 0 {
				found = true
				break
			}
			time.Sleep(10 * time.Millisecond)
		}
		if !found {
			t.Fatalf("no request statistic recorded under link key %q", key)
		}
	}
}

func TestHandlerNonGetUsesTemporaryRedirect(t *testing.T) {
	h, cur := newHandler(t)
	ctx := context.Background()
	backend := cur.Get()

	id := linkid.New()
	link, _ := normalized.NewLink("https://example.com/")
	backend.SetRedirect(ctx, id, link)

	req := httptest.NewRequest(http.MethodPost, "/"+id.String(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}
}

func TestHandlerUnknownPathIsNotFound(t *testing.T) {
	h, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandlerEmptyPathIsNotFound(t *testing.T) {
	h, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHTTPSUpgradeHandlerRequiresHost(t *testing.T) {
	h := &redirector.HTTPSUpgradeHandler{
		ConfigFunc: func() config.RedirectorConfig { return config.RedirectorConfig{SendServer: true, SendCSP: true} },
	}

	req := httptest.NewRequest(http.MethodGet, "/path?q=1", nil)
	req.Host = ""
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHTTPSUpgradeHandlerRedirects(t *testing.T) {
	h := &redirector.HTTPSUpgradeHandler{
		ConfigFunc: func() config.RedirectorConfig { return config.RedirectorConfig{SendServer: true, SendCSP: true} },
	}

	req := httptest.NewRequest(http.MethodGet, "/path?q=1", nil)
	req.Host = "example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if got := rec.Header().Get("Location"); got != "https://example.com/path?q=1" {
		t.Fatalf("Location = %q", got)
	}
}
