package auditstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/janm-dev/links-go/internal/store/auditstore"
)

func TestRecordAndForKey(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := auditstore.Open(ctx, dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Record(ctx, auditstore.Entry{
		Caller:    "admin",
		Operation: "set_redirect",
		Key:       "abcdefgh",
		Detail:    "https://example.com/",
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := s.ForKey(ctx, "abcdefgh")
	if err != nil {
		t.Fatalf("ForKey: %v", err)
	}
	if len(entries) != 1 || entries[0].Operation != "set_redirect" {
		t.Fatalf("ForKey returned %+v", entries)
	}
}

func TestSince(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := auditstore.Open(ctx, dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Record(ctx, auditstore.Entry{Caller: "admin", Operation: "rem_vanity", Key: "example"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := s.Since(ctx, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Since returned %d entries, want 1", len(entries))
	}
}
