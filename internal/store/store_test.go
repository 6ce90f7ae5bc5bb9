package store_test

import (
	"context"
	"testing"

	"github.com/janm-dev/links-go/internal/store"
	_ "github.com/janm-dev/links-go/internal/store/memstore"
)

func TestNewUnknownDriver(t *testing.T) {
	if _, err := store.New("no-such-driver", nil); err == nil {
		t.Fatal("expected an error for an unregistered driver")
	}
}

func TestNewDefaultsToMemory(t *testing.T) {
	b, err := store.New("", nil)
	if err != nil {
		t.Fatalf("store.New(\"\"): %v", err)
	}
	if b.Name() != "memory" {
		t.Fatalf("default driver = %q, want %q", b.Name(), "memory")
	}
}

func TestCurrentUpdateSwapsLiveBackend(t *testing.T) {
	ctx := context.Background()

	first, err := store.New("memory", nil)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	if err := first.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	cur := store.NewCurrent(first)
	if cur.Get() != first {
		t.Fatal("Get() should return the initial backend")
	}

	second, err := store.New("memory", nil)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	if err := second.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	old := cur.Update(second)
	if old != first {
		t.Fatal("Update() should return the previous backend")
	}
	if cur.Get() != second {
		t.Fatal("Get() should return the new backend after Update")
	}
}

func TestAvailableDriversIncludesMemory(t *testing.T) {
	found := false
	for _, name := range store.AvailableDrivers() {
		if name == "memory" {
			found = true
		}
	}
	if !found {
		t.Fatal("memory driver should be registered by its blank import")
	}
}
