package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hazyhaar/pagesnap/capture/internal/dbopen"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New(dbopen.OpenMemory(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func report(id, url string, at time.Time) *snapshot.CaptureReport {
	r := &snapshot.CaptureReport{ID: id, URL: url, FinalURL: url, ExtractedAt: at, Title: "t-" + id}
	r.Normalize()
	return r
}

func TestInsertGet(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)

	r := report("a", "https://x.test/", time.Now())
	r.NavigationIncomplete = true
	r.Network = []snapshot.NetworkEntry{{URL: "https://x.test/", Status: 200}}
	if err := c.Insert(ctx, r, time.Now()); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := c.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "t-a" || len(got.Network) != 1 || !got.NavigationIncomplete {
		t.Errorf("report: got %+v", got)
	}

	e, err := c.Lookup(ctx, "a")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e.Status != "partial" || e.EntryCount != 1 || !e.NavigationIncomplete {
		t.Errorf("entry: got %+v", e)
	}
}

func TestList_NewestFirstAndLimit(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := c.Insert(ctx, report(id, "https://x.test/"+id, base.Add(time.Duration(i)*time.Hour)), base); err != nil {
			t.Fatal(err)
		}
	}
	list, err := c.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "mid" {
		t.Errorf("list: got %+v", list)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	if err := c.Insert(ctx, report("a", "https://x.test/", time.Now()), time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: got %v", err)
	}
	if err := c.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: got %v", err)
	}
}

func TestList_Empty(t *testing.T) {
	list, err := newCatalog(t).List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("got %#v, want empty non-nil", list)
	}
}
