package runstore

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "gravsim.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLatest(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	first := []byte(`{"A":[{"start_time":0,"end_time":0.01,"state":{"x":0,"y":0,"vx":0,"vy":0,"time":0.01,"timeStep":0.01}}]}`)
	second := []byte(`{"B":[{"start_time":0,"end_time":0.02,"state":{"x":1,"y":0,"vx":0,"vy":0,"time":0.02,"timeStep":0.02}}]}`)

	if _, err := s.Save(ctx, "completed", 1, 1, first); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	id, err := s.Save(ctx, "completed", 1, 1, second)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	run, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if run.ID != id {
		t.Errorf("latest id = %d, want %d", run.ID, id)
	}
	if !bytes.Equal(run.Data, second) {
		t.Errorf("data not returned verbatim:\ngot  %s\nwant %s", run.Data, second)
	}
	if run.CreatedAt.IsZero() {
		t.Error("created_at not recorded")
	}

	doc, err := run.Document()
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if len(doc["B"]) != 1 || doc["B"][0].End != 0.02 {
		t.Errorf("decoded document = %+v", doc)
	}
}

func TestLatest_Empty(t *testing.T) {
	s := open(t)

	_, err := s.Latest(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGet(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	id, err := s.Save(ctx, "failed", 7, 2, []byte(`{}`))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	run, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if run.Status != "failed" || run.Iterations != 7 || run.Agents != 2 {
		t.Errorf("run = %+v", run)
	}

	if _, err := s.Get(ctx, id+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.Save(ctx, "completed", 100+i, 2, []byte(`{}`)); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
	}

	metas, err := s.List(ctx, 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 3 {
		t.Fatalf("got %d rows, want 3", len(metas))
	}
	// Newest first.
	if metas[0].Iterations != 104 || metas[2].Iterations != 102 {
		t.Errorf("unexpected order: %+v", metas)
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "gravsim.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	s.Close()
}
