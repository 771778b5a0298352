package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// newTestStore creates a new Store in a temporary directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestSnapshotRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Snapshots()

	snap := &Snapshot{
		ID:        "snap-1",
		Path:      "/tmp/drawing-1.png",
		Image:     "flowers.jpg",
		Grip:      true,
		Particles: 1200,
		Width:     800,
		Height:    600,
	}

	if err := repo.Create(snap); err != nil {
		t.Fatalf("failed to create snapshot: %v", err)
	}
	if snap.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set after create")
	}

	got, err := repo.GetByID("snap-1")
	if err != nil {
		t.Fatalf("failed to get snapshot: %v", err)
	}

	if got.Path != snap.Path {
		t.Errorf("Path mismatch: got %q, want %q", got.Path, snap.Path)
	}
	if got.Image != snap.Image {
		t.Errorf("Image mismatch: got %q, want %q", got.Image, snap.Image)
	}
	if !got.Grip {
		t.Error("Grip should round-trip as true")
	}
	if got.Particles != 1200 || got.Width != 800 || got.Height != 600 {
		t.Errorf("counts mismatch: got %d particles %dx%d", got.Particles, got.Width, got.Height)
	}
}

func TestSnapshotRepository_DuplicatePath(t *testing.T) {
	s := newTestStore(t)
	repo := s.Snapshots()

	if err := repo.Create(&Snapshot{ID: "a", Path: "/tmp/same.png"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := repo.Create(&Snapshot{ID: "b", Path: "/tmp/same.png"}); err == nil {
		t.Error("creating a second snapshot with the same path should fail")
	}
}

func TestSnapshotRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Snapshots().GetByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Snapshots()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		err := repo.Create(&Snapshot{
			ID:        id,
			Path:      "/tmp/" + id + ".png",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list snapshots: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(list))
	}
	if list[0].ID != "new" || list[2].ID != "old" {
		t.Errorf("expected newest first, got %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}

	n, err := repo.Count()
	if err != nil || n != 3 {
		t.Errorf("Count() = %d, %v; want 3", n, err)
	}
}

func TestSnapshotRepository_ListEmpty(t *testing.T) {
	s := newTestStore(t)

	list, err := s.Snapshots().List()
	if err != nil {
		t.Fatalf("failed to list snapshots: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}
}

func TestSnapshotRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Snapshots()

	if err := repo.Create(&Snapshot{ID: "gone", Path: "/tmp/gone.png"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Delete("gone"); err != nil {
		t.Fatalf("failed to delete snapshot: %v", err)
	}
	if _, err := repo.GetByID("gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if err := repo.Delete("gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleting twice should return ErrNotFound, got %v", err)
	}
}
