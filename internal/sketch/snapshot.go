package sketch

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/gentle/internal/store"
)

// SnapshotName returns the file name a drawing saved at t is written to.
func SnapshotName(t time.Time) string {
	return "drawing-" + t.Format("20060102-150405.000") + ".png"
}

// saveSnapshot writes the canvas to the snapshot directory and records it.
// Only the frame loop may call it.
func (s *Sketch) saveSnapshot() (*store.Snapshot, error) {
	dir := s.config.SnapshotDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	now := time.Now()
	path := filepath.Join(dir, SnapshotName(now))
	if err := s.renderer.Save(path); err != nil {
		return nil, err
	}

	size := s.Size()
	snap := &store.Snapshot{
		ID:        uuid.NewString(),
		Path:      path,
		Image:     s.image,
		Grip:      s.classifier.Grip(),
		Particles: s.field.Len(),
		Width:     size.X,
		Height:    size.Y,
		CreatedAt: now,
	}

	if s.store != nil {
		if err := s.store.Snapshots().Create(snap); err != nil {
			return nil, fmt.Errorf("record snapshot: %w", err)
		}
	}

	log.Printf("Saved snapshot %s", path)
	return snap, nil
}
