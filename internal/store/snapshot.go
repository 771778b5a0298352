package store

import (
	"database/sql"
	"errors"
	"time"
)

// Snapshot is a saved drawing together with the sketch state it was taken in.
type Snapshot struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Image     string    `json:"image"`
	Grip      bool      `json:"grip"`
	Particles int       `json:"particles"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotRepository provides CRUD operations for snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Create inserts a snapshot. CreatedAt is set when zero.
func (r *SnapshotRepository) Create(snap *Snapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO snapshots (id, path, image, grip, particles, width, height, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Path, snap.Image, snap.Grip, snap.Particles, snap.Width, snap.Height, snap.CreatedAt,
	)
	return err
}

// GetByID retrieves a snapshot by its ID.
func (r *SnapshotRepository) GetByID(id string) (*Snapshot, error) {
	row := r.db.QueryRow(
		`SELECT id, path, image, grip, particles, width, height, created_at
		 FROM snapshots WHERE id = ?`,
		id,
	)

	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return snap, nil
}

// List retrieves all snapshots, newest first.
func (r *SnapshotRepository) List() ([]*Snapshot, error) {
	rows, err := r.db.Query(
		`SELECT id, path, image, grip, particles, width, height, created_at
		 FROM snapshots ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

// Count returns the number of stored snapshots.
func (r *SnapshotRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

// Delete removes a snapshot row. The image file is left to the caller.
func (r *SnapshotRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	snap := &Snapshot{}
	var grip int

	err := row.Scan(&snap.ID, &snap.Path, &snap.Image, &grip, &snap.Particles,
		&snap.Width, &snap.Height, &snap.CreatedAt)
	if err != nil {
		return nil, err
	}

	snap.Grip = grip != 0
	return snap, nil
}
