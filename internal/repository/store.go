package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"mireval/internal/config"
	"mireval/internal/experiment"
)

var (
	// ErrNotFound indicates no dataset with the requested name exists.
	ErrNotFound = errors.New("dataset not found")
	// ErrLocked indicates another import holds the repository lock.
	ErrLocked = errors.New("repository locked by another import")
)

// Store manages dataset persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the repository database.
func Open(cfg *config.Config) (*Store, error) {
	return OpenPath(cfg.Paths.RepositoryDB)
}

// OpenPath opens the database at dbPath, creating it when absent.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create repository directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: flock.New(dbPath + ".lock")}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Dataset is everything needed to build an evaluation session.
type Dataset struct {
	Dataset      experiment.Dataset
	Family       experiment.Family
	SubjectField string
	Folds        []experiment.Fold
	GroundTruth  []experiment.GroundTruth
}

// Summary describes a stored dataset without loading its contents.
type Summary struct {
	ID           int64
	Name         string
	Description  string
	Family       experiment.Family
	SubjectField string
	Folds        int
	Tracks       int
	ImportedAt   time.Time
}

type storedValue struct {
	Labels    []string    `json:"labels,omitempty"`
	Sequences [][]float64 `json:"sequences,omitempty"`
}

// Import stores ds under its dataset name, replacing any earlier import.
func (s *Store) Import(ctx context.Context, ds Dataset) (int64, error) {
	name := strings.TrimSpace(ds.Dataset.Name)
	if name == "" {
		return 0, errors.New("import: dataset name is required")
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return 0, fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		return 0, ErrLocked
	}
	defer func() { _ = s.lock.Unlock() }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM datasets WHERE name = ?", name); err != nil {
		return 0, fmt.Errorf("replace dataset: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO datasets (name, external_id, description, family, subject_field, imported_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		name,
		ds.Dataset.ID,
		ds.Dataset.Description,
		string(ds.Family),
		ds.SubjectField,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert dataset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	for _, fold := range ds.Folds {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO folds (dataset_id, fold_id, number, kind) VALUES (?, ?, ?, ?)",
			id, fold.ID, fold.Number, string(fold.Kind),
		); err != nil {
			return 0, fmt.Errorf("insert fold %s: %w", fold.ID, err)
		}
		for pos, track := range fold.TrackIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO fold_tracks (dataset_id, fold_id, position, track_id) VALUES (?, ?, ?, ?)",
				id, fold.ID, pos, track,
			); err != nil {
				return 0, fmt.Errorf("insert fold %s track %s: %w", fold.ID, track, err)
			}
		}
	}

	for _, rec := range ds.GroundTruth {
		for _, field := range rec.Fields.Names() {
			v := rec.Fields[field]
			data, err := json.Marshal(storedValue{Labels: v.Labels, Sequences: v.Sequences})
			if err != nil {
				return 0, fmt.Errorf("encode %s/%s: %w", rec.TrackID, field, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO ground_truth (dataset_id, track_id, field, value_json) VALUES (?, ?, ?, ?)",
				id, rec.TrackID, field, string(data),
			); err != nil {
				return 0, fmt.Errorf("insert ground truth %s: %w", rec.TrackID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return id, nil
}

// List summarizes stored datasets ordered by name.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT d.id, d.name, d.description, d.family, d.subject_field, d.imported_at,
            (SELECT COUNT(1) FROM folds f WHERE f.dataset_id = d.id),
            (SELECT COUNT(DISTINCT g.track_id) FROM ground_truth g WHERE g.dataset_id = d.id)
        FROM datasets d
        ORDER BY d.name`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum      Summary
			family   string
			imported string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Description, &family, &sum.SubjectField, &imported, &sum.Folds, &sum.Tracks); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		sum.Family = experiment.Family(family)
		if ts, err := time.Parse(time.RFC3339Nano, imported); err == nil {
			sum.ImportedAt = ts
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Load reads the named dataset with its folds and ground truth.
func (s *Store) Load(ctx context.Context, name string) (*Dataset, error) {
	var (
		id     int64
		ds     Dataset
		family string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, external_id, name, description, family, subject_field FROM datasets WHERE name = ?",
		name,
	).Scan(&id, &ds.Dataset.ID, &ds.Dataset.Name, &ds.Dataset.Description, &family, &ds.SubjectField)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	ds.Family = experiment.Family(family)

	if ds.Folds, err = s.loadFolds(ctx, id); err != nil {
		return nil, err
	}
	if ds.GroundTruth, err = s.loadGroundTruth(ctx, id); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (s *Store) loadFolds(ctx context.Context, id int64) ([]experiment.Fold, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT fold_id, number, kind FROM folds WHERE dataset_id = ? ORDER BY number, fold_id", id)
	if err != nil {
		return nil, fmt.Errorf("load folds: %w", err)
	}
	var folds []experiment.Fold
	for rows.Next() {
		var (
			f    experiment.Fold
			kind string
		)
		if err := rows.Scan(&f.ID, &f.Number, &kind); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan fold: %w", err)
		}
		f.Kind = experiment.SetKind(kind)
		folds = append(folds, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load folds: %w", err)
	}

	for i := range folds {
		tracks, err := s.db.QueryContext(ctx,
			"SELECT track_id FROM fold_tracks WHERE dataset_id = ? AND fold_id = ? ORDER BY position",
			id, folds[i].ID)
		if err != nil {
			return nil, fmt.Errorf("load fold %s tracks: %w", folds[i].ID, err)
		}
		for tracks.Next() {
			var track string
			if err := tracks.Scan(&track); err != nil {
				tracks.Close()
				return nil, fmt.Errorf("scan fold track: %w", err)
			}
			folds[i].TrackIDs = append(folds[i].TrackIDs, track)
		}
		tracks.Close()
		if err := tracks.Err(); err != nil {
			return nil, fmt.Errorf("load fold %s tracks: %w", folds[i].ID, err)
		}
	}
	return folds, nil
}

func (s *Store) loadGroundTruth(ctx context.Context, id int64) ([]experiment.GroundTruth, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT track_id, field, value_json FROM ground_truth WHERE dataset_id = ? ORDER BY track_id, field", id)
	if err != nil {
		return nil, fmt.Errorf("load ground truth: %w", err)
	}
	defer rows.Close()

	var out []experiment.GroundTruth
	for rows.Next() {
		var track, field, raw string
		if err := rows.Scan(&track, &field, &raw); err != nil {
			return nil, fmt.Errorf("scan ground truth: %w", err)
		}
		var v storedValue
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", track, field, err)
		}
		if len(out) == 0 || out[len(out)-1].TrackID != track {
			out = append(out, experiment.GroundTruth{TrackID: track, Fields: experiment.Fields{}})
		}
		out[len(out)-1].Fields[field] = experiment.Value{Labels: v.Labels, Sequences: v.Sequences}
	}
	return out, rows.Err()
}

// Delete removes the named dataset.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM datasets WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
