// Package repository provides data access layer for the media application.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mediacatalog/database"
	"mediacatalog/logging"
	"mediacatalog/metrics"
	"mediacatalog/models"
)

// ErrNotFound is returned when no row has the requested id.
var ErrNotFound = errors.New("not found")

const mediaTable = "media"

// MediaRepository handles database operations for media records. Every
// method issues exactly one parameterized statement.
type MediaRepository struct {
	db *database.DB
}

// NewMediaRepository creates a new media repository
func NewMediaRepository(db *database.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// GetAll retrieves all records ordered by id. An empty table yields an empty,
// non-nil slice.
func (r *MediaRepository) GetAll(ctx context.Context) (records []models.MediaRecord, err error) {
	defer r.observe("select_all", time.Now(), &err)

	query := `SELECT id, title, release_date, genre FROM media ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Failed to close rows")
		}
	}()

	records = []models.MediaRecord{}
	for rows.Next() {
		var rec models.MediaRecord
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.ReleaseDate, &rec.Genre); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return records, nil
}

// GetByID retrieves a record by its id
func (r *MediaRepository) GetByID(ctx context.Context, id int64) (rec *models.MediaRecord, err error) {
	defer r.observe("select_one", time.Now(), &err)

	query := r.db.Rebind(`SELECT id, title, release_date, genre FROM media WHERE id = ?`)

	var m models.MediaRecord
	err = r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Title, &m.ReleaseDate, &m.Genre)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("media with id %d %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get media: %w", err)
	}

	return &m, nil
}

// Create inserts rec and sets its id to the one assigned by the store.
func (r *MediaRepository) Create(ctx context.Context, rec *models.MediaRecord) (err error) {
	defer r.observe("insert", time.Now(), &err)

	query := r.db.Rebind(`INSERT INTO media (title, release_date, genre) VALUES (?, ?, ?) RETURNING id`)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, rec.Title, rec.ReleaseDate, rec.Genre).Scan(&id); err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}

	rec.ID = id
	return nil
}

// Update replaces title, release date and genre of the record with rec.ID.
// It never inserts: a missing id yields ErrNotFound.
func (r *MediaRepository) Update(ctx context.Context, rec *models.MediaRecord) (err error) {
	defer r.observe("update", time.Now(), &err)

	query := r.db.Rebind(`UPDATE media SET title = ?, release_date = ?, genre = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, rec.Title, rec.ReleaseDate, rec.Genre, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update media: %w", err)
	}

	return checkAffected(result, rec.ID)
}

// Delete removes the record with the given id.
func (r *MediaRepository) Delete(ctx context.Context, id int64) (err error) {
	defer r.observe("delete", time.Now(), &err)

	query := r.db.Rebind(`DELETE FROM media WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}

	return checkAffected(result, id)
}

func checkAffected(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("media with id %d %w", id, ErrNotFound)
	}
	return nil
}

func (r *MediaRepository) observe(operation string, start time.Time, err *error) {
	metrics.RecordDBQuery(operation, mediaTable, time.Since(start), *err, ErrNotFound)
}
