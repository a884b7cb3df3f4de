package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when no video row exists for the given id.
var ErrNotFound = errors.New("video not found")

const videoColumns = `video_id, title, description, content_type, file_path, status, duration, thumbnail_path, created_at`

// InsertVideo persists a new video record. The caller owns id generation.
func (d *Database) InsertVideo(ctx context.Context, v *Video) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("insert_video", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO videos (video_id, title, description, content_type, file_path, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.VideoID, v.Title, v.Description, v.ContentType, v.FilePath, v.Status,
	)
	return err
}

// GetVideo returns the record for id, or ErrNotFound.
func (d *Database) GetVideo(ctx context.Context, id string) (*Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_video", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE video_id = ?`, id)

	v, scanErr := scanVideo(row)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		err = scanErr
		return nil, scanErr
	}
	return v, nil
}

// ListVideos returns all records, newest first.
func (d *Database) ListVideos(ctx context.Context) ([]*Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_videos", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY created_at DESC, video_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := make([]*Video, 0)
	for rows.Next() {
		v, scanErr := scanVideo(rows)
		if scanErr != nil {
			err = scanErr
			return nil, scanErr
		}
		videos = append(videos, v)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// ListVideosByStatus returns all records in the given processing state,
// oldest first so recovery work preserves upload order.
func (d *Database) ListVideosByStatus(ctx context.Context, status Status) ([]*Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_videos_by_status", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE status = ? ORDER BY created_at, video_id`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := make([]*Video, 0)
	for rows.Next() {
		v, scanErr := scanVideo(rows)
		if scanErr != nil {
			err = scanErr
			return nil, scanErr
		}
		videos = append(videos, v)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// UpdateStatus moves a video through its processing state machine.
func (d *Database) UpdateStatus(ctx context.Context, id string, status Status) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_status", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.execOnVideo(ctx, `UPDATE videos SET status = ? WHERE video_id = ?`, status, id)
	return err
}

// UpdateDuration caches a computed duration. Once set it is authoritative;
// callers must not recompute.
func (d *Database) UpdateDuration(ctx context.Context, id string, seconds float64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_duration", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.execOnVideo(ctx, `UPDATE videos SET duration = ? WHERE video_id = ?`, seconds, id)
	return err
}

// UpdateThumbnailPath records a confirmed thumbnail location.
func (d *Database) UpdateThumbnailPath(ctx context.Context, id, path string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_thumbnail", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.execOnVideo(ctx, `UPDATE videos SET thumbnail_path = ? WHERE video_id = ?`, path, id)
	return err
}

// DeleteVideo removes the metadata row. Returns ErrNotFound when no row
// existed, so a second delete of the same id is distinguishable but not
// destructive.
func (d *Database) DeleteVideo(ctx context.Context, id string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_video", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.execOnVideo(ctx, `DELETE FROM videos WHERE video_id = ?`, id)
	return err
}

// execOnVideo runs a statement expected to affect exactly one video row.
func (d *Database) execOnVideo(ctx context.Context, query string, args ...interface{}) error {
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(s scanner) (*Video, error) {
	var (
		v           Video
		contentType sql.NullString
		duration    sql.NullFloat64
		thumbnail   sql.NullString
		createdAt   int64
	)

	err := s.Scan(&v.VideoID, &v.Title, &v.Description, &contentType,
		&v.FilePath, &v.Status, &duration, &thumbnail, &createdAt)
	if err != nil {
		return nil, err
	}

	if contentType.Valid {
		v.ContentType = contentType.String
	}
	if duration.Valid {
		v.Duration = &duration.Float64
	}
	if thumbnail.Valid {
		v.ThumbnailPath = &thumbnail.String
	}
	v.CreatedAt = time.Unix(createdAt, 0)

	return &v, nil
}
