package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cadenza/cadenza-engine/internal/timeline"
)

type Repository interface {
	SaveProject(ctx context.Context, p *Project, layers []timeline.Layer, clips []timeline.Clip) error
	GetProject(ctx context.Context, id string) (*Project, error)
	GetProjectByName(ctx context.Context, name string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	DeleteProject(ctx context.Context, id string) error
	LoadLayers(ctx context.Context, projectID string) ([]timeline.Layer, error)
	LoadClips(ctx context.Context, projectID string) ([]timeline.Clip, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveProject upserts the project row and replaces its layer and clip sets
// in one transaction.
func (r *SQLiteRepository) SaveProject(ctx context.Context, p *Project, layers []timeline.Layer, clips []timeline.Clip) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			duration = excluded.duration,
			updated_at = excluded.updated_at
	`, p.ID, p.Name, p.Duration, p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM project_layers WHERE project_id = ?", p.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM project_clips WHERE project_id = ?", p.ID); err != nil {
		return err
	}

	for _, l := range layers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO project_layers (project_id, layer_id, type, name, locked, visible, height, color)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, l.ID, l.Type, l.Name, boolToInt(l.Locked), boolToInt(l.Visible), l.Height, l.Color)
		if err != nil {
			return err
		}
	}

	for _, c := range clips {
		metadata, err := marshalMetadata(c.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode clip %d metadata: %w", c.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO project_clips (project_id, clip_id, layer_id, type, start, duration, title, url, locked, generated_image, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, c.ID, c.LayerID, c.Type, c.Start, c.Duration, c.Title,
			nullString(c.URL), boolToInt(c.Locked), boolToInt(c.GeneratedImage), metadata)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, duration, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)
	return scanProject(row)
}

func (r *SQLiteRepository) GetProjectByName(ctx context.Context, name string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, duration, created_at, updated_at
		FROM projects WHERE name = ?
	`, name)
	return scanProject(row)
}

func scanProject(row *sql.Row) (*Project, error) {
	var p Project
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &p.Duration, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, duration, created_at, updated_at
		FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Duration, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) LoadLayers(ctx context.Context, projectID string) ([]timeline.Layer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT layer_id, type, name, locked, visible, height, color
		FROM project_layers WHERE project_id = ? ORDER BY layer_id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var layers []timeline.Layer
	for rows.Next() {
		var l timeline.Layer
		var locked, visible int
		if err := rows.Scan(&l.ID, &l.Type, &l.Name, &locked, &visible, &l.Height, &l.Color); err != nil {
			return nil, err
		}
		l.Locked = locked == 1
		l.Visible = visible == 1
		layers = append(layers, l)
	}
	return layers, rows.Err()
}

func (r *SQLiteRepository) LoadClips(ctx context.Context, projectID string) ([]timeline.Clip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT clip_id, layer_id, type, start, duration, title, url, locked, generated_image, metadata
		FROM project_clips WHERE project_id = ? ORDER BY clip_id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clips []timeline.Clip
	for rows.Next() {
		var c timeline.Clip
		var url, metadata sql.NullString
		var locked, generated int
		if err := rows.Scan(&c.ID, &c.LayerID, &c.Type, &c.Start, &c.Duration, &c.Title, &url, &locked, &generated, &metadata); err != nil {
			return nil, err
		}
		c.URL = url.String
		c.Locked = locked == 1
		c.GeneratedImage = generated == 1
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &c.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode clip %d metadata: %w", c.ID, err)
			}
		}
		clips = append(clips, c)
	}
	return clips, rows.Err()
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func marshalMetadata(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
