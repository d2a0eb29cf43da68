package storage

import (
	"context"
	"errors"
	"fmt"

	"backend-trailrecorder/internal/db"
	"backend-trailrecorder/internal/trackdoc"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("export not found")

// Service keeps exported track documents in Postgres.
type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// SaveTrack stores a serialized track. The document is parsed first so
// that only well-formed tracks are persisted.
func (s *Service) SaveTrack(ctx context.Context, name string, data []byte) (string, error) {
	points, err := trackdoc.Deserialize(data)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = s.db.Exec(ctx, `
		INSERT INTO track_exports (id, name, document, point_count)
		VALUES ($1,$2,$3,$4)
	`, id, name, string(data), len(points))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) List(ctx context.Context) ([]Export, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, point_count, created_at
		FROM track_exports
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exports := []Export{}
	for rows.Next() {
		var e Export
		if err := rows.Scan(&e.ID, &e.Name, &e.PointCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

// Document returns the stored export and its raw bytes.
func (s *Service) Document(ctx context.Context, id string) (Export, []byte, error) {
	var e Export
	var document string
	row := s.db.QueryRow(ctx, `
		SELECT id, name, point_count, created_at, document
		FROM track_exports WHERE id=$1
	`, id)
	if err := row.Scan(&e.ID, &e.Name, &e.PointCount, &e.CreatedAt, &document); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Export{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Export{}, nil, err
	}
	return e, []byte(document), nil
}
