package track

import (
	"context"
	"errors"

	"github.com/NikBulygin/Indrive-hackation-backend/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned for a lookup of an id that was never stored.
var ErrNotFound = errors.New("GeoTrack not found")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, input GeoTrack) (GeoTrack, error) {
	input.ID = uuid.NewString()

	row := s.db.QueryRow(ctx, `
		INSERT INTO geo_tracks (id, randomized_id, lat, lng, alt, spd, azm)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, input.ID, input.RandomizedID, input.Lat, input.Lng, input.Alt, input.Spd, input.Azm)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return GeoTrack{}, err
	}
	return input, nil
}

func (s *Service) List(ctx context.Context, randomizedID string, limit, offset int) ([]GeoTrack, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, randomized_id, lat, lng, alt, spd, azm, created_at
		FROM geo_tracks
		WHERE ($1 = '' OR randomized_id = $1)
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`, randomizedID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []GeoTrack
	for rows.Next() {
		var tr GeoTrack
		if err := rows.Scan(&tr.ID, &tr.RandomizedID, &tr.Lat, &tr.Lng, &tr.Alt, &tr.Spd, &tr.Azm, &tr.CreatedAt); err != nil {
			return nil, err
		}
		tracks = append(tracks, tr)
	}
	return tracks, nil
}

func (s *Service) Count(ctx context.Context, randomizedID string) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM geo_tracks
		WHERE ($1 = '' OR randomized_id = $1)
	`, randomizedID).Scan(&count)
	return count, err
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT randomized_id), COALESCE(AVG(spd),0), COALESCE(MAX(spd),0)
		FROM geo_tracks
	`).Scan(&stats.TotalPoints, &stats.Devices, &stats.AvgSpeed, &stats.MaxSpeed)
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s *Service) ByID(ctx context.Context, id string) (GeoTrack, error) {
	var tr GeoTrack
	err := s.db.QueryRow(ctx, `
		SELECT id, randomized_id, lat, lng, alt, spd, azm, created_at
		FROM geo_tracks WHERE id=$1
	`, id).Scan(&tr.ID, &tr.RandomizedID, &tr.Lat, &tr.Lng, &tr.Alt, &tr.Spd, &tr.Azm, &tr.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return GeoTrack{}, ErrNotFound
	}
	if err != nil {
		return GeoTrack{}, err
	}
	return tr, nil
}
