package storage

import "time"

type Export struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PointCount int       `json:"point_count"`
	CreatedAt  time.Time `json:"created_at"`
}
