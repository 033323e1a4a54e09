package model

import "time"

type Moment struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	Description string    `json:"description"`
	VideoKey    string    `json:"video_key"`
	Visible     bool      `json:"visible"`
	CreatedAt   time.Time `json:"created_at"`
}
