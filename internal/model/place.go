package model

import "time"

// Place is a named location in the school where items are found.
type Place struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
