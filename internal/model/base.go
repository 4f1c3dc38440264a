package model

import "time"

// Timestamps carries the audit columns GORM fills on create and save.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
