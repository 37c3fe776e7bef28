package model

import (
	"time"
)

// Work is an uploaded PDF document belonging to a single tier. The blob
// itself lives in object storage under StorageKey; this record is metadata.
type Work struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Filename       string    `json:"filename"`
	StorageKey     string    `json:"-"`
	Tier           Tier      `json:"level"`
	UploadedBy     string    `json:"uploaded_by"`
	UploadedByName string    `json:"uploaded_by_name"`
	UploadedAt     time.Time `json:"uploaded_at"`
}
