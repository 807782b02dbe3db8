package models

import "time"

// FileInfo represents metadata about an upload staged on the gateway.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MediaType  string    `json:"mediaType,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
	Status     string    `json:"status"` // "staged", "relayed", "removed"
}
