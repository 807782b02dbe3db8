package models

import "time"

// ScanStatus represents the outcome of a gateway OCR request.
type ScanStatus string

const (
	ScanStatusSuccess  ScanStatus = "success"
	ScanStatusFailed   ScanStatus = "failed"
	ScanStatusRejected ScanStatus = "rejected"
)

// ScanRecord is one row of the gateway scan history.
type ScanRecord struct {
	ID         string     `json:"id" msgpack:"id"`
	FileName   string     `json:"fileName" msgpack:"fileName"`
	MediaType  string     `json:"mediaType,omitempty" msgpack:"mediaType,omitempty"`
	Size       int64      `json:"size" msgpack:"size"`
	Status     ScanStatus `json:"status" msgpack:"status"`
	Error      string     `json:"error,omitempty" msgpack:"error,omitempty"`
	TextLength int        `json:"textLength" msgpack:"textLength"`
	DurationMs int64      `json:"durationMs" msgpack:"durationMs"`
	CreatedAt  time.Time  `json:"createdAt" msgpack:"createdAt"`
}
