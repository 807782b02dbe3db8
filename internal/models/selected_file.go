// Package models contains domain types shared by the OCR scanner front end and gateway.
package models

// SelectedFile is the single file held by the scan controller.
type SelectedFile struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	Size      int64  `json:"size"`
	Content   []byte `json:"-"`
}

// IsPDF reports whether the declared media type is a PDF document.
func (f *SelectedFile) IsPDF() bool {
	return f != nil && f.MediaType == "application/pdf"
}
