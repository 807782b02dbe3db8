package models

// OCRResponse is the JSON body of POST /api/ocr.
type OCRResponse struct {
	Success  bool   `json:"success,omitempty"`
	Text     string `json:"text,omitempty"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HealthResponse is the JSON body of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Version string `json:"version,omitempty"`
}
