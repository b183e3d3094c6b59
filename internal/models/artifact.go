package models

import "time"

// ReportArtifact is a generated report that has not been uploaded yet.
type ReportArtifact struct {
	Filename    string    `json:"filename"`
	Content     []byte    `json:"-"`
	GeneratedAt time.Time `json:"generated_at"`
}

// StoredArtifact is an uploaded report.
type StoredArtifact struct {
	URL        string    `json:"url"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}
