package store

import (
	"database/sql"
	"time"
)

// RequestRecord is the row form of a detection request. Detection and visualization
// arrays are stored as JSON; CreatedAt keeps the ISO string written by the backend.
type RequestRecord struct {
	ID                  string
	UserID              string
	FileName            string
	DownloadURL         string
	CreatedAt           string
	ProcessingStartTime sql.NullTime
	ProcessingEndTime   sql.NullTime
	Status              string
	TokenID             string
	AppleDetections     []byte
	TreeDetections      []byte
	Visualizations      []byte
	SessionID           sql.NullString
}

// DetectionRecord is the JSON element stored in the detection columns.
type DetectionRecord struct {
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"box"`
	Class      string     `json:"class,omitempty"`
}

// RequestDocument is the backend's document shape, used by the seed command.
type RequestDocument struct {
	ID                  string            `json:"id"`
	UserID              string            `json:"userId"`
	FileName            string            `json:"fileName"`
	DownloadURL         string            `json:"downloadURL"`
	CreatedAt           string            `json:"createdAt"`
	ProcessingStartTime *time.Time        `json:"processingStartTime,omitempty"`
	ProcessingEndTime   *time.Time        `json:"processingEndTime,omitempty"`
	Status              string            `json:"status"`
	TokenID             string            `json:"tokenId"`
	AppleDetections     []DetectionRecord `json:"appleDetections"`
	TreeDetections      []DetectionRecord `json:"treeDetections"`
	Visualizations      []string          `json:"visualizations"`
	SessionID           string            `json:"sessionId,omitempty"`
}
