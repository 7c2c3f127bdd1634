package domain

import (
	"fmt"
	"time"
)

// UnknownSession is the bucket used for requests stored without a session id.
const UnknownSession = "Unknown Session"

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusComplete   RequestStatus = "complete"
	RequestStatusFailed     RequestStatus = "failed"
)

type Detection struct {
	Confidence float64
	Box        [4]float64 // x1, y1, x2, y2
	Class      string
}

// DetectionRequest is one submitted image-analysis job and its results.
// Records are written by the processing backend; this service only reads and deletes them.
type DetectionRequest struct {
	ID                  string
	UserID              string
	FileName            string
	DownloadURL         string
	CreatedAt           time.Time
	ProcessingStartTime *time.Time
	ProcessingEndTime   *time.Time
	Status              RequestStatus
	TokenID             string
	AppleDetections     []Detection
	TreeDetections      []Detection
	Visualizations      []string
	SessionID           string
}

func (r DetectionRequest) AppleCount() int {
	return len(r.AppleDetections)
}

func (r DetectionRequest) TreeCount() int {
	return len(r.TreeDetections)
}

// PreviewURL returns the first rendered visualization, falling back to the source image.
func (r DetectionRequest) PreviewURL() string {
	if len(r.Visualizations) > 0 && r.Visualizations[0] != "" {
		return r.Visualizations[0]
	}
	return r.DownloadURL
}

// ProcessingTime formats the backend processing duration as mm:ss, or N/A while in flight.
func (r DetectionRequest) ProcessingTime() string {
	if r.ProcessingStartTime == nil || r.ProcessingEndTime == nil {
		return "N/A"
	}
	diff := r.ProcessingEndTime.Sub(*r.ProcessingStartTime)
	if diff < 0 {
		diff = 0
	}
	secs := int(diff / time.Second)
	return fmt.Sprintf("%02d:%02d", (secs/60)%60, secs%60)
}
