package aggregate

import (
	"time"

	"github.com/de-tools/orchard-atlas/pkg/models/domain"
)

func detections(n int) []domain.Detection {
	out := make([]domain.Detection, n)
	for i := range out {
		out[i] = domain.Detection{Confidence: 0.9, Box: [4]float64{0, 0, 10, 10}}
	}
	return out
}

func request(id, fileName string, createdAt time.Time, apples, trees int) domain.DetectionRequest {
	return domain.DetectionRequest{
		ID:              id,
		UserID:          "user-1",
		FileName:        fileName,
		CreatedAt:       createdAt,
		AppleDetections: detections(apples),
		TreeDetections:  detections(trees),
	}
}

func at(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}
