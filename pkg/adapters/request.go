package adapters

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/araddon/dateparse"
	"github.com/de-tools/orchard-atlas/pkg/models/api"
	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/de-tools/orchard-atlas/pkg/models/store"
)

// CreatedAtLayout is the fixed-width UTC form written to created_at, so lexical order is time order.
const CreatedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}

// ParseCreatedAt accepts any ISO-like timestamp the backend may have written.
func ParseCreatedAt(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty createdAt")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse createdAt %q: %w", value, err)
	}
	return t.UTC(), nil
}

func MapStoreRequestRecordToDomain(record store.RequestRecord) (domain.DetectionRequest, error) {
	createdAt, err := ParseCreatedAt(record.CreatedAt)
	if err != nil {
		return domain.DetectionRequest{}, err
	}

	apples, err := unmarshalDetections(record.AppleDetections)
	if err != nil {
		return domain.DetectionRequest{}, fmt.Errorf("apple detections of %s: %w", record.ID, err)
	}
	trees, err := unmarshalDetections(record.TreeDetections)
	if err != nil {
		return domain.DetectionRequest{}, fmt.Errorf("tree detections of %s: %w", record.ID, err)
	}

	visualizations := []string{}
	if len(record.Visualizations) > 0 {
		if err := json.Unmarshal(record.Visualizations, &visualizations); err != nil {
			return domain.DetectionRequest{}, fmt.Errorf("visualizations of %s: %w", record.ID, err)
		}
	}

	sessionID := domain.UnknownSession
	if record.SessionID.Valid && record.SessionID.String != "" {
		sessionID = record.SessionID.String
	}

	return domain.DetectionRequest{
		ID:                  record.ID,
		UserID:              record.UserID,
		FileName:            record.FileName,
		DownloadURL:         record.DownloadURL,
		CreatedAt:           createdAt,
		ProcessingStartTime: nullTimePtr(record.ProcessingStartTime),
		ProcessingEndTime:   nullTimePtr(record.ProcessingEndTime),
		Status:              domain.RequestStatus(record.Status),
		TokenID:             record.TokenID,
		AppleDetections:     apples,
		TreeDetections:      trees,
		Visualizations:      visualizations,
		SessionID:           sessionID,
	}, nil
}

func MapDomainRequestToStoreRecord(req domain.DetectionRequest) (store.RequestRecord, error) {
	apples, err := marshalDetections(req.AppleDetections)
	if err != nil {
		return store.RequestRecord{}, err
	}
	trees, err := marshalDetections(req.TreeDetections)
	if err != nil {
		return store.RequestRecord{}, err
	}
	visualizations := req.Visualizations
	if visualizations == nil {
		visualizations = []string{}
	}
	vis, err := json.Marshal(visualizations)
	if err != nil {
		return store.RequestRecord{}, fmt.Errorf("marshal visualizations: %w", err)
	}

	record := store.RequestRecord{
		ID:              req.ID,
		UserID:          req.UserID,
		FileName:        req.FileName,
		DownloadURL:     req.DownloadURL,
		CreatedAt:       FormatCreatedAt(req.CreatedAt),
		Status:          string(req.Status),
		TokenID:         req.TokenID,
		AppleDetections: apples,
		TreeDetections:  trees,
		Visualizations:  vis,
	}
	if req.ProcessingStartTime != nil {
		record.ProcessingStartTime = sql.NullTime{Time: *req.ProcessingStartTime, Valid: true}
	}
	if req.ProcessingEndTime != nil {
		record.ProcessingEndTime = sql.NullTime{Time: *req.ProcessingEndTime, Valid: true}
	}
	// the sentinel is a read-side default and is never persisted
	if req.SessionID != "" && req.SessionID != domain.UnknownSession {
		record.SessionID = sql.NullString{String: req.SessionID, Valid: true}
	}
	return record, nil
}

// MapRequestDocumentToDomain converts a backend-shaped JSON document (seed input).
func MapRequestDocumentToDomain(doc store.RequestDocument) (domain.DetectionRequest, error) {
	createdAt, err := ParseCreatedAt(doc.CreatedAt)
	if err != nil {
		return domain.DetectionRequest{}, err
	}
	sessionID := doc.SessionID
	if sessionID == "" {
		sessionID = domain.UnknownSession
	}
	status := doc.Status
	if status == "" {
		status = string(domain.RequestStatusComplete)
	}

	return domain.DetectionRequest{
		ID:                  doc.ID,
		UserID:              doc.UserID,
		FileName:            doc.FileName,
		DownloadURL:         doc.DownloadURL,
		CreatedAt:           createdAt,
		ProcessingStartTime: doc.ProcessingStartTime,
		ProcessingEndTime:   doc.ProcessingEndTime,
		Status:              domain.RequestStatus(status),
		TokenID:             doc.TokenID,
		AppleDetections:     mapDetectionRecords(doc.AppleDetections),
		TreeDetections:      mapDetectionRecords(doc.TreeDetections),
		Visualizations:      slices.Clone(doc.Visualizations),
		SessionID:           sessionID,
	}, nil
}

func MapDetectionRequestDomainToApi(req domain.DetectionRequest) api.DetectionRequest {
	detections := make([]api.Detection, 0, len(req.AppleDetections)+len(req.TreeDetections))
	for _, d := range req.AppleDetections {
		detections = append(detections, mapDetectionDomainToApi(d, "apple"))
	}
	for _, d := range req.TreeDetections {
		detections = append(detections, mapDetectionDomainToApi(d, "tree"))
	}

	return api.DetectionRequest{
		ID:             req.ID,
		FileName:       req.FileName,
		PreviewURL:     req.PreviewURL(),
		DownloadURL:    req.DownloadURL,
		CreatedAt:      req.CreatedAt,
		Status:         string(req.Status),
		SessionID:      req.SessionID,
		ProcessingTime: req.ProcessingTime(),
		Apples:         req.AppleCount(),
		Trees:          req.TreeCount(),
		Detections:     detections,
	}
}

func MapDetectionRequestsDomainToApi(requests []domain.DetectionRequest) []api.DetectionRequest {
	out := make([]api.DetectionRequest, 0, len(requests))
	for _, req := range requests {
		out = append(out, MapDetectionRequestDomainToApi(req))
	}
	return out
}

func mapDetectionDomainToApi(d domain.Detection, fallbackClass string) api.Detection {
	class := d.Class
	if class == "" {
		class = fallbackClass
	}
	return api.Detection{Confidence: d.Confidence, Box: d.Box, Class: class}
}

func mapDetectionRecords(records []store.DetectionRecord) []domain.Detection {
	out := make([]domain.Detection, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Detection{Confidence: r.Confidence, Box: r.Box, Class: r.Class})
	}
	return out
}

func unmarshalDetections(raw []byte) ([]domain.Detection, error) {
	if len(raw) == 0 {
		return []domain.Detection{}, nil
	}
	var records []store.DetectionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return mapDetectionRecords(records), nil
}

func marshalDetections(detections []domain.Detection) ([]byte, error) {
	records := make([]store.DetectionRecord, 0, len(detections))
	for _, d := range detections {
		records = append(records, store.DetectionRecord{Confidence: d.Confidence, Box: d.Box, Class: d.Class})
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal detections: %w", err)
	}
	return raw, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
