package api

import "time"

type Detection struct {
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"box"`
	Class      string     `json:"class,omitempty"`
}

type DetectionRequest struct {
	ID             string      `json:"id"`
	FileName       string      `json:"fileName"`
	PreviewURL     string      `json:"previewUrl"`
	DownloadURL    string      `json:"downloadURL"`
	CreatedAt      time.Time   `json:"createdAt"`
	Status         string      `json:"status"`
	SessionID      string      `json:"sessionId"`
	ProcessingTime string      `json:"processingTime"`
	Apples         int         `json:"apples"`
	Trees          int         `json:"trees"`
	Detections     []Detection `json:"detections"`
}

type RequestGroup struct {
	Key      string             `json:"key"`
	Requests []DetectionRequest `json:"requests"`
}

type HistoryView struct {
	State           string         `json:"state"`
	Error           string         `json:"error,omitempty"`
	TotalApples     int            `json:"totalApples"`
	TotalTrees      int            `json:"totalTrees"`
	Count           int            `json:"count"`
	SelectedSession string         `json:"selectedSession,omitempty"`
	Sessions        []string       `json:"sessions"`
	ByDate          []RequestGroup `json:"byDate"`
	BySession       []RequestGroup `json:"bySession"`
}

type DeleteAllRequest struct {
	Confirmation string `json:"confirmation"`
}

type DeleteAllResponse struct {
	Deleted int `json:"deleted"`
}

type Error struct {
	Error string `json:"error"`
}
