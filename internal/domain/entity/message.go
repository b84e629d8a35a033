package entity

import "github.com/google/uuid"

// CutDetectionMessage is the inbound message from the video.cuts queue.
type CutDetectionMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	UserID    string    `json:"user_id"`
	VideoKey  string    `json:"video_key"`
	FileSize  int64     `json:"file_size"`
	UserEmail string    `json:"user_email"`
}

// CutStatusMessage is the outbound message published to the video.cuts.status queue.
type CutStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	Status       JobStatus `json:"status"`
	VideoKey     string    `json:"video_key"`
	ReportKey    string    `json:"report_key,omitempty"`
	KeyframesKey string    `json:"keyframes_key,omitempty"`
	FrameCount   int       `json:"frame_count,omitempty"`
	CutCount     int       `json:"cut_count"`
	Duration     float64   `json:"duration_seconds,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}
