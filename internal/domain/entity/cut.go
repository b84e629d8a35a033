package entity

// Cut is a detected discontinuity between Frame and its predecessor.
type Cut struct {
	FrameIndex int
	Timestamp  float64
	Similarity float64
	Frame      *Frame
}

// CutReport is the artifact uploaded for a finished job.
type CutReport struct {
	JobID         string         `json:"job_id" cbor:"job_id"`
	VideoKey      string         `json:"video_key" cbor:"video_key"`
	Color         string         `json:"color" cbor:"color"`
	Width         int            `json:"width" cbor:"width"`
	Height        int            `json:"height" cbor:"height"`
	FrameRate     float64        `json:"frame_rate" cbor:"frame_rate"`
	Confidence    float64        `json:"confidence" cbor:"confidence"`
	Metric        string         `json:"metric" cbor:"metric"`
	FrameCount    int            `json:"frame_count" cbor:"frame_count"`
	VideoDuration float64        `json:"duration_seconds" cbor:"duration_seconds"`
	Cuts          []CutReportRow `json:"cuts" cbor:"cuts"`
}

type CutReportRow struct {
	FrameIndex int     `json:"frame_index" cbor:"frame_index"`
	Timestamp  float64 `json:"timestamp" cbor:"timestamp"`
	Similarity float64 `json:"similarity" cbor:"similarity"`
}

// CutEvent is pushed to live subscribers as soon as a cut is found.
type CutEvent struct {
	JobID      string  `json:"job_id"`
	FrameIndex int     `json:"frame_index"`
	Timestamp  float64 `json:"timestamp"`
	Similarity float64 `json:"similarity"`
}
