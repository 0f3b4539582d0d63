package domain

import (
	"encoding/json"
	"time"
)

type JobKind string

const (
	JobKindAnalysis JobKind = "analysis"
	JobKindClassify JobKind = "classify"
	JobKindFilter   JobKind = "filter"
)

type JobStatus string

const (
	JobStatusWaiting   JobStatus = "waiting"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is the canonical async unit processed by the comment worker.
// A job is immutable after enqueue except for status transitions.
type Job struct {
	ID           string
	Kind         JobKind
	VideoID      string
	Payload      json.RawMessage
	Status       JobStatus
	ErrorMessage string
	Attempts     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// QueueMessage is the transport format sent to queue backends.
type QueueMessage struct {
	JobID       string          `json:"job_id"`
	Kind        JobKind         `json:"kind"`
	VideoID     string          `json:"video_id"`
	Payload     json.RawMessage `json:"payload"`
	Attempt     int             `json:"attempt"`
	RequestedAt time.Time       `json:"requested_at"`
}

// FilterPayload is the type-specific payload carried by filter jobs.
type FilterPayload struct {
	FilteringKeyword string `json:"filtering_keyword"`
}
