package models

// SubmissionJob represents a validated submission (sent to the Redis work queue)
type SubmissionJob struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	RoomID   string `json:"roomID"`
}

// ResultEnvelope represents an execution outcome published by a worker.
// Output carries either stdout or an error message; the relay forwards it
// unchanged to the submitting room.
type ResultEnvelope struct {
	RoomID string `json:"roomID"`
	Output string `json:"output"`
}

// RunRequest is the body of POST /api/v1/run
type RunRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	RoomID   string `json:"roomID"`
}

// RunResponse is the acceptance response for a queued submission
type RunResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SocketEvent is a single JSON frame on the realtime channel.
// Inbound: {"event":"joinRoom","data":"<roomID>"}
// Outbound: {"event":"codeOutput","data":"<output>"}
type SocketEvent struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// Realtime event names (kept compatible with the web client)
const (
	EventJoinRoom   = "joinRoom"
	EventCodeOutput = "codeOutput"
)

// SupportedLanguages is the fixed set of runtimes the worker tier accepts.
var SupportedLanguages = []string{"c", "cpp", "java", "python", "javascript", "typescript", "go", "rust"}

// IsSupportedLanguage reports whether lang is in the supported set.
func IsSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
