// Package model defines the REST / WebSocket request and response
// shapes of the grading server.
package model

import (
	"github.com/criyle/go-grader/runner"
	"github.com/criyle/go-grader/worker"
)

// GradeRequest asks the server for one grading run.
type GradeRequest struct {
	RequestID string `json:"requestId,omitempty"`
	// Slug is the repository slug the look-back period is derived
	// from.
	Slug string `json:"slug"`
	// Lookback overrides the slug derivation when positive.
	Lookback int `json:"lookback,omitempty"`
}

// GradeResponse returns one grading outcome.
type GradeResponse struct {
	RequestID string          `json:"requestId,omitempty"`
	Summary   *runner.Summary `json:"summary,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ProgressEvent streams one graded function over the WebSocket
// endpoint while a run is in flight.
type ProgressEvent struct {
	Type     string         `json:"type"`
	Progress *runner.Event  `json:"progress,omitempty"`
	Final    *GradeResponse `json:"final,omitempty"`
}

// ConvertRequest maps a REST / WS request to a worker request.
func ConvertRequest(req *GradeRequest) *worker.Request {
	return &worker.Request{
		RequestID: req.RequestID,
		Slug:      req.Slug,
		Lookback:  req.Lookback,
	}
}

// ConvertResponse maps a worker response to the wire shape.
func ConvertResponse(rt worker.Response) *GradeResponse {
	res := &GradeResponse{
		RequestID: rt.RequestID,
		Summary:   rt.Summary,
	}
	if rt.Error != nil {
		res.Error = rt.Error.Error()
	}
	return res
}
