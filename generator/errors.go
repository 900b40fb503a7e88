package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigMissing means no API key was supplied; configure the endpoint first.
	ErrConfigMissing = errors.New("api key missing; configure the llm endpoint before generating")
	// ErrEmptyReply means the endpoint answered 2xx without message content.
	ErrEmptyReply = errors.New("llm returned empty content")
	// ErrEmptyProblem is returned when the problem text is blank.
	ErrEmptyProblem = errors.New("problem text is required")
)

// EndpointError 表示接口返回了非成功状态码。
type EndpointError struct {
	StatusCode int
	Message    string
}

func (e *EndpointError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("llm request failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("llm error (status %d): %s", e.StatusCode, e.Message)
}

// MalformedReportError carries both payloads so a bad generation can be
// debugged offline.
type MalformedReportError struct {
	Raw        string
	Normalized string
	Err        error
}

func (e *MalformedReportError) Error() string {
	return fmt.Sprintf("generated report is not valid json: %v", e.Err)
}

func (e *MalformedReportError) Unwrap() error { return e.Err }
