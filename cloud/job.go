// Package cloud is the boundary to the cloud job service. It carries the
// REST document types, the converters between cloud jobs and core.JobData
// and a hand-written client for the provider API.
package cloud

import (
	"bytes"
	"encoding/json"

	"github.com/go-faster/jx"
	"github.com/go-openapi/strfmt"
)

type JobStatus string

const (
	JobStatusSubmitted JobStatus = "submitted"
	JobStatusReady     JobStatus = "ready"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

type JobType string

const (
	JobTypeSampling   JobType = "sampling"
	JobTypeConversion JobType = "conversion"
)

// JobDef is the cloud job document. TranspilerInfo stays raw JSON so that
// the distinction between an absent key, an explicit null and a configured
// object survives the round trip.
type JobDef struct {
	JobID          string           `json:"job_id"`
	JobType        JobType          `json:"job_type"`
	Status         JobStatus        `json:"status"`
	Shots          int              `json:"shots"`
	TranspilerInfo json.RawMessage  `json:"transpiler_info,omitempty"`
	JobInfo        JobInfo          `json:"job_info"`
	SubmittedAt    *strfmt.DateTime `json:"submitted_at,omitempty"`
	ExecutionTime  *float64         `json:"execution_time"`
}

type JobInfo struct {
	Program         []string         `json:"program"`
	ProgramPackage  string           `json:"program_package,omitempty"`
	Targets         []string         `json:"targets,omitempty"`
	TranspileResult *TranspileResult `json:"transpile_result,omitempty"`
	Result          *JobResult       `json:"result,omitempty"`
	Message         *string          `json:"message,omitempty"`
}

type JobResult struct {
	Sampling   *SamplingResult   `json:"sampling,omitempty"`
	Conversion *ConversionResult `json:"conversion,omitempty"`
}

// SamplingResult carries counts with stringified values. The cloud API
// stores counts as arbitrary-precision strings.
type SamplingResult struct {
	Counts map[string]string `json:"counts"`
}

type ConversionResult struct {
	ConvertedPrograms map[string]string `json:"converted_programs"`
}

type TranspileResult struct {
	TranspiledProgram *string `json:"transpiled_program"`
	Stats             *string `json:"stats"`
	QubitMapping      *string `json:"qubit_mapping"`
}

// TranspilerInfoMap decodes the raw transpiler_info into a per-key raw map.
// An absent or null transpiler_info yields a nil map.
func (j *JobDef) TranspilerInfoMap() (map[string]jx.Raw, error) {
	if len(j.TranspilerInfo) == 0 || bytes.Equal(j.TranspilerInfo, []byte("null")) {
		return nil, nil
	}
	tmp := make(map[string]json.RawMessage)
	if err := json.Unmarshal(j.TranspilerInfo, &tmp); err != nil {
		return nil, err
	}
	m := make(map[string]jx.Raw, len(tmp))
	for k, v := range tmp {
		m[k] = jx.Raw(v)
	}
	return m, nil
}
