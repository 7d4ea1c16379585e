package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-openapi/strfmt"
	jsoniter "github.com/json-iterator/go"
	"github.com/mohae/deepcopy"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

type Status int // Status of the job known to the cloud, which is wider than the engine's view.
type StatsRaw json.RawMessage
type QubitMappingRaw json.RawMessage
type QubitMappingMap map[uint32]uint32
type Counts map[string]uint32
type ConvertedPrograms map[string]string // key: target package tag, value: program text

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

func (s StatsRaw) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return s, nil
}

func (s *StatsRaw) UnmarshalJSON(data []byte) error {
	*s = append((*s)[0:0], data...)
	return nil
}

func (c Counts) String() string {
	st, err := jsonIter.Marshal(c)
	if err != nil {
		zap.L().Error("Failed to marshal core.Counts")
		return ""
	}
	return string(st)
}

func (p ConvertedPrograms) String() string {
	st, err := jsonIter.Marshal(p)
	if err != nil {
		zap.L().Error("Failed to marshal core.ConvertedPrograms")
		return ""
	}
	return string(st)
}

func ToStatus(s string) (Status, error) {
	switch s {
	case "submitted":
		return SUBMITTED, nil
	case "ready":
		return READY, nil
	case "running":
		return RUNNING, nil
	case "succeeded":
		return SUCCEEDED, nil
	case "failed":
		return FAILED, nil
	case "cancelled":
		return CANCELLED, nil
	default:
		return 0, fmt.Errorf("unknown status: %s", s)
	}
}

func (q QubitMappingRaw) MarshalJSON() ([]byte, error) {
	if len(q) == 0 {
		return []byte("null"), nil
	}
	return q, nil
}

func (q *QubitMappingRaw) UnmarshalJSON(data []byte) error {
	*q = append((*q)[0:0], data...)
	return nil
}

func (q QubitMappingRaw) String() string {
	st, err := jsonIter.Marshal(q)
	if err != nil {
		zap.L().Error("Failed to marshal core.QubitMappingRaw")
		return ""
	}
	return string(st)
}

func (q QubitMappingRaw) ToMap() (QubitMappingMap, error) {
	// JSON object keys are always strings, so the mapping is decoded
	// into a map[string]uint32 first and converted key by key.
	var temp map[string]uint32
	if err := json.Unmarshal(q, &temp); err != nil {
		zap.L().Error(fmt.Sprintf("failed to unmarshal QubitMappingRaw:%v/reason:%s",
			q, err))
		return nil, err
	}

	result := make(QubitMappingMap)
	for k, v := range temp {
		key, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			zap.L().Error(fmt.Sprintf("failed to convert key:%s/reason:%s", k, err))
			return nil, err
		}
		result[uint32(key)] = v
	}
	return result, nil
}

func (q QubitMappingMap) ToRaw() (QubitMappingRaw, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return b, nil
}

const (
	SUBMITTED Status = iota // In the queue in the cloud server.
	READY                   // Fetched but not yet processed. All the jobs in the engine start here.
	RUNNING                 // Picked up by the scheduler and being processed.
	SUCCEEDED               // Finished successfully.
	FAILED                  // Finished with failure.
	CANCELLED               // Finished with cancellation.
)

func (s Status) String() string {
	switch s {
	case SUBMITTED:
		return "submitted"
	case READY:
		return "ready"
	case RUNNING:
		return "running"
	case SUCCEEDED:
		return "succeeded"
	case FAILED:
		return "failed"
	case CANCELLED:
		return "cancelled"
	default:
		return "unknown"
	}
}

type Result struct {
	Counts            Counts            `json:"counts"`
	ConvertedPrograms ConvertedPrograms `json:"converted_programs"`
	TranspilerInfo    *TranspilerInfo   `json:"transpiler_info"`
	Message           string            `json:"message"`
	ExecutionTime     time.Duration     `json:"execution_time"`
}

type TranspilerInfo struct {
	StatsRaw        StatsRaw        `json:"stats"`
	QubitMappingRaw QubitMappingRaw `json:"qubit_mapping"`
	QubitMappingMap QubitMappingMap `json:"-"`
}

func cloneCounts(counts Counts) Counts {
	clone := make(Counts)
	for k, v := range counts {
		clone[k] = v
	}
	return clone
}

func cloneConvertedPrograms(programs ConvertedPrograms) ConvertedPrograms {
	clone := make(ConvertedPrograms)
	for k, v := range programs {
		clone[k] = v
	}
	return clone
}

func cloneTranspilerInfo(info *TranspilerInfo) *TranspilerInfo {
	clone := &TranspilerInfo{}
	clone.StatsRaw = StatsRaw(append(json.RawMessage(nil), info.StatsRaw...))
	clone.QubitMappingRaw = QubitMappingRaw(append(json.RawMessage(nil), info.QubitMappingRaw...))
	if info.QubitMappingMap != nil {
		clone.QubitMappingMap = make(QubitMappingMap)
		for k, v := range info.QubitMappingMap {
			clone.QubitMappingMap[k] = v
		}
	}
	return clone
}

type JobData struct {
	ID                string
	Status            Status
	Shots             int
	Transpiler        *TranspilerConfig
	Program           string
	ProgramPackage    string
	TranspiledProgram string
	Result            *Result
	JobType           string
	Created           strfmt.DateTime
	Ended             strfmt.DateTime
	Info              string

	UseJobInfoUpdate          bool
	NeedsUpdateTranspilerInfo bool
}

func (jd *JobData) Clone() *JobData {
	c := deepcopy.Copy(jd).(*JobData)
	c.Created = *jd.Created.DeepCopy()
	c.Ended = *jd.Ended.DeepCopy()
	return c
}

func (jd *JobData) NeedTranspiling() bool {
	return jd.Transpiler.NeedTranspiling()
}

func NewResult() *Result {
	return &Result{
		Counts:            make(Counts),
		ConvertedPrograms: make(ConvertedPrograms),
		TranspilerInfo:    &TranspilerInfo{},
	}
}

func NewJobData() *JobData {
	return &JobData{
		Result:  NewResult(),
		Created: strfmt.DateTime(time.Now()),
	}
}

func CloneJobData(i *JobData) *JobData {
	o := NewJobData()
	o.ID = i.ID
	o.Status = i.Status
	o.Shots = i.Shots
	o.Transpiler = i.Transpiler
	o.Program = i.Program
	o.ProgramPackage = i.ProgramPackage
	o.TranspiledProgram = i.TranspiledProgram
	o.Result.Counts = cloneCounts(i.Result.Counts)
	o.Result.ConvertedPrograms = cloneConvertedPrograms(i.Result.ConvertedPrograms)
	o.Result.TranspilerInfo = cloneTranspilerInfo(i.Result.TranspilerInfo)
	o.JobType = i.JobType
	o.Created = i.Created
	o.Ended = i.Ended
	o.Info = i.Info
	return o
}

func (r *Result) ToString() string {
	st, err := jsonIter.Marshal(r)
	if err != nil {
		zap.L().Error("Failed to marshal core.Result")
		return ""
	}
	st = pretty.Pretty(st)
	return string(st)
}

// TranspilerConfig is the per-job conversion request. A nil
// TargetPackage means the job runs as submitted, without conversion.
type TranspilerConfig struct {
	TargetPackage     *string         `json:"target_package"`
	TranspilerOptions json.RawMessage `json:"transpiler_options"`
	UseDefault        bool            `json:"-"`
}

func (c TranspilerConfig) NeedTranspiling() bool {
	return c.TargetPackage != nil
}

func UnmarshalToTranspilerConfig(transpilerInfo string) TranspilerConfig {
	var c TranspilerConfig
	err := jsonIter.Unmarshal([]byte(transpilerInfo), &c)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to unmarshal transpiler config from :%s/reason:%s",
			transpilerInfo, err))
	}
	return c
}
