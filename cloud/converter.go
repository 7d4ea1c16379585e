package cloud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/go-openapi/strfmt"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/qonduit-team/qonduit-engine/conversion"
	"github.com/qonduit-team/qonduit-engine/core"
	"github.com/qonduit-team/qonduit-engine/sampling"
)

const notSetMessage = "not set in cloud job"

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

func ConvertToCloudJob(j *core.JobData) *JobDef {
	st := convertToCloudStatus(j.Status)
	var (
		jr      JobResult
		jobType JobType
	)
	switch j.JobType {
	case sampling.SAMPLING_JOB:
		jobType = JobTypeSampling
		jr = JobResult{
			Sampling: &SamplingResult{
				Counts: convertToCloudCounts(j.Result.Counts),
			},
		}
	case conversion.CONVERSION_JOB:
		jobType = JobTypeConversion
		jr = JobResult{
			Conversion: &ConversionResult{
				ConvertedPrograms: map[string]string(j.Result.ConvertedPrograms),
			},
		}
	default:
		zap.L().Error(fmt.Sprintf("unknown job type %s", j.JobType))
		jobType = JobTypeSampling
		jr = JobResult{}
	}

	var tr *TranspileResult
	if j.Result.TranspilerInfo != nil {
		transpiled := j.TranspiledProgram
		stats := string(j.Result.TranspilerInfo.StatsRaw)
		mapping := string(j.Result.TranspilerInfo.QubitMappingRaw)
		tr = &TranspileResult{
			TranspiledProgram: &transpiled,
			Stats:             &stats,
			QubitMapping:      &mapping,
		}
	}

	ji := JobInfo{
		Program:         []string{j.Program},
		ProgramPackage:  j.ProgramPackage,
		Result:          &jr,
		TranspileResult: tr,
		Message:         &j.Result.Message,
	}

	var ext *float64
	if j.Result.ExecutionTime != 0 {
		seconds := j.Result.ExecutionTime.Seconds()
		ext = &seconds
	}
	ti := encodeTranspilerInfo(convertToCloudTranspilerInfo(j.Transpiler))
	zap.L().Debug(fmt.Sprintf("transpiler info:%s", ti))
	return &JobDef{
		JobID:          j.ID,
		JobType:        jobType,
		Shots:          j.Shots,
		TranspilerInfo: ti,
		Status:         st,
		JobInfo:        ji,
		ExecutionTime:  ext,
	}
}

func ConvertFromCloudJob(j *JobDef) *core.JobData {
	jd := core.NewJobData()
	jd.ID = j.JobID
	jd.Shots = j.Shots

	ti, err := j.TranspilerInfoMap()
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode transpiler info of %s/reason:%s", j.JobID, err))
		ti = nil
	}
	if useTranspiler(ti) {
		if useDefaultTranspiler(ti) {
			zap.L().Debug("use default transpiler config")
			jd.Transpiler = core.DEFAULT_TRANSPILER_CONFIG()
			// the cloud job has no explicit config, so the one applied
			// here has to be written back on finish
			jd.NeedsUpdateTranspilerInfo = true
		} else {
			zap.L().Debug("use specified transpiler config")
			jd.Transpiler = ConvertToTranspilerConfig(ti)
		}
	} else {
		zap.L().Debug("do not use transpiler")
		jd.Transpiler = &core.TranspilerConfig{
			TargetPackage: nil,
		}
	}
	zap.L().Debug(fmt.Sprintf("jd.Transpiler:%v from %s", jd.Transpiler, j.TranspilerInfo))

	jd.Status = convertFromCloudStatus(j.Status)
	if j.SubmittedAt != nil {
		jd.Created = *j.SubmittedAt
	} else {
		zap.L().Error("failed to get submitted_at")
		jd.Created = strfmt.DateTime{}
	}
	jinfo := j.JobInfo
	switch j.JobType {
	case JobTypeSampling:
		jd.JobType = sampling.SAMPLING_JOB
	case JobTypeConversion:
		jd.JobType = conversion.CONVERSION_JOB
		if len(jinfo.Targets) > 0 {
			b, err := json.Marshal(map[string][]string{"targets": jinfo.Targets})
			if err != nil {
				zap.L().Error(fmt.Sprintf("failed to marshal targets/%v/reason:%s",
					jinfo.Targets, err))
			} else {
				jd.Info = string(b)
			}
		}
	default:
		zap.L().Error(fmt.Sprintf("unknown job type %s", j.JobType))
		jd.JobType = core.NORMAL_JOB
	}
	zap.L().Debug(fmt.Sprintf("jd.Info:%s", jd.Info))

	if len(jinfo.Program) > 0 {
		jd.Program = jinfo.Program[0]
	}
	jd.ProgramPackage = jinfo.ProgramPackage

	rs := core.NewResult()
	if jinfo.Message != nil {
		rs.Message = *jinfo.Message
	} else {
		rs.Message = notSetMessage
	}
	jd.Result = rs
	zap.L().Debug("ConvertFromCloudJob", zap.Any("jd", jd))
	return jd
}

// ConvertToTranspilerConfig rebuilds a TranspilerConfig from the raw
// per-key map. Any decode failure falls back to an empty config.
func ConvertToTranspilerConfig(ti map[string]jx.Raw) *core.TranspilerConfig {
	tempMap := make(map[string]interface{})
	for key, value := range ti {
		var v interface{}
		if err := json.Unmarshal(value, &v); err != nil {
			return &core.TranspilerConfig{}
		}
		tempMap[key] = v
	}
	jsonData, err := json.Marshal(tempMap)
	if err != nil {
		return &core.TranspilerConfig{}
	}

	s := &core.TranspilerConfig{}
	if err := json.Unmarshal(jsonData, s); err != nil {
		return &core.TranspilerConfig{}
	}
	return s
}

func convertToCloudTranspilerInfo(tc *core.TranspilerConfig) map[string]jx.Raw {
	if tc == nil {
		return nil
	}
	jsonData, err := json.Marshal(tc)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to marshal transpiler config/reason:%s", err))
		return map[string]jx.Raw{}
	}
	tmpMap := make(map[string]json.RawMessage)
	if err = json.Unmarshal(jsonData, &tmpMap); err != nil {
		zap.L().Error(fmt.Sprintf("failed to unmarshal transpiler config/reason:%s", err))
		return map[string]jx.Raw{}
	}
	res := make(map[string]jx.Raw)
	for k, v := range tmpMap {
		res[k] = jx.Raw(v)
	}
	return res
}

func encodeTranspilerInfo(ti map[string]jx.Raw) json.RawMessage {
	if ti == nil {
		return nil
	}
	tmp := make(map[string]json.RawMessage, len(ti))
	for k, v := range ti {
		tmp[k] = json.RawMessage(v)
	}
	b, err := jsonIter.Marshal(tmp)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to encode transpiler info/reason:%s", err))
		return nil
	}
	return b
}

func convertToCloudCounts(counts core.Counts) map[string]string {
	res := make(map[string]string)
	for key, value := range counts {
		res[key] = strconv.FormatUint(uint64(value), 10)
	}
	zap.L().Debug(fmt.Sprintf("convert core.Counts%s to cloud counts:%s", counts, res))
	return res
}

func convertFromCloudStatus(st JobStatus) core.Status {
	var r core.Status
	switch st {
	case JobStatusSubmitted:
		r = core.SUBMITTED
	case JobStatusReady:
		r = core.READY
	case JobStatusRunning:
		r = core.RUNNING
	case JobStatusSucceeded:
		r = core.SUCCEEDED
	case JobStatusFailed:
		r = core.FAILED
	case JobStatusCancelled:
		r = core.CANCELLED
	default:
		zap.L().Error("unknown status", zap.Any("unknown status", st))
		r = core.FAILED
	}
	return r
}

func convertToCloudStatus(s core.Status) JobStatus {
	var st JobStatus
	switch s {
	case core.SUBMITTED:
		st = JobStatusSubmitted
	case core.READY:
		st = JobStatusReady
	case core.RUNNING:
		st = JobStatusRunning
	case core.SUCCEEDED:
		st = JobStatusSucceeded
	case core.FAILED:
		st = JobStatusFailed
	case core.CANCELLED:
		st = JobStatusCancelled
	default:
		zap.L().Error(fmt.Sprintf("unknown status %d", s))
		st = JobStatusFailed
	}
	return st
}

func useTranspiler(ti map[string]jx.Raw) bool {
	if ti == nil {
		return true
	}
	if tp, ok := ti["target_package"]; !ok {
		zap.L().Debug("not found target_package")
		return true
	} else if tp == nil || bytes.Equal(tp, []byte("null")) { //Attention: "null" is not nil
		return false
	}
	return true
}

func useDefaultTranspiler(ti map[string]jx.Raw) bool {
	if ti == nil {
		return true
	}
	if _, ok := ti["target_package"]; !ok {
		return true
	}
	return false
}
