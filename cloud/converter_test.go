//go:build unit
// +build unit

package cloud

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/qonduit-team/qonduit-engine/conversion"
	"github.com/qonduit-team/qonduit-engine/core"
	"github.com/qonduit-team/qonduit-engine/sampling"
	"github.com/stretchr/testify/assert"
)

func TestUseTranspiler(t *testing.T) {
	tests := []struct {
		name            string
		transpiler_info map[string]jx.Raw
		want            bool
	}{
		{
			name:            "transpiler_info is not set",
			transpiler_info: nil,
			want:            true,
		},
		{
			name:            "transpiler_info is empty",
			transpiler_info: map[string]jx.Raw{},
			want:            true,
		},
		{
			name: "target_package is nil",
			transpiler_info: map[string]jx.Raw{
				"target_package": nil,
			},
			want: false,
		},
		{
			name: "target_package is nil in bytes",
			transpiler_info: map[string]jx.Raw{
				"target_package": []byte("null"),
			},
			want: false,
		},
		{
			name: "target_package is set",
			transpiler_info: map[string]jx.Raw{
				"target_package": []byte(`"qasm3"`),
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := useTranspiler(tt.transpiler_info)
			assert.Equal(t, tt.want, act)
		})
	}
}

func TestConvertFromCloudJob(t *testing.T) {
	quil := "quil"
	tests := []struct {
		name            string
		jobDef          *JobDef
		wantJobType     string
		wantTranspiler  *core.TranspilerConfig
		wantProgram     string
		wantInfo        string
		wantMessage     string
		wantNeedsUpdate bool
	}{
		{
			name: "sampling job without transpiler_info",
			jobDef: &JobDef{
				JobID:   "job-1",
				JobType: JobTypeSampling,
				Status:  JobStatusSubmitted,
				Shots:   100,
				JobInfo: JobInfo{
					Program:        []string{"H 0\nCNOT 0 1\n"},
					ProgramPackage: "quil",
				},
			},
			wantJobType:     sampling.SAMPLING_JOB,
			wantTranspiler:  core.DEFAULT_TRANSPILER_CONFIG(),
			wantProgram:     "H 0\nCNOT 0 1\n",
			wantMessage:     notSetMessage,
			wantNeedsUpdate: true,
		},
		{
			name: "sampling job with null target_package",
			jobDef: &JobDef{
				JobID:          "job-2",
				JobType:        JobTypeSampling,
				Status:         JobStatusSubmitted,
				Shots:          10,
				TranspilerInfo: json.RawMessage(`{"target_package":null}`),
				JobInfo: JobInfo{
					Program:        []string{"H 0\n"},
					ProgramPackage: "quil",
				},
			},
			wantJobType:    sampling.SAMPLING_JOB,
			wantTranspiler: &core.TranspilerConfig{TargetPackage: nil},
			wantProgram:    "H 0\n",
			wantMessage:    notSetMessage,
		},
		{
			name: "sampling job with specified transpiler config",
			jobDef: &JobDef{
				JobID:          "job-3",
				JobType:        JobTypeSampling,
				Status:         JobStatusSubmitted,
				Shots:          10,
				TranspilerInfo: json.RawMessage(`{"target_package":"quil","transpiler_options":{"verify":true}}`),
				JobInfo: JobInfo{
					Program:        []string{"OPENQASM 3;\nqubit[1] q;\nh q[0];\n"},
					ProgramPackage: "qasm3",
				},
			},
			wantJobType: sampling.SAMPLING_JOB,
			wantTranspiler: &core.TranspilerConfig{
				TargetPackage:     &quil,
				TranspilerOptions: json.RawMessage(`{"verify":true}`),
			},
			wantProgram: "OPENQASM 3;\nqubit[1] q;\nh q[0];\n",
			wantMessage: notSetMessage,
		},
		{
			name: "conversion job with targets",
			jobDef: &JobDef{
				JobID:   "job-4",
				JobType: JobTypeConversion,
				Status:  JobStatusSubmitted,
				JobInfo: JobInfo{
					Program:        []string{"H 0\n"},
					ProgramPackage: "quil",
					Targets:        []string{"qasm3", "ionq"},
				},
			},
			wantJobType:     conversion.CONVERSION_JOB,
			wantTranspiler:  core.DEFAULT_TRANSPILER_CONFIG(),
			wantProgram:     "H 0\n",
			wantInfo:        `{"targets":["qasm3","ionq"]}`,
			wantMessage:     notSetMessage,
			wantNeedsUpdate: true,
		},
		{
			name: "unknown job type falls back to normal",
			jobDef: &JobDef{
				JobID:   "job-5",
				JobType: JobType("estimation"),
				Status:  JobStatusSubmitted,
				JobInfo: JobInfo{
					Program: []string{"H 0\n"},
				},
			},
			wantJobType:     core.NORMAL_JOB,
			wantTranspiler:  core.DEFAULT_TRANSPILER_CONFIG(),
			wantProgram:     "H 0\n",
			wantMessage:     notSetMessage,
			wantNeedsUpdate: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jd := ConvertFromCloudJob(tt.jobDef)
			assert.Equal(t, jd.ID, tt.jobDef.JobID)
			assert.Equal(t, jd.Shots, tt.jobDef.Shots)
			assert.Equal(t, jd.JobType, tt.wantJobType)
			assert.Equal(t, jd.Transpiler, tt.wantTranspiler)
			assert.Equal(t, jd.Program, tt.wantProgram)
			assert.Equal(t, jd.ProgramPackage, tt.jobDef.JobInfo.ProgramPackage)
			assert.Equal(t, jd.Info, tt.wantInfo)
			assert.Equal(t, jd.Result.Message, tt.wantMessage)
			assert.Equal(t, jd.Status, core.SUBMITTED)
			assert.Equal(t, jd.NeedsUpdateTranspilerInfo, tt.wantNeedsUpdate)
		})
	}
}

func TestConvertToCloudJobSampling(t *testing.T) {
	jd := core.NewJobData()
	jd.ID = "job-1"
	jd.JobType = sampling.SAMPLING_JOB
	jd.Status = core.SUCCEEDED
	jd.Shots = 100
	jd.Program = "H 0\nCNOT 0 1\n"
	jd.ProgramPackage = "quil"
	jd.TranspiledProgram = "OPENQASM 3;\ninclude \"stdgates.inc\";\nqubit[2] q;\nh q[0];\ncx q[0], q[1];\n"
	jd.Transpiler = core.DEFAULT_TRANSPILER_CONFIG()
	jd.Result.Counts = core.Counts{"00": 51, "11": 49}
	jd.Result.TranspilerInfo.StatsRaw = core.StatsRaw(`{"before":{"depth":2},"after":{"depth":2}}`)
	jd.Result.TranspilerInfo.QubitMappingRaw = core.QubitMappingRaw(`{"0":0,"1":1}`)
	jd.Result.ExecutionTime = 1500 * time.Millisecond

	cJob := ConvertToCloudJob(jd)
	assert.Equal(t, cJob.JobID, "job-1")
	assert.Equal(t, cJob.JobType, JobTypeSampling)
	assert.Equal(t, cJob.Status, JobStatusSucceeded)
	assert.Equal(t, cJob.Shots, 100)
	assert.Equal(t, cJob.JobInfo.Program, []string{"H 0\nCNOT 0 1\n"})
	assert.Equal(t, cJob.JobInfo.Result.Sampling.Counts,
		map[string]string{"00": "51", "11": "49"})
	assert.Nil(t, cJob.JobInfo.Result.Conversion)
	assert.Equal(t, *cJob.JobInfo.TranspileResult.TranspiledProgram, jd.TranspiledProgram)
	assert.Equal(t, *cJob.JobInfo.TranspileResult.Stats, `{"before":{"depth":2},"after":{"depth":2}}`)
	assert.Equal(t, *cJob.JobInfo.TranspileResult.QubitMapping, `{"0":0,"1":1}`)
	assert.Equal(t, *cJob.ExecutionTime, 1.5)
	assert.Equal(t, string(cJob.TranspilerInfo),
		`{"target_package":"qasm3","transpiler_options":{"verify":false}}`)
}

func TestConvertToCloudJobConversion(t *testing.T) {
	jd := core.NewJobData()
	jd.ID = "job-2"
	jd.JobType = conversion.CONVERSION_JOB
	jd.Status = core.SUCCEEDED
	jd.Program = "H 0\n"
	jd.ProgramPackage = "quil"
	jd.Transpiler = &core.TranspilerConfig{}
	jd.Result.ConvertedPrograms = core.ConvertedPrograms{
		"qasm3": "OPENQASM 3;\ninclude \"stdgates.inc\";\nqubit[1] q;\nh q[0];\n",
	}

	cJob := ConvertToCloudJob(jd)
	assert.Equal(t, cJob.JobType, JobTypeConversion)
	assert.Nil(t, cJob.JobInfo.Result.Sampling)
	assert.Equal(t, cJob.JobInfo.Result.Conversion.ConvertedPrograms,
		map[string]string{"qasm3": "OPENQASM 3;\ninclude \"stdgates.inc\";\nqubit[1] q;\nh q[0];\n"})
	assert.Nil(t, cJob.ExecutionTime)
}

func TestStatusRoundTrip(t *testing.T) {
	statuses := []core.Status{
		core.SUBMITTED, core.READY, core.RUNNING,
		core.SUCCEEDED, core.FAILED, core.CANCELLED,
	}
	for _, st := range statuses {
		assert.Equal(t, convertFromCloudStatus(convertToCloudStatus(st)), st)
	}
	assert.Equal(t, convertFromCloudStatus(JobStatus("mystery")), core.FAILED)
}
