//go:build unit
// +build unit

package sampling

import (
	"testing"

	"github.com/qonduit-team/qonduit-engine/core"
	"github.com/stretchr/testify/assert"
)

const testProgram = `OPENQASM 3;
include "stdgates.inc";
qubit[2] q;
bit[2] c;
h q[0];
cx q[0], q[1];
c[0] = measure q[0];
c[1] = measure q[1];
`

func testSamplingJob(t *testing.T, jm *core.JobManager, jobID string) core.Job {
	jd := core.NewJobData()
	jd.ID = jobID
	jd.Program = testProgram
	jd.ProgramPackage = "qasm3"
	jd.Shots = 1000
	jd.Status = core.READY
	jd.JobType = SAMPLING_JOB
	jd.Transpiler = core.DEFAULT_TRANSPILER_CONFIG()
	jc, err := core.NewJobContext()
	assert.Nil(t, err)
	j, err := jm.NewJobFromJobData(jd, jc)
	assert.Nil(t, err)
	return j
}

func TestSamplingJobPreProcess(t *testing.T) {
	s := core.SCWithDBContainer()
	defer s.TearDown()

	jm, err := core.NewJobManager(&SamplingJob{})
	assert.Nil(t, err)

	tests := []struct {
		name        string
		jobID       string
		conflict    bool
		wantStatus  core.Status
		wantMessage string
	}{
		{
			name:       "fresh job id",
			jobID:      "sampling-1",
			conflict:   false,
			wantStatus: core.READY,
		},
		{
			name:        "conflicting job id",
			jobID:       "sampling-2",
			conflict:    true,
			wantStatus:  core.FAILED,
			wantMessage: "jobID is already used",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.conflict {
				_ = s.Invoke(func(d core.DBManager) error {
					d.AddToInnerJobIDSet(tt.jobID)
					return nil
				})
			}
			j := testSamplingJob(t, jm, tt.jobID)
			j.PreProcess()
			assert.Equal(t, j.JobData().Status, tt.wantStatus)
			if tt.wantMessage != "" {
				assert.Equal(t, j.JobData().Result.Message, tt.wantMessage)
			}
			var exist bool
			_ = s.Invoke(func(d core.DBManager) error {
				exist = d.ExistInInnerJobIDSet(tt.jobID)
				return nil
			})
			assert.True(t, exist)
		})
	}
}

func TestSamplingJobProcess(t *testing.T) {
	s := core.SCWithDBContainer()
	defer s.TearDown()

	jm, err := core.NewJobManager(&SamplingJob{})
	assert.Nil(t, err)

	j := testSamplingJob(t, jm, "sampling-3")
	j.Process()
	assert.Equal(t, j.JobData().Status, core.SUCCEEDED)
	assert.True(t, j.IsFinished())
}
