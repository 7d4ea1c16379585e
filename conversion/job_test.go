//go:build unit
// +build unit

package conversion

import (
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/qonduit-team/qonduit-engine/core"
	"github.com/stretchr/testify/assert"
)

type denyTranspilerForTest struct{}

func (denyTranspilerForTest) IsAcceptableTargetPackage(string) bool { return false }
func (denyTranspilerForTest) Setup(*core.Conf) error                { return nil }
func (denyTranspilerForTest) GetHealth() error                      { return nil }
func (denyTranspilerForTest) Transpile(core.Job) error              { return nil }
func (denyTranspilerForTest) TearDown()                             {}

func testConversionJob(t *testing.T, jm *core.JobManager, jobID, program, pkg, info string) core.Job {
	t.Helper()
	jd := core.NewJobData()
	jd.ID = jobID
	jd.Program = program
	jd.ProgramPackage = pkg
	jd.Status = core.READY
	jd.JobType = CONVERSION_JOB
	jd.Transpiler = &core.TranspilerConfig{}
	jd.Info = info
	jc, err := core.NewJobContext()
	assert.Nil(t, err)
	j, err := jm.NewJobFromJobData(jd, jc)
	assert.Nil(t, err)
	return j
}

func TestConversionJobPreProcess(t *testing.T) {
	s := core.SCWithDBContainer()
	defer s.TearDown()

	jm, err := core.NewJobManager(&ConversionJob{})
	assert.Nil(t, err)

	tests := []struct {
		name        string
		jobID       string
		program     string
		pkg         string
		info        string
		conflict    bool
		wantStatus  core.Status
		wantTargets []string
	}{
		{
			name:        "targets from job info",
			jobID:       "conv-1",
			program:     "H 0\nCNOT 0 1\n",
			pkg:         "quil",
			info:        `{"targets":["qasm3","ionq"]}`,
			wantStatus:  core.READY,
			wantTargets: []string{"qasm3", "ionq"},
		},
		{
			name:        "no targets falls back to default",
			jobID:       "conv-2",
			program:     "H 0\n",
			pkg:         "quil",
			info:        "",
			wantStatus:  core.READY,
			wantTargets: []string{DEFAULT_TARGET},
		},
		{
			name:       "broken info json",
			jobID:      "conv-3",
			program:    "H 0\n",
			pkg:        "quil",
			info:       `{"targets":`,
			wantStatus: core.FAILED,
		},
		{
			name:       "program does not parse",
			jobID:      "conv-4",
			program:    "dummy_string",
			pkg:        "qasm3",
			info:       "",
			wantStatus: core.FAILED,
		},
		{
			name:       "conflicting job id",
			jobID:      "conv-5",
			program:    "H 0\n",
			pkg:        "quil",
			info:       "",
			conflict:   true,
			wantStatus: core.FAILED,
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
			j := testConversionJob(t, jm, tt.jobID, tt.program, tt.pkg, tt.info)
			j.PreProcess()
			assert.Equal(t, j.JobData().Status, tt.wantStatus)
			if tt.wantTargets != nil {
				assert.Equal(t, j.(*ConversionJob).targets, tt.wantTargets)
			}
		})
	}
}

func TestConversionJobProcess(t *testing.T) {
	s := core.SCWithDBContainer()
	defer s.TearDown()

	jm, err := core.NewJobManager(&ConversionJob{})
	assert.Nil(t, err)

	j := testConversionJob(t, jm, "conv-10", "H 0\nCNOT 0 1\n", "quil",
		`{"targets":["qasm3","ionq"]}`)
	j.PreProcess()
	assert.Equal(t, j.JobData().Status, core.READY)
	j.Process()
	assert.Equal(t, j.JobData().Status, core.SUCCEEDED)
	assert.True(t, j.IsFinished())

	converted := j.JobData().Result.ConvertedPrograms
	assert.Equal(t, converted["qasm3"], heredoc.Doc(`
		OPENQASM 3;
		include "stdgates.inc";
		qubit[2] q;
		h q[0];
		cx q[0], q[1];
	`))
	assert.NotEmpty(t, converted["ionq"])
	assert.Equal(t, string(j.JobData().Result.TranspilerInfo.StatsRaw),
		`{"qubits":2,"clbits":0,"depth":2,"gates":2,"params":[]}`)
}

func TestConversionJobProcessCollectsFailures(t *testing.T) {
	s := core.SCWithDBContainer()
	defer s.TearDown()

	jm, err := core.NewJobManager(&ConversionJob{})
	assert.Nil(t, err)

	j := testConversionJob(t, jm, "conv-11",
		"OPENQASM 3;input float theta;qubit[1] q;rx(theta) q[0];", "qasm3",
		`{"targets":["qasm2","ionq"]}`)
	j.PreProcess()
	assert.Equal(t, j.JobData().Status, core.READY)
	j.Process()
	assert.Equal(t, j.JobData().Status, core.FAILED)
	assert.Equal(t, j.JobData().Result.Message,
		"failed to convert circuit from qasm3 to qasm2 at stage from-ir: "+
			"OPENQASM 2.0 cannot express symbolic parameters; "+
			"failed to convert circuit from qasm3 to ionq at stage from-ir: "+
			"IonQ circuits cannot express symbolic parameters")
}

func TestConversionJobUnacceptableTarget(t *testing.T) {
	s := core.SCWithTranspiler(denyTranspilerForTest{})
	defer s.TearDown()

	jm, err := core.NewJobManager(&ConversionJob{})
	assert.Nil(t, err)

	j := testConversionJob(t, jm, "conv-20", "H 0\n", "quil", "")
	j.PreProcess()
	assert.Equal(t, j.JobData().Status, core.FAILED)
	assert.Equal(t, j.JobData().Result.Message,
		"target package qasm3 is not acceptable")
}
