//go:build unit
// +build unit

package core

import (
	"encoding/json"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
)

func TestResultToString(t *testing.T) {
	tests := []struct {
		name       string
		result     *Result
		wantString string
	}{
		{
			name:   "empty result",
			result: NewResult(),
			wantString: heredoc.Doc(`
			  {
			    "counts": {},
			    "converted_programs": {},
			    "transpiler_info": {
			      "stats": null,
			      "qubit_mapping": null
			    },
			    "message": "",
			    "execution_time": 0
			  }
			`),
		},
		{
			name:   "message in result",
			result: messageInResult(),
			wantString: heredoc.Docf(`
			  {
			    "counts": {},
			    "converted_programs": {},
			    "transpiler_info": {
			      "stats": null,
			      "qubit_mapping": null
			    },
			    "message": "dummy message",
			    "execution_time": 0
			  }
			`),
		},
		{
			name:   "count in result",
			result: CountsInResult(),
			wantString: heredoc.Docf(`
			  {
			    "counts": {
			      "0000": 10,
			      "0001": 20
			    },
			    "converted_programs": {},
			    "transpiler_info": {
			      "stats": null,
			      "qubit_mapping": null
			    },
			    "message": "",
			    "execution_time": 0
			  }
			`),
		},
		{
			name:   "converted programs in result",
			result: ConvertedProgramsInResult(),
			wantString: heredoc.Docf(`
			  {
			    "counts": {},
			    "converted_programs": {
			      "quil": "H 0\nCNOT 0 1\n"
			    },
			    "transpiler_info": {
			      "stats": null,
			      "qubit_mapping": null
			    },
			    "message": "",
			    "execution_time": 0
			  }
			`),
		},
		{
			name:   "all in result",
			result: AllInResult(),
			wantString: heredoc.Docf(`
			  {
			    "counts": {
			      "0000": 10,
			      "0001": 20
			    },
			    "converted_programs": {},
			    "transpiler_info": {
			      "stats": {
			        "n_qubits": 2
			      },
			      "qubit_mapping": {
			        "0": 0,
			        "1": 1
			      }
			    },
			    "message": "dummy message",
			    "execution_time": 0
			  }
			`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := tt.result.ToString()
			assert.Equal(t, tt.wantString, act)
		})
	}
}

func messageInResult() *Result {
	r := NewResult()
	r.Message = "dummy message"
	return r
}

func CountsInResult() *Result {
	r := NewResult()
	r.Counts = make(Counts)
	r.Counts["0000"] = uint32(10)
	r.Counts["0001"] = uint32(20)
	return r
}

func ConvertedProgramsInResult() *Result {
	r := NewResult()
	r.ConvertedPrograms["quil"] = "H 0\nCNOT 0 1\n"
	return r
}

func AllInResult() *Result {
	r := NewResult()
	r.Message = "dummy message"
	r.Counts = make(Counts)
	r.Counts["0000"] = uint32(10)
	r.Counts["0001"] = uint32(20)
	r.TranspilerInfo.StatsRaw = StatsRaw(`{"n_qubits":2}`)
	r.TranspilerInfo.QubitMappingRaw = QubitMappingRaw(`{"0":0,"1":1}`)
	return r
}

func TestCloneJobData(t *testing.T) {
	tests := []struct {
		name    string
		jobData *JobData
	}{
		{
			name: "no properties",
			jobData: &JobData{
				ID:         "dummy_id",
				Program:    "dummy_program",
				Shots:      1000,
				Transpiler: &TranspilerConfig{},
				Result:     NewResult(),
				Created:    strfmt.NewDateTime(),
				Ended:      strfmt.NewDateTime(),
			},
		},
		{
			name: "with properties",
			jobData: &JobData{
				ID:             "dummy_id",
				Program:        "dummy_program",
				ProgramPackage: "qasm2",
				Shots:          1000,
				Transpiler:     &TranspilerConfig{},
				Result:         AllInResult(),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clonedJobData := tt.jobData.Clone()

			assert.False(t, tt.jobData == clonedJobData)
			assert.Equal(t, tt.jobData.ID, clonedJobData.ID)
			assert.Equal(t, tt.jobData.Program, clonedJobData.Program)
			assert.Equal(t, tt.jobData.ProgramPackage, clonedJobData.ProgramPackage)
			assert.Equal(t, tt.jobData.Shots, clonedJobData.Shots)
			assert.Equal(t, tt.jobData.Created, clonedJobData.Created)
			assert.Equal(t, tt.jobData.Ended, clonedJobData.Ended)
			assert.False(t, tt.jobData.Result == clonedJobData.Result)
		})
	}
}

func TestQubitMappingRoundTrip(t *testing.T) {
	raw := QubitMappingRaw(`{"0":1,"2":3}`)
	m, err := raw.ToMap()
	assert.Nil(t, err)
	assert.Equal(t, m, QubitMappingMap{0: 1, 2: 3})

	back, err := m.ToRaw()
	assert.Nil(t, err)
	assert.Equal(t, string(back), `{"0":1,"2":3}`)

	_, err = QubitMappingRaw(`{"x":1}`).ToMap()
	assert.NotNil(t, err)
}

func TestUnmarshalToTranspilerConfig(t *testing.T) {
	ti := `
{ "target_package": "qasm3", "transpiler_options": {"verify":true}}
`
	c := UnmarshalToTranspilerConfig(ti)
	assert.Equal(t, "qasm3", *c.TargetPackage)
	assert.Equal(t, json.RawMessage(`{"verify":true}`), c.TranspilerOptions)
}

func TestMarshalTranspilerConfig(t *testing.T) {
	qasm3Str := "qasm3"
	c := TranspilerConfig{TargetPackage: &qasm3Str, TranspilerOptions: json.RawMessage(`{"verify":true}`)}
	b, err := jsonIter.Marshal(c)
	assert.Nil(t, err)
	assert.Equal(t, string(b), `{"target_package":"qasm3","transpiler_options":{"verify":true}}`)
	bo, err := jsonIter.Marshal(c.TranspilerOptions)
	assert.Nil(t, err)
	assert.Equal(t, string(bo), `{"verify":true}`)
}
