//go:build unit
// +build unit

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/qonduit-team/qonduit-engine/core"
	"github.com/stretchr/testify/assert"
)

const testBellQASM3 = "OPENQASM 3;qubit[2] q;h q[0];cx q[0], q[1];"
const testBellQASM2 = "OPENQASM 2.0;\ninclude \"qelib1.inc\";\nqreg q[2];\nh q[0];\ncx q[0], q[1];"
const testSymbolicQASM3 = "OPENQASM 3;input float theta;qubit[1] q;rx(theta) q[0];"
const testMeasuredQASM3 = "OPENQASM 3;qubit[2] q;bit[2] c;h q[0];cx q[0], q[1];" +
	"c[0] = measure q[0];c[1] = measure q[1];"

func postJSON(e *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func getRequest(e *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func postConversion(t *testing.T, e *gin.Engine, req *ConversionRequest) *httptest.ResponseRecorder {
	body, err := json.Marshal(req)
	assert.NoError(t, err)
	return postJSON(e, "/v1/conversions", string(body))
}

func TestHandleConversion(t *testing.T) {
	sc := core.SCWithDBContainer()
	defer sc.TearDown()
	e := newEngine(sc.Container)

	rec := postConversion(t, e, &ConversionRequest{
		Program: testBellQASM3,
		Source:  "qasm3",
		Targets: []string{"qasm2", "quil", "ionq"},
		Verify:  true,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ConversionResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "qasm3", resp.Source)
	assert.Len(t, resp.Results, 3)
	assert.Contains(t, resp.Results["qasm2"], "OPENQASM 2.0")
	assert.Contains(t, resp.Results["quil"], "H 0")
	assert.Contains(t, resp.Results["ionq"], `"qubits":2`)
	assert.Equal(t, 2, resp.Stats.Qubits)
	assert.Equal(t, 2, resp.Stats.Depth)
	assert.Equal(t, 2, resp.Stats.Gates)
	assert.Empty(t, resp.Stats.Params)
	assert.Equal(t, map[string]bool{"qasm2": true, "quil": true, "ionq": true}, resp.Verified)
	assert.Empty(t, resp.Warnings)
}

func TestHandleConversionDetectsSource(t *testing.T) {
	sc := core.SCWithDBContainer()
	defer sc.TearDown()
	e := newEngine(sc.Container)

	rec := postConversion(t, e, &ConversionRequest{
		Program: testBellQASM2,
		Target:  "qasm3",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ConversionResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "qasm2", resp.Source)
	assert.Contains(t, resp.Results["qasm3"], "OPENQASM 3")
}

func TestHandleConversionSymbolicSkipsVerify(t *testing.T) {
	sc := core.SCWithDBContainer()
	defer sc.TearDown()
	e := newEngine(sc.Container)

	rec := postConversion(t, e, &ConversionRequest{
		Program: testSymbolicQASM3,
		Source:  "qasm3",
		Target:  "quil",
		Verify:  true,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ConversionResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 1)
	assert.Contains(t, resp.Results["quil"], "theta")
	assert.Equal(t, []string{"theta"}, resp.Stats.Params)
	assert.Nil(t, resp.Verified)
	assert.Equal(t, []string{"verification skipped: circuit has unbound parameters"}, resp.Warnings)
}

func TestHandleConversionMeasuredVerify(t *testing.T) {
	sc := core.SCWithDBContainer()
	defer sc.TearDown()
	e := newEngine(sc.Container)

	rec := postConversion(t, e, &ConversionRequest{
		Program: testMeasuredQASM3,
		Source:  "qasm3",
		Target:  "qasm2",
		Verify:  true,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var er ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	assert.Equal(t, "failed to calculate unitary of qasm3 circuit: circuit contains measurement", er.Message)
}

func TestHandleConversionError(t *testing.T) {
	sc := core.SCWithDBContainer()
	defer sc.TearDown()
	e := newEngine(sc.Container)

	tests := []struct {
		name       string
		req        *ConversionRequest
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "no program",
			req:        &ConversionRequest{Target: "qasm2"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "program is required",
		},
		{
			name:       "no target",
			req:        &ConversionRequest{Program: testBellQASM3, Source: "qasm3"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "target is required",
		},
		{
			name: "both target and targets",
			req: &ConversionRequest{
				Program: testBellQASM3,
				Source:  "qasm3",
				Target:  "qasm2",
				Targets: []string{"quil"},
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "use either target or targets, not both",
		},
		{
			name:       "unknown target",
			req:        &ConversionRequest{Program: testBellQASM3, Source: "qasm3", Target: "hoge"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    `unsupported target package "hoge", supported packages are qasm2, qasm3, quil, ionq`,
		},
		{
			name:       "unknown source",
			req:        &ConversionRequest{Program: testBellQASM3, Source: "braket", Target: "qasm2"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    `unsupported source package "braket", supported packages are qasm2, qasm3, quil, ionq`,
		},
		{
			name:       "undetectable program",
			req:        &ConversionRequest{Program: "hoge", Target: "qasm2"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    `unsupported source package "unknown", supported packages are qasm2, qasm3, quil, ionq`,
		},
		{
			name:       "broken program",
			req:        &ConversionRequest{Program: "hoge", Source: "qasm3", Target: "qasm2"},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    `failed to convert qasm3 circuit at stage to-ir: line 1:1 expected OPENQASM header, got "hoge"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postConversion(t, e, tt.req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			var er ErrorResponse
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
			assert.Equal(t, tt.wantMsg, er.Message)
		})
	}
}

func TestHandleConversionInvalidBody(t *testing.T) {
	sc := core.SCWithDBContainer()
	defer sc.TearDown()
	e := newEngine(sc.Container)

	rec := postJSON(e, "/v1/conversions", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var er ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	assert.Contains(t, er.Message, "invalid request body")
}

func TestHandlePackages(t *testing.T) {
	sc := core.SCWithDBContainer()
	defer sc.TearDown()
	e := newEngine(sc.Container)

	rec := getRequest(e, "/v1/packages")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"packages":["qasm2","qasm3","quil","ionq"]}`, rec.Body.String())
}

func TestHandleJob(t *testing.T) {
	sc := core.SCWithDBContainer()
	defer sc.TearDown()
	e := newEngine(sc.Container)

	jd := core.NewJobData()
	jd.ID = "a3e566f1-2771-4bd0-a491-c8f3f7dd9d4b"
	jd.Program = testBellQASM3
	jd.ProgramPackage = "qasm3"
	jd.Shots = 1000
	jd.JobType = core.NORMAL_JOB
	jd.Status = core.RUNNING
	job := (&core.NormalJob{}).New(jd, &core.JobContext{})
	assert.NoError(t, sc.Invoke(
		func(d core.DBManager) error {
			return d.Insert(job)
		}))

	rec := getRequest(e, "/v1/jobs/"+jd.ID)
	assert.Equal(t, http.StatusOK, rec.Code)

	var jr JobResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jr))
	assert.Equal(t, jd.ID, jr.ID)
	assert.Equal(t, "running", jr.Status)
	assert.Equal(t, 1000, jr.Shots)
	assert.Equal(t, testBellQASM3, jr.Program)
	assert.Equal(t, "qasm3", jr.ProgramPackage)
	assert.Equal(t, core.NORMAL_JOB, jr.JobType)
}

func TestHandleJobNotFound(t *testing.T) {
	sc := core.SCWithDBContainer()
	defer sc.TearDown()
	e := newEngine(sc.Container)

	rec := getRequest(e, "/v1/jobs/hoge")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var er ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	assert.Equal(t, "not found hoge", er.Message)
}

func TestHandleHealth(t *testing.T) {
	sc := core.SCWithDBContainer()
	defer sc.TearDown()
	e := newEngine(sc.Container)

	rec := getRequest(e, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","queue_size":0}`, rec.Body.String())
}

func TestHandleHealthUnhealthy(t *testing.T) {
	sc := core.SCWithTranspiler(&brokenTranspilerForTest{})
	defer sc.TearDown()
	e := newEngine(sc.Container)

	rec := getRequest(e, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var er ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	assert.Equal(t, "transpile engine is not ready", er.Message)
}

type brokenTranspilerForTest struct{}

func (brokenTranspilerForTest) IsAcceptableTargetPackage(string) bool { return true }
func (brokenTranspilerForTest) Setup(*core.Conf) error                { return nil }
func (brokenTranspilerForTest) GetHealth() error {
	return errors.New("transpile engine is not ready")
}
func (brokenTranspilerForTest) Transpile(core.Job) error { return nil }
func (brokenTranspilerForTest) TearDown()                {}
