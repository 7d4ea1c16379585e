package poller

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qonduit-team/qonduit-engine/common"
	"github.com/qonduit-team/qonduit-engine/core"
)

const fallbackTestProgram = "OPENQASM 3;qubit[2] q;bit[2] c;" +
	"h q[0];cx q[0], q[1];c[0] = measure q[0];c[1] = measure q[1];"

// testPollClient fabricates jobs locally so the engine can run without
// a job service. Each request yields one bell-pair job.
type testPollClient struct {
	program string
	count   int
}

func newTestPollClient(count int) *testPollClient {
	program, err := common.GetAsset("bell_pair.qasm")
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to load the test program/reason:%s", err))
		program = fallbackTestProgram
	}
	return &testPollClient{
		program: program,
		count:   count,
	}
}

func (c *testPollClient) request() ([]core.Job, error) {
	jm := core.GetJobManager()
	jc, err := core.NewJobContext()
	if err != nil {
		return []core.Job{}, err
	}
	jd := core.NewJobData()
	jd.ID = uuid.NewString()
	jd.Program = c.program
	jd.ProgramPackage = "qasm3"
	jd.Shots = 1000
	jd.Transpiler = core.DEFAULT_TRANSPILER_CONFIG()
	jd.JobType = core.NORMAL_JOB
	jd.Status = core.READY
	j, err := jm.NewJobFromJobDataWithValidation(jd, jc)
	if err != nil {
		return []core.Job{}, err
	}
	zap.L().Debug(fmt.Sprintf("Created a test job. Job ID:%s", jd.ID))
	return []core.Job{j}, nil
}
