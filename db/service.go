package db

import (
	"context"
	"fmt"

	"github.com/qonduit-team/qonduit-engine/cloud"
	"github.com/qonduit-team/qonduit-engine/core"
	"go.uber.org/zap"
)

// TODO to dependent container
var innerJobIDSet map[string]struct{}

// ServiceDB is the cloud-backed DBManager. Writes propagate to the cloud
// job service through the provider API; reads stay ad hoc because the
// poller owns the cloud-to-engine direction.
type ServiceDB struct {
	endpoint string
	apiKey   string
	client   *cloud.Client
	dbc      core.DBChan
}

func (s *ServiceDB) Setup(dbc core.DBChan, c *core.Conf) error {
	innerJobIDSet = make(map[string]struct{})
	zap.L().Debug("Setting up Service DB")
	s.endpoint = c.ServiceDBEndpoint
	s.apiKey = c.ServiceDBAPIKey

	cli, err := cloud.NewClient("https://"+s.endpoint, s.apiKey)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to create a client/reason:%s", err))
		return err
	}
	s.client = cli
	s.dbc = dbc
	go func() {
		for {
			job := <-s.dbc
			if job == nil {
				return
			}
			zap.L().Debug(fmt.Sprintf("[ServiceDB] Received %s", job.JobData().ID))
			s.Update(job)
		}
	}()

	return nil
}

func (s *ServiceDB) Insert(j core.Job) error {
	// ad hoc impl
	zap.L().Debug("[ServiceDB] Does not insert " + j.JobData().ID)
	return nil
}

func (s *ServiceDB) Get(jobID string) (core.Job, error) {
	// ad hoc impl
	zap.L().Debug("[ServiceDB] Do not get " + jobID)
	return &core.NormalJob{}, fmt.Errorf("not found %s", jobID)
}

func (s *ServiceDB) Update(j core.Job) error {
	jd := j.JobData()
	jid := jd.ID
	cJob := cloud.ConvertToCloudJob(jd)
	zap.L().Debug(fmt.Sprintf("Updating %s/status:%s/Transpiler:%v",
		jid, cJob.Status, jd.Transpiler))
	ctx := context.Background()
	if !jd.UseJobInfoUpdate {
		switch cJob.Status {
		case cloud.JobStatusRunning:
			if err := s.client.PatchJobStatus(ctx, jid, cloud.JobStatusRunning); err != nil {
				zap.L().Error(fmt.Sprintf("failed to update the status of %s/reason:%s", jid, err))
				return err
			}
			zap.L().Debug(fmt.Sprintf("updated to the running status %s", jid))
		case cloud.JobStatusSucceeded:
			zap.L().Debug(fmt.Sprintf("Job(%s) is succeeded", jid))
		case cloud.JobStatusFailed:
			zap.L().Debug(fmt.Sprintf("Job(%s) is failed", jid))
		case cloud.JobStatusReady:
			zap.L().Debug(fmt.Sprintf("Job(%s) is ready. Not update DB", jid))
		default:
			zap.L().Error(fmt.Sprintf("Unexpected status %s", cJob.Status))
		}
		return nil
	}
	zap.L().Debug("JobsInfo Updating")

	res := cJob.JobInfo.Result
	if cJob.Status == cloud.JobStatusFailed {
		zap.L().Debug("failed/setting result to null")
		res = nil
	}

	var tr *cloud.TranspileResult
	if jd.NeedTranspiling() {
		tr = cJob.JobInfo.TranspileResult
	}
	req := &cloud.UpdateJobInfoRequest{
		OverwriteStatus: &cJob.Status,
		ExecutionTime:   cJob.ExecutionTime,
		JobInfo: &cloud.UpdateJobInfo{
			TranspileResult: tr,
			Result:          res,
			Message:         cJob.JobInfo.Message,
		},
	}
	zap.L().Debug(fmt.Sprintf(
		"UpdateJobInfoRequest/JobID:%s/Status:%s/Message:%s/TranspiledProgram:%s",
		jid, cJob.Status, jd.Result.Message, jd.TranspiledProgram))
	if err := s.client.PatchJobInfo(ctx, jid, req); err != nil {
		zap.L().Error(fmt.Sprintf("failed to update the job info of %s/reason:%s", jid, err))
		return err
	}
	zap.L().Debug(fmt.Sprintf("updated the job info of %s", jid))

	if !jd.NeedsUpdateTranspilerInfo {
		return nil
	}
	return s.putTranspilerInfo(ctx, cJob)
}

func (s *ServiceDB) Delete(jobID string) error {
	// ad hoc impl
	zap.L().Debug("[ServiceDB] Do not delete " + jobID)
	return nil
}

func (s *ServiceDB) AddToInnerJobIDSet(jobID string) {
	innerJobIDSet[jobID] = struct{}{}
}

func (s *ServiceDB) RemoveFromInnerJobIDSet(jobID string) {
	delete(innerJobIDSet, jobID)
}

func (s *ServiceDB) ExistInInnerJobIDSet(jobID string) bool {
	_, ok := innerJobIDSet[jobID]
	return ok
}

func (s *ServiceDB) putTranspilerInfo(ctx context.Context, cJob *cloud.JobDef) error {
	ti, err := cJob.TranspilerInfoMap()
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode the transpiler info of %s/reason:%s", cJob.JobID, err))
		return err
	}
	if ti == nil {
		zap.L().Error("TranspilerInfo is not set")
		return nil
	}
	zap.L().Debug(fmt.Sprintf("UpdateJobTranspilerInfoRequest/JobID:%s/TranspilerInfo:%v",
		cJob.JobID, ti))
	if err := s.client.UpdateJobTranspilerInfo(ctx, cJob.JobID, ti); err != nil {
		zap.L().Error(fmt.Sprintf("failed to update the transpiler info of %s/reason:%s", cJob.JobID, err))
		return err
	}
	zap.L().Debug(fmt.Sprintf("updated the transpiler info of %s", cJob.JobID))
	return nil
}
