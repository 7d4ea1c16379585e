package poller

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"

	"github.com/qonduit-team/qonduit-engine/cloud"
	"github.com/qonduit-team/qonduit-engine/core"
)

type cloudPollClient struct {
	client *cloud.Client

	count      int
	endpoint   string
	deviceName string // TODO device id
}

type cloudPollClientParams struct {
	cred       aws.Credentials
	region     string
	count      int
	endPoint   string
	deviceName string

	apiKey string
}

func newCloudPollClient(p *cloudPollClientParams) (*cloudPollClient, error) {
	cli, err := cloud.NewClient(p.endPoint, p.apiKey)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to create a client/reason:%s", err))
		return nil, err
	}
	return &cloudPollClient{
		client:     cli,
		count:      p.count,
		endpoint:   p.endPoint,
		deviceName: p.deviceName,
	}, nil
}

func (c *cloudPollClient) request() ([]core.Job, error) {
	zap.L().Debug(fmt.Sprintf("requesting get jobs to %s. DeviceName: %s",
		c.endpoint, c.deviceName))
	jobDefs, err := c.client.GetJobs(context.TODO(), c.deviceName, cloud.JobStatusSubmitted, c.count)
	if err != nil {
		return []core.Job{}, fmt.Errorf("failed to get jobs/reason:%s", err)
	}
	return toJobSlice(jobDefs)
}

// toJobSlice builds engine jobs out of cloud job documents. A job that
// fails validation still comes back, as an UnknownJob already marked
// failed, so the scheduler reports it instead of silently dropping it.
func toJobSlice(jobDefs []cloud.JobDef) ([]core.Job, error) {
	jobs := []core.Job{}
	jm := core.GetJobManager()
	for i := range jobDefs {
		jd := cloud.ConvertFromCloudJob(&jobDefs[i])
		jc, err := core.NewJobContext()
		if err != nil {
			zap.L().Error(fmt.Sprintf("Failed to create a job context. Reason:%s", err))
			return []core.Job{}, err
		}
		newJob, err := jm.NewJobFromJobDataWithValidation(jd, jc)
		if err != nil {
			msg := core.SetFailureWithErrorToJobData(jd, err)
			zap.L().Error(fmt.Sprintf("Failed to validate a job. Reason:%s", msg))
			newJob = (&core.UnknownJob{}).New(jd, jc)
		} else {
			zap.L().Debug(fmt.Sprintf("Created a job. Job ID:%s created:%s, status:%s, transpiler:%v",
				jd.ID, jd.Created, jd.Status, jd.Transpiler))
		}
		jobs = append(jobs, newJob)
	}
	return jobs, nil
}
