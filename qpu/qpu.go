package qpu

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/qonduit-team/qonduit-engine/core"

	"go.uber.org/zap"
)

const successPropability float32 = 0.9

var source rand.Source = rand.NewSource(time.Now().UnixNano())
var randGenerator *rand.Rand = rand.New(source)

const DummyDeviceName = "DummyQPU"
const DummyProviderName = "DummyProvider"

// DummyQPU is the development device. It accepts any job and answers
// with a canned histogram, succeeding with a fixed probability.
type DummyQPU struct {
	deviceSetting *DeviceSetting

	EnableDummyQPUTimeInsertion bool
	DummyQPUTime                int
}

func (d *DummyQPU) Setup(conf *core.Conf) error {
	zap.L().Debug("setting up Dummy-QPU")
	d.deviceSetting = NewDeviceSetting()
	d.EnableDummyQPUTimeInsertion = conf.EnableDummyQPUTimeInsertion
	d.DummyQPUTime = conf.DummyQPUTime
	return nil
}

func (d *DummyQPU) Send(inputJob core.Job) error {
	outputJobData := core.CloneJobData(inputJob.JobData())

	zap.L().Info("[Dummy] starting QPU execution")
	if d.EnableDummyQPUTimeInsertion {
		zap.L().Debug(fmt.Sprintf("[Dummy] waiting %d seconds for QPU execution", d.DummyQPUTime))
		<-time.After(time.Duration(d.DummyQPUTime) * time.Second)
	} else {
		zap.L().Debug("[Dummy] no waiting for QPU execution")
	}
	zap.L().Info("[Dummy] finished QPU execution")
	if successOrFailure() {
		outputJobData.Status = core.SUCCEEDED
		outputJobData.Result.Counts = dummyCounts(outputJobData.Shots)
		outputJobData.Result.Message = "dummy success result"
	} else {
		outputJobData.Status = core.FAILED
		outputJobData.Result.Message = "dummy failure result"
	}
	outputJobData.Ended = strfmt.DateTime(time.Now())
	jm := core.GetJobManager()
	job, err := jm.NewJobFromJobData(outputJobData, inputJob.JobContext())
	if err != nil {
		return err
	}
	job.JobContext().DBChan <- job
	return nil
}

func (d *DummyQPU) Validate(program, pkg string) error {
	return circuitValidate(program, pkg, d.deviceSetting)
}

func (d *DummyQPU) GetDeviceInfo() *core.DeviceInfo {
	return &core.DeviceInfo{
		DeviceName:    DummyDeviceName,
		ProviderName:  DummyProviderName,
		Type:          "DummyQPU",
		Status:        core.Available,
		MaxQubits:     10000,
		MaxShots:      10000,
		NativePackage: d.deviceSetting.NativePackage,
	}
}

func successOrFailure() bool {
	return randGenerator.Intn(100) < int(100*successPropability)
}

// dummyCounts is a bell-pair shaped histogram: the shots split between
// the all-zeros and all-ones outcomes with a little jitter.
func dummyCounts(shots int) core.Counts {
	if shots <= 0 {
		return core.Counts{}
	}
	jitter := 0
	if w := shots / 10; w > 0 {
		jitter = randGenerator.Intn(2*w+1) - w
	}
	zeros := shots/2 + jitter
	if zeros < 0 {
		zeros = 0
	}
	if zeros > shots {
		zeros = shots
	}
	return core.Counts{"00": uint32(zeros), "11": uint32(shots - zeros)}
}

// RemoteQPU submits jobs to a real device endpoint over HTTP and keeps
// the device info fresh by polling.
type RemoteQPU struct {
	client            DeviceClient
	deviceSetting     *DeviceSetting
	connected         bool
	currentDeviceInfo *core.DeviceInfo
}

func (q *RemoteQPU) Setup(conf *core.Conf) error {
	zap.L().Debug("Setting up Remote QPU")
	ds, err := LoadDeviceSetting(conf.DeviceSettingPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to load a device setting. Reason:%s", err))
		return err
	}
	if ds.DeviceName == "" {
		return errors.New("device name is not set")
	}
	q.client = NewDeviceClient(ds, conf)
	if err := q.client.Setup(); err != nil {
		zap.L().Error(fmt.Sprintf("failed to setup Remote QPU/reason:%s", err))
		return err
	}
	q.deviceSetting = ds
	q.connected = false
	// seed from the setting until the first poll answers
	q.currentDeviceInfo = &core.DeviceInfo{
		DeviceName:    ds.DeviceName,
		ProviderName:  ds.ProviderName,
		Type:          ds.DeviceType,
		Status:        core.Unavailable,
		MaxQubits:     ds.MaxQubits,
		MaxShots:      ds.MaxShots,
		NativePackage: ds.NativePackage,
	}
	if !conf.DisableStartDevicePolling {
		q.startDevicePolling()
	}
	return nil
}

func (q *RemoteQPU) Validate(program, pkg string) error {
	return circuitValidate(program, pkg, q.deviceSetting)
}

func (q *RemoteQPU) Send(j core.Job) error {
	jd := j.JobData()
	zap.L().Info("Starting Remote QPU execution of Job ID:" + jd.ID)

	if !q.GetConnected() {
		err := errors.New("Remote QPU is not connected")
		msg := core.SetFailureWithError(j, err)
		zap.L().Info(msg)
		return err
	}
	program, pkg := programToBeSent(jd)
	if err := q.Validate(program, pkg); err != nil {
		msg := core.SetFailureWithError(j, err)
		zap.L().Info(msg)
		return err
	}
	zap.L().Debug(fmt.Sprintf("Job ID:%s is processing", jd.ID))
	if err := q.client.CallJob(j); err != nil {
		zap.L().Error(fmt.Sprintf("failed to call the job(%s) in %s. Reason:%s",
			jd.ID, q.client.GetAddress(), err))
		msg := core.SetFailureWithError(j, err)
		zap.L().Info(msg)
		return err
	}
	zap.L().Debug(fmt.Sprintf("Job ID:%s is processed/status: %s", jd.ID, jd.Status))
	jd.Ended = strfmt.DateTime(time.Now())
	return nil
}

func (q *RemoteQPU) GetDeviceInfo() *core.DeviceInfo {
	return q.currentDeviceInfo
}

func (q *RemoteQPU) GetConnected() bool {
	return q.connected
}

func (q *RemoteQPU) startDevicePolling() {
	go func() {
		t := time.NewTicker(time.Duration(q.deviceSetting.PollingPeriod) * time.Second)
		zap.L().Debug("Starting Device Polling")
		q.startCleanUpGoroutine(t)
		for {
			di, err := q.client.CallDeviceInfo()
			if err != nil {
				zap.L().Error(fmt.Sprintf("Failed to call device info. Reason:%s", err))
				q.currentDeviceInfo = &core.DeviceInfo{Status: core.Unavailable}
				q.connected = false
			} else {
				q.currentDeviceInfo = di
				q.connected = true
			}
			zap.L().Debug(fmt.Sprintf(
				"Waiting %d seconds for the next device polling to %s",
				q.deviceSetting.PollingPeriod, q.client.GetAddress()))
			<-t.C
		}
	}()
}

// TODO use run Group
func (q *RemoteQPU) startCleanUpGoroutine(t *time.Ticker) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		t.Stop()
		q.client.Close()
	}()
}

// programToBeSent picks the transpiled program when one exists. The
// transpiled text is in the transpile target package, the original text
// in the declared one.
func programToBeSent(jd *core.JobData) (program, pkg string) {
	if jd.TranspiledProgram == "" {
		return jd.Program, jd.ProgramPackage
	}
	pkg = ""
	if jd.Transpiler != nil && jd.Transpiler.TargetPackage != nil {
		pkg = *jd.Transpiler.TargetPackage
	}
	return jd.TranspiledProgram, pkg
}
