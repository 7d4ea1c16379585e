package core

import (
	"errors"

	"go.uber.org/dig"
)

const MockMaxQubits int = 10
const MockMaxShots int = 10000
const validateErrorMessage string = `line 1:1 expected OPENQASM header, got "dummy_string"`

type UnimplementedJob struct {
	jobData    *JobData
	jobContext *JobContext
}

func (j *UnimplementedJob) New(jd *JobData, jc *JobContext) Job {
	return &UnimplementedJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *UnimplementedJob) PreProcess() {
	return
}

func (j *UnimplementedJob) Process() {
	return
}

func (j *UnimplementedJob) PostProcess() {
	return
}

func (j *UnimplementedJob) IsFinished() bool {
	return j.JobData().Status == SUCCEEDED || j.JobData().Status == FAILED
}

func (j *UnimplementedJob) JobData() *JobData {
	return j.jobData
}

func (j *UnimplementedJob) JobType() string {
	return j.jobData.JobType
}

func (j *UnimplementedJob) JobContext() *JobContext {
	return j.jobContext
}

func (j *UnimplementedJob) Clone() Job {
	cloned := &UnimplementedJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
	}
	return cloned
}

type UnimplementedQPU struct{}

func (u *UnimplementedQPU) Setup(*Conf) error {
	return nil
}

func (u *UnimplementedQPU) Send(Job) error {
	return nil
}

func (u *UnimplementedQPU) Validate(string, string) error {
	return nil
}

func (u *UnimplementedQPU) GetDeviceInfo() *DeviceInfo {
	return &DeviceInfo{
		MaxQubits:     MockMaxQubits,
		MaxShots:      MockMaxShots,
		DeviceName:    "unimplementedQPU",
		NativePackage: "qasm3",
	}
}

type validateErrorQPUForTest struct {
	UnimplementedQPU
}

func (validateErrorQPUForTest) Validate(string, string) error {
	return errors.New(validateErrorMessage)
}

type successQPUForTest struct {
	UnimplementedQPU
}

func (successQPUForTest) Send(j Job) error {
	// TODO: fix this SRP violation
	j.JobData().Status = SUCCEEDED
	return nil
}

type unimplementedDB struct {
	innerJobIDSet map[string]struct{}
}

func (u *unimplementedDB) Setup(DBChan, *Conf) error {
	u.innerJobIDSet = make(map[string]struct{})
	return nil
}
func (u *unimplementedDB) Insert(Job) error { return nil }
func (u *unimplementedDB) Get(JobID string) (Job, error) {
	return &NormalJob{}, nil
}
func (u *unimplementedDB) Update(Job) error    { return nil }
func (u *unimplementedDB) Delete(string) error { return nil }
func (u *unimplementedDB) AddToInnerJobIDSet(jobID string) {
	u.innerJobIDSet[jobID] = struct{}{}
}
func (u *unimplementedDB) RemoveFromInnerJobIDSet(jobID string) {
	delete(u.innerJobIDSet, jobID)
}
func (u *unimplementedDB) ExistInInnerJobIDSet(jobID string) bool {
	_, ok := u.innerJobIDSet[jobID]
	return ok
}

type successDBForTest struct {
	unimplementedDB
}

func (successDBForTest) Get(jobID string) (Job, error) {
	return &NormalJob{
		jobData: &JobData{
			ID:     jobID,
			Status: RUNNING,
		},
	}, nil
}

type notFindDBForTest struct {
	unimplementedDB
}

func (notFindDBForTest) Get(jobID string) (Job, error) {
	return &NormalJob{}, errors.New("failed to find " + jobID)
}

type successTranspilerForTest struct{}

func (successTranspilerForTest) IsAcceptableTargetPackage(string) bool {
	return true
}

func (successTranspilerForTest) Setup(*Conf) error   { return nil }
func (successTranspilerForTest) GetHealth() error    { return nil }
func (successTranspilerForTest) Transpile(Job) error { return nil }
func (successTranspilerForTest) TearDown()           {}

type unimplementedScheduler struct{}

func (u *unimplementedScheduler) Setup(*Conf) error           { return nil }
func (u *unimplementedScheduler) Start() error                { return nil }
func (u *unimplementedScheduler) HandleJob(_ Job)             { return }
func (u *unimplementedScheduler) GetCurrentQueueSize() int    { return 0 }
func (u *unimplementedScheduler) IsOverRefillThreshold() bool { return false }

type unimplementedAPIRouter struct{}

func (u *unimplementedAPIRouter) Setup(container *dig.Container) error { return nil }
func (u *unimplementedAPIRouter) TearDown()                            {}

func SCWithUnimplementedContainer() *SystemComponents {
	c := dig.New()
	c.Provide(func() QPUManager { return &successQPUForTest{} })
	c.Provide(func() Transpiler { return &successTranspilerForTest{} })
	c.Provide(func() DBManager {
		db := &successDBForTest{}
		db.Setup(nil, &Conf{})
		return db
	})
	c.Provide(func() Scheduler { return &unimplementedScheduler{} })
	c.Provide(func() APIRouter { return &unimplementedAPIRouter{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{})
	return s
}

func SCWithValidateErrorContainer() *SystemComponents {
	c := dig.New()
	c.Provide(func() QPUManager { return &validateErrorQPUForTest{} })
	c.Provide(func() Transpiler { return &successTranspilerForTest{} })
	c.Provide(func() DBManager {
		db := &successDBForTest{}
		db.Setup(nil, &Conf{})
		return db
	})
	c.Provide(func() Scheduler { return &unimplementedScheduler{} })
	c.Provide(func() APIRouter { return &unimplementedAPIRouter{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{})
	return s
}

func SCWithDBContainer() *SystemComponents {
	c := dig.New()
	c.Provide(func() QPUManager { return &successQPUForTest{} })
	c.Provide(func() DBManager { return &MemoryDB{} })
	c.Provide(func() Transpiler { return &successTranspilerForTest{} })
	c.Provide(func() Scheduler { return &unimplementedScheduler{} })
	c.Provide(func() APIRouter { return &unimplementedAPIRouter{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{})
	return s
}

func SCWithTranspiler(tr Transpiler) *SystemComponents {
	c := dig.New()
	c.Provide(func() QPUManager { return &successQPUForTest{} })
	c.Provide(func() DBManager { return &MemoryDB{} })
	c.Provide(func() Transpiler { return tr })
	c.Provide(func() Scheduler { return &unimplementedScheduler{} })
	c.Provide(func() APIRouter { return &unimplementedAPIRouter{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{})
	return s
}

func SCWithScheduler(sc Scheduler) *SystemComponents {
	c := dig.New()
	c.Provide(func() QPUManager { return &successQPUForTest{} })
	c.Provide(func() DBManager { return &MemoryDB{} })
	c.Provide(func() Transpiler { return &successTranspilerForTest{} })
	c.Provide(func() Scheduler { return sc })
	c.Provide(func() APIRouter { return &unimplementedAPIRouter{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{QueueMaxSize: 1000})
	return s
}
