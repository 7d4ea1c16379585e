package conversion

import (
	"encoding/json"
	"fmt"

	"github.com/qonduit-team/qonduit-engine/core"
	"github.com/qonduit-team/qonduit-engine/transpiler"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	CONVERSION_JOB         = "conversion"
	CONVERSION_SETTING_KEY = "conversion"

	DEFAULT_TARGET = "qasm3"
)

type ConversionSetting struct {
	Target string `toml:"target"`
}

func NewConversionSetting() ConversionSetting {
	return ConversionSetting{
		Target: DEFAULT_TARGET,
	}
}

// ConversionJob converts a program to every requested target package
// without touching a QPU. The targets come from the job Info JSON and
// fall back to the configured default target.
type ConversionJob struct {
	setting    ConversionSetting
	jobData    *core.JobData
	jobContext *core.JobContext

	targets []string
	wrapped transpiler.CircuitWrapper
}

func (j *ConversionJob) New(jd *core.JobData, jc *core.JobContext) core.Job {
	var setting ConversionSetting
	s, ok := core.GetComponentSetting(CONVERSION_SETTING_KEY)
	if !ok {
		zap.L().Debug("conversion setting is not found")
		setting = NewConversionSetting()
	} else {
		// TODO: fix this long adhoc
		mapped, ok := s.(map[string]interface{})
		if !ok {
			zap.L().Debug("conversion setting is not set")
			setting = NewConversionSetting()
		} else {
			setting = NewConversionSetting()
			t, ok := mapped["target"].(string)
			if ok {
				setting.Target = t
			}
		}
	}
	return &ConversionJob{
		setting:    setting,
		jobData:    jd,
		jobContext: jc,
		targets:    make([]string, 0),
	}
}

func (j *ConversionJob) PreProcess() {
	if err := j.preProcessImpl(); err != nil {
		zap.L().Error(fmt.Sprintf("failed to pre-process a job(%s). Reason:%s",
			j.JobData().ID, err.Error()))
		core.SetFailureWithError(j, err)
		return
	}
	return
}

func (j *ConversionJob) preProcessImpl() (err error) {
	err = nil
	jd := j.JobData()
	container := core.GetSystemComponents().Container
	err = container.Invoke(
		func(d core.DBManager) error {
			if d.ExistInInnerJobIDSet(jd.ID) {
				return core.ErrorJobIDConflict
			}
			return nil
		})
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to check the existence of a job(%s). Reason:%s",
			jd.ID, err.Error()))
		return
	}

	targets, err := parseTargets(jd.Info)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse targets from :%s/reason:%s",
			jd.Info, err.Error()))
		return
	}
	if len(targets) == 0 {
		zap.L().Debug(fmt.Sprintf("no targets in job(%s). use default target:%s",
			jd.ID, j.setting.Target))
		targets = []string{j.setting.Target}
	}
	err = container.Invoke(
		func(t core.Transpiler) error {
			for _, target := range targets {
				if !t.IsAcceptableTargetPackage(target) {
					return fmt.Errorf("target package %s is not acceptable", target)
				}
			}
			return nil
		})
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to validate targets of a job(%s). Reason:%s",
			jd.ID, err.Error()))
		return
	}
	j.targets = targets

	pkg := transpiler.Package(jd.ProgramPackage)
	if jd.ProgramPackage == "" {
		pkg, err = transpiler.DetectPackage(jd.Program)
		if err != nil {
			zap.L().Error(fmt.Sprintf("failed to detect the package of a job(%s). Reason:%s",
				jd.ID, err.Error()))
			return
		}
		jd.ProgramPackage = string(pkg)
	}
	wrapped, err := transpiler.Wrap(pkg, jd.Program)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse the program of a job(%s). Reason:%s",
			jd.ID, err.Error()))
		return
	}
	j.wrapped = wrapped

	_ = container.Invoke(
		func(d core.DBManager) error {
			d.AddToInnerJobIDSet(jd.ID)
			return nil
		})
	return
}

func (j *ConversionJob) Process() {
	jd := j.JobData()
	converted := make(core.ConvertedPrograms)
	// every target is attempted before the job is marked failed
	var cerr error
	for _, target := range j.targets {
		out, err := j.wrapped.Transpile(transpiler.Package(target))
		if err != nil {
			zap.L().Error(fmt.Sprintf("failed to convert a job(%s) to %s. Reason:%s",
				jd.ID, target, err.Error()))
			cerr = multierr.Append(cerr, err)
			continue
		}
		converted[target] = out.Text()
	}
	if cerr != nil {
		core.SetFailureWithError(j, cerr)
		return
	}
	jd.Result.ConvertedPrograms = converted

	stats := transpiler.NewCircuitStats(j.wrapped)
	statsRaw, err := json.Marshal(stats)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to marshal the stats of a job(%s). Reason:%s",
			jd.ID, err.Error()))
		core.SetFailureWithError(j, err)
		return
	}
	jd.Result.TranspilerInfo = &core.TranspilerInfo{
		StatsRaw: core.StatsRaw(statsRaw),
	}
	jd.Status = core.SUCCEEDED
	zap.L().Debug(fmt.Sprintf("finished to convert a job(%s) to %v", jd.ID, j.targets))
}

func (j *ConversionJob) PostProcess() {
	return
}

func (j *ConversionJob) IsFinished() bool {
	return j.JobData().Status == core.SUCCEEDED || j.JobData().Status == core.FAILED
}

func (j *ConversionJob) JobData() *core.JobData {
	return j.jobData
}

func (j *ConversionJob) JobType() string {
	return CONVERSION_JOB
}

func (j *ConversionJob) JobContext() *core.JobContext {
	return j.jobContext
}

func (j *ConversionJob) UpdateJobData(jd *core.JobData) {
	j.jobData = jd
}

func (j *ConversionJob) Clone() core.Job {
	cloned := &ConversionJob{
		setting:    j.setting,
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
	}
	return cloned
}

func parseTargets(jinfo string) ([]string, error) {
	if jinfo == "" {
		return nil, nil
	}
	info := struct {
		Targets []string `json:"targets"`
	}{}
	if err := json.Unmarshal([]byte(jinfo), &info); err != nil {
		return nil, err
	}
	return info.Targets, nil
}
