package transpiler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/qonduit-team/qonduit-engine/core"
	"go.uber.org/zap"
)

const TRANSPILER_SETTING_KEY = "transpiler"

type EngineSetting struct {
	DefaultTarget string `toml:"default_target"`
	Strict        bool   `toml:"strict"`
}

func NewEngineSetting() EngineSetting {
	return EngineSetting{
		DefaultTarget: string(QASM3),
		Strict:        false,
	}
}

// Engine is the in-process transpiler component. It runs the conversion
// core against the job's program and target package and fills the
// transpile result on the job data.
type Engine struct {
	setting  EngineSetting
	registry *Registry
}

func (e *Engine) Setup(_ *core.Conf) error {
	s, ok := core.GetComponentSetting(TRANSPILER_SETTING_KEY)
	if !ok {
		zap.L().Debug("transpiler setting is not found. use default")
		e.setting = NewEngineSetting()
	} else {
		zap.L().Debug(fmt.Sprintf("transpiler setting:%v", s))
		// TODO: fix this adhoc
		mapped, ok := s.(map[string]interface{})
		if !ok {
			e.setting = NewEngineSetting()
		} else {
			e.setting = NewEngineSetting()
			if dt, ok := mapped["default_target"].(string); ok {
				e.setting.DefaultTarget = dt
			}
			if st, ok := mapped["strict"].(bool); ok {
				e.setting.Strict = st
			}
		}
	}
	if e.registry == nil {
		e.registry = Default()
	}
	if _, ok := e.registry.Lookup(Package(e.setting.DefaultTarget)); !ok {
		return fmt.Errorf("default target package %s is not supported", e.setting.DefaultTarget)
	}
	if err := initMetrics(); err != nil {
		zap.L().Error(fmt.Sprintf("failed to initialize transpile metrics/reason:%s", err))
	}
	zap.L().Debug(fmt.Sprintf("transpile engine is ready/default target:%s/strict:%t",
		e.setting.DefaultTarget, e.setting.Strict))
	return nil
}

func (e *Engine) IsAcceptableTargetPackage(pkg string) bool {
	_, ok := e.registryOrDefault().Lookup(Package(pkg))
	return ok
}

func (e *Engine) GetHealth() error {
	if len(e.registryOrDefault().Supported()) == 0 {
		return fmt.Errorf("no package is registered")
	}
	return nil
}

func (e *Engine) Transpile(j core.Job) error {
	jd := j.JobData()
	target := e.setting.DefaultTarget
	if target == "" {
		target = string(QASM3)
	}
	if jd.Transpiler != nil && jd.Transpiler.TargetPackage != nil {
		target = *jd.Transpiler.TargetPackage
	}
	ctx, span := startTranspileSpan(context.Background(), jd.ID, jd.ProgramPackage, target)
	defer span.End()

	begin := time.Now()
	err := e.transpileImpl(jd, Package(target))
	recordTranspileMetrics(ctx, time.Since(begin), jd.ProgramPackage, target, err == nil)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to transpile a job(%s). Reason:%s", jd.ID, err))
		return err
	}
	return nil
}

func (e *Engine) transpileImpl(jd *core.JobData, target Package) error {
	reg := e.registryOrDefault()
	if jd.ProgramPackage == "" {
		if e.setting.Strict {
			return fmt.Errorf("program package of job(%s) is not set", jd.ID)
		}
		pkg, err := DetectPackage(jd.Program)
		if err != nil {
			return err
		}
		zap.L().Debug(fmt.Sprintf("detected package:%s for job(%s)", pkg, jd.ID))
		jd.ProgramPackage = string(pkg)
	}
	w, err := reg.Wrap(Package(jd.ProgramPackage), jd.Program)
	if err != nil {
		return err
	}
	out, err := w.Transpile(target)
	if err != nil {
		return err
	}
	jd.TranspiledProgram = out.Text()

	stats := NewCircuitStats(w)
	statsRaw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	mapping := make(core.QubitMappingMap)
	for _, q := range w.Qubits() {
		mapping[uint32(q)] = uint32(q)
	}
	mappingRaw, err := mapping.ToRaw()
	if err != nil {
		return err
	}
	jd.Result.TranspilerInfo = &core.TranspilerInfo{
		StatsRaw:        core.StatsRaw(statsRaw),
		QubitMappingRaw: mappingRaw,
		QubitMappingMap: mapping,
	}
	zap.L().Debug(fmt.Sprintf("transpiled a job(%s) from %s to %s", jd.ID, jd.ProgramPackage, target))
	return nil
}

func (e *Engine) TearDown() {
}

func (e *Engine) registryOrDefault() *Registry {
	if e.registry == nil {
		return Default()
	}
	return e.registry
}

// CircuitStats summarizes a wrapped circuit for the transpile result.
type CircuitStats struct {
	Qubits int      `json:"qubits"`
	Clbits int      `json:"clbits"`
	Depth  int      `json:"depth"`
	Gates  int      `json:"gates"`
	Params []string `json:"params"`
}

func NewCircuitStats(w CircuitWrapper) CircuitStats {
	return CircuitStats{
		Qubits: w.NumQubits(),
		Clbits: w.NumClbits(),
		Depth:  w.Depth(),
		Gates:  len(w.Gates()),
		Params: w.ParamNames(),
	}
}
