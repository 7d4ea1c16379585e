package qpu

import (
	"errors"
	"fmt"

	"github.com/qonduit-team/qonduit-engine/common"
	"github.com/qonduit-team/qonduit-engine/core"
	"github.com/qonduit-team/qonduit-engine/transpiler"
	"go.uber.org/zap"
)

// circuitValidate checks a program against the device before submission.
// The program has to parse in its declared package, use only gates the
// device accepts and fit into the qubit budget of the device.
func circuitValidate(program, pkg string, ds *DeviceSetting) error {
	if program == "" {
		msg := "no input program"
		zap.L().Info(msg)
		return errors.New(msg)
	}
	w, err := parseProgram(program, pkg)
	if err != nil {
		zap.L().Info(err.Error())
		return err
	}
	if err := validateGates(w, ds.GateSupport); err != nil {
		zap.L().Info(err.Error())
		return err
	}
	di := core.GetSystemComponents().GetDeviceInfo()
	if di.Status != core.Available {
		msg := fmt.Sprintf("device is not available. status:%s", di.Status)
		zap.L().Info(msg)
		return errors.New(msg)
	}
	if err := checkResource(w, di.MaxQubits); err != nil {
		zap.L().Info(err.Error())
		return err
	}
	return nil
}

func parseProgram(program, pkg string) (transpiler.CircuitWrapper, error) {
	if pkg == "" {
		detected, err := transpiler.DetectPackage(program)
		if err != nil {
			return nil, err
		}
		pkg = string(detected)
	}
	return transpiler.Wrap(transpiler.Package(pkg), program)
}

func validateGates(w transpiler.CircuitWrapper, gs *GateSupport) error {
	if gs.AllowList.Enabled {
		if err := filterGates(w, gs.AllowList.Gates, false); err != nil {
			zap.L().Info(fmt.Sprintf("[AllowList Error] %s", err.Error()))
			return err
		}
	}
	if gs.DenyList.Enabled {
		if err := filterGates(w, gs.DenyList.Gates, true); err != nil {
			zap.L().Info(fmt.Sprintf("[DenyList Error] %s", err.Error()))
			return err
		}
	}
	return nil
}

func filterGates(w transpiler.CircuitWrapper, list []*GateType, returnIfFiltered bool) error {
	errFunc := func(gate string) error {
		return fmt.Errorf("gate:%s is not supported", gate)
	}
	gateList := []string{}
	for _, gt := range list {
		gateList = append(gateList, gt.Name)
	}
	for _, g := range w.Gates() {
		n := gateName(g)
		if returnIfFiltered {
			// DenyList
			if common.ContainsGateName(n, gateList) {
				return errFunc(n)
			}
		} else {
			// AllowList
			if !common.ContainsGateName(n, gateList) {
				return errFunc(n)
			}
		}
	}
	return nil
}

// gateName is the user-facing spelling of a gate with its controls
// folded in, so the filter lists can name cx and ccx directly.
func gateName(g transpiler.GateWrapper) string {
	n := g.Kind().String()
	for i := 0; i < g.Controls(); i++ {
		n = "c" + n
	}
	return n
}

func checkResource(w transpiler.CircuitWrapper, qubitNumber int) error {
	if w.NumQubits() > qubitNumber {
		return fmt.Errorf("too many qubits in your circuit. we only have %d qubits", qubitNumber)
	}
	return nil
}
