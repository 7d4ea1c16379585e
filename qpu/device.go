package qpu

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/qonduit-team/qonduit-engine/common"
	"go.uber.org/zap"
)

// DeviceSetting describes one device: where it is reachable, the package
// it natively executes and the gates it accepts. The max values only seed
// the device info until the first poll answers.
type DeviceSetting struct {
	DeviceName    string       `toml:"device_name"`
	DeviceType    string       `toml:"device_type"`
	ProviderName  string       `toml:"provider_name"`
	NativePackage string       `toml:"native_package"`
	MaxQubits     int          `toml:"max_qubits"`
	MaxShots      int          `toml:"max_shots"`
	GateSupport   *GateSupport `toml:"gate_support"`
	MachineHost   string       `toml:"machine_host"`
	MachinePort   string       `toml:"machine_port"`
	PollingPeriod uint32       `toml:"polling_period"`
}

type GateSupport struct {
	AllowList *GateFilter `toml:"allow_list"`
	DenyList  *GateFilter `toml:"deny_list"`
}

func LoadDeviceSetting(path string) (*DeviceSetting, error) {
	blob, assetErr := common.ReadFile(path)
	ds := NewDeviceSetting()
	if assetErr != nil {
		zap.L().Info(fmt.Sprintf("Failed to read file:%s Reason:%s", path, assetErr))
		return ds, nil
	}
	if _, err := toml.Decode(blob, ds); err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode blob:%s", blob))
		return &DeviceSetting{}, err
	}
	return ds, nil
}

func NewDeviceSetting() *DeviceSetting {
	return &DeviceSetting{
		NativePackage: "qasm3",
		GateSupport:   NewGateSupport(),
		MachineHost:   "localhost",
		MachinePort:   "8280",
		PollingPeriod: 60,
	}
}

func NewGateSupport() *GateSupport {
	return &GateSupport{
		AllowList: &GateFilter{},
		DenyList:  &GateFilter{},
	}
}

func NewGateSupportWithAllowList(g *GateFilter) *GateSupport {
	return &GateSupport{
		AllowList: g,
		DenyList:  &GateFilter{},
	}
}

func NewGateSupportWithDenyList(g *GateFilter) *GateSupport {
	return &GateSupport{
		AllowList: &GateFilter{},
		DenyList:  g,
	}
}

type GateFilter struct {
	Enabled bool
	Gates   []*GateType `toml:"gates"`
}

type GateType struct {
	Name string `toml:"name"`
}
