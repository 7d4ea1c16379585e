//go:build unit
// +build unit

package core

import (
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/stretchr/testify/assert"
)

type TestSettingTranspiler struct {
	DefaultTarget string `toml:"default_target"`
}

type TestSettingDevice struct {
	DeviceNames []string `toml:"device_names"`
}

func TestRegisterSettings(t *testing.T) {
	s := registeredSettings()
	assert.Equal(t, 2, len(s.ComponentSetting))
}

func TestParseSettings(t *testing.T) {
	ResetSetting()
	tests := []struct {
		name      string
		in        string
		wantError error
		want      *Setting
	}{
		{
			name:      "empty",
			in:        "",
			wantError: nil,
			want: &Setting{
				ComponentSetting: map[string]interface{}{},
				RunGroupSetting:  map[string]interface{}{},
			},
		},
		{
			name: "component table",
			in: heredoc.Doc(`
				[com.transpiler]
				default_target = "qasm3"
			`),
			wantError: nil,
			want: &Setting{
				ComponentSetting: map[string]interface{}{
					"transpiler": map[string]interface{}{
						"default_target": "qasm3",
					},
				},
				RunGroupSetting: map[string]interface{}{},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotError := globalSetting.parseSetting(tt.in)
			assert.Equal(t, tt.wantError, gotError)
			assert.Equal(t, tt.want, globalSetting)
		})
	}
}

func registeredSettings() *Setting {
	ns := newSetting()
	ns.registerSetting("transpiler", &TestSettingTranspiler{
		DefaultTarget: "qasm3",
	})
	ns.registerSetting("device", &TestSettingDevice{
		DeviceNames: []string{},
	})
	return ns
}
