// Package ionq is the native object model for IonQ JSON circuits in the
// qis gateset. Qubits are flat indices, controlled gates carry control
// or controls fields and there is no measurement; every qubit is read
// out implicitly.
package ionq

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/go-faster/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Circuit struct {
	Format  string `json:"format,omitempty"`
	Gateset string `json:"gateset,omitempty"`
	Name    string `json:"name,omitempty"`
	Qubits  int    `json:"qubits"`
	Circuit []Gate `json:"circuit"`
}

// Gate is one circuit entry. Exactly one of Target and Targets is set;
// Control and Controls are optional and exclusive. Rotation is present
// for the rotation gates only.
type Gate struct {
	Gate     string   `json:"gate"`
	Target   *int     `json:"target,omitempty"`
	Targets  []int    `json:"targets,omitempty"`
	Control  *int     `json:"control,omitempty"`
	Controls []int    `json:"controls,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// AllTargets returns the target qubits whichever field carries them.
func (g *Gate) AllTargets() []int {
	if g.Target != nil {
		return []int{*g.Target}
	}
	return g.Targets
}

// AllControls returns the control qubits whichever field carries them.
func (g *Gate) AllControls() []int {
	if g.Control != nil {
		return []int{*g.Control}
	}
	return g.Controls
}

func NewCircuit(qubits int) *Circuit {
	return &Circuit{
		Format:  "ionq.circuit.v0",
		Gateset: "qis",
		Qubits:  qubits,
	}
}

func (c *Circuit) Add(g Gate) {
	c.Circuit = append(c.Circuit, g)
}

// Decode unmarshals and validates an IonQ circuit document.
func Decode(data []byte) (*Circuit, error) {
	var c Circuit
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "failed to decode IonQ circuit")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Encode marshals the circuit to compact JSON.
func (c *Circuit) Encode() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode IonQ circuit")
	}
	return data, nil
}

// Validate checks the structural shape of the document: qubit count,
// target and control field exclusivity and index ranges. Gate name
// semantics are left to the caller.
func (c *Circuit) Validate() error {
	if c.Qubits < 1 {
		return errors.Errorf("circuit needs at least one qubit, got %d", c.Qubits)
	}
	for i, g := range c.Circuit {
		if g.Gate == "" {
			return errors.Errorf("gate %d: missing gate name", i)
		}
		if g.Target != nil && len(g.Targets) > 0 {
			return errors.Errorf("gate %d (%s): both target and targets set", i, g.Gate)
		}
		targets := g.AllTargets()
		if len(targets) == 0 {
			return errors.Errorf("gate %d (%s): no target qubit", i, g.Gate)
		}
		if g.Control != nil && len(g.Controls) > 0 {
			return errors.Errorf("gate %d (%s): both control and controls set", i, g.Gate)
		}
		seen := map[int]bool{}
		for _, q := range targets {
			if q < 0 || q >= c.Qubits {
				return errors.Errorf("gate %d (%s): target %d out of range [0,%d)", i, g.Gate, q, c.Qubits)
			}
			if seen[q] {
				return errors.Errorf("gate %d (%s): duplicate qubit %d", i, g.Gate, q)
			}
			seen[q] = true
		}
		for _, q := range g.AllControls() {
			if q < 0 || q >= c.Qubits {
				return errors.Errorf("gate %d (%s): control %d out of range [0,%d)", i, g.Gate, q, c.Qubits)
			}
			if seen[q] {
				return errors.Errorf("gate %d (%s): duplicate qubit %d", i, g.Gate, q)
			}
			seen[q] = true
		}
	}
	return nil
}
