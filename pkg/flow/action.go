package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ActionType is the recognized action_type discriminator (spec §3).
type ActionType string

const (
	ActionOutput   ActionType = "output"
	ActionSetVLAN  ActionType = "set_vlan"
	ActionPushVLAN ActionType = "push_vlan"
	ActionPopVLAN  ActionType = "pop_vlan"
)

// PortValue is an action's output port: either an integer port number or
// the literal "controller".
type PortValue struct {
	Controller bool
	Number     uint32
}

// ControllerPort is the sentinel PortValue for the literal "controller".
func ControllerPort() PortValue { return PortValue{Controller: true} }

// Port wraps a concrete port number.
func Port(n uint32) PortValue { return PortValue{Number: n} }

// MarshalJSON renders the controller literal or the bare port number.
func (p PortValue) MarshalJSON() ([]byte, error) {
	if p.Controller {
		return json.Marshal("controller")
	}
	return json.Marshal(p.Number)
}

// UnmarshalJSON accepts either a JSON number or the string "controller".
func (p *PortValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s != "controller" {
			return fmt.Errorf("flow: unrecognized port literal %q", s)
		}
		*p = PortValue{Controller: true}
		return nil
	}
	var n uint32
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*p = PortValue{Number: n}
	return nil
}

// Action is one ordered step of a flow's action list.
type Action struct {
	ActionType ActionType `json:"action_type"`
	Port       *PortValue `json:"port,omitempty"`
	VlanID     *uint16    `json:"vlan_id,omitempty"`
	TagType    string     `json:"tag_type,omitempty"` // "s" or "c"
}
