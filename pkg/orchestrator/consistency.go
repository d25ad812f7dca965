package orchestrator

import (
	"flowmanager/pkg/flow"
	"flowmanager/pkg/intent"
	"flowmanager/pkg/match"
	"flowmanager/pkg/ofswitch"

	"go.uber.org/zap"
)

// ignored reports whether a flow's cookie or table_id falls inside a
// configured ignore range (spec §4.F.4): such flows are excluded from
// both consistency passes entirely.
func (c *Controller) ignored(d flow.Description) bool {
	if match.AnyContains(c.cookieIgnore, int64(d.CookieValue())) {
		return true
	}
	if match.AnyContains(c.tableIgnore, int64(d.TableIDValue())) {
		return true
	}
	return false
}

// storehousePass implements spec §4.F.4's storehouse pass: for every
// flow installed on the switch, if it falls in an ignore-range it is
// skipped; if the DPID is unknown to intent, or no stored add entry
// matches it under match.Flow's non-strict semantics for the switch's
// version, the switch holds a flow we never asked for and it is
// strictly deleted. Exact equality with a stored entry is not checked:
// a live flow that some stored add entry non-strictly matches is kept.
func (c *Controller) storehousePass(sw *ofswitch.Switch) {
	version := sw.Connection.Protocol.Version

	c.mu.Lock()
	si, known := c.stored[sw.DPID]
	var intended []flow.Description
	if known {
		for _, e := range si.FlowList {
			if e.Command != flow.CommandAdd {
				continue
			}
			intended = append(intended, e.Flow)
		}
	}
	c.mu.Unlock()

	for _, liveFlow := range sw.Flows() {
		d := liveFlow.Description
		if c.ignored(d) {
			continue
		}

		if known {
			expected := false
			for _, want := range intended {
				if _, ok, _ := match.Flow(want, version, d); ok {
					expected = true
					break
				}
			}
			if expected {
				continue
			}
		}

		if err := c.dispatchFlow(sw, d, flow.CommandDeleteStrict, false); err != nil {
			c.logger.Error("consistency: failed to remove unexpected flow",
				zap.String("dpid", sw.DPID.String()),
				zap.Error(err),
			)
		}
	}
}

// switchPass implements spec §4.F.4's switch pass: for every stored
// entry for this switch, if its flow is missing from the switch and the
// command is add, it is re-issued; if it is present and the command is
// delete, we previously recorded a deletion the switch never honored,
// and it is strictly deleted now.
func (c *Controller) switchPass(sw *ofswitch.Switch) {
	version := sw.Connection.Protocol.Version

	c.mu.Lock()
	si, ok := c.stored[sw.DPID]
	var entries []intent.Entry
	if ok {
		entries = append(entries, si.FlowList...)
	}
	c.mu.Unlock()

	if len(entries) == 0 {
		return
	}

	live := sw.Flows()
	presentOnSwitch := func(d flow.Description) bool {
		for _, liveFlow := range live {
			if _, ok, _ := match.Flow(d, version, liveFlow.Description); ok {
				return true
			}
		}
		return false
	}

	for _, e := range entries {
		if c.ignored(e.Flow) {
			continue
		}

		present := presentOnSwitch(e.Flow)

		switch e.Command {
		case flow.CommandAdd:
			if present {
				continue
			}
			if err := c.dispatchFlow(sw, e.Flow, flow.CommandAdd, false); err != nil {
				c.logger.Error("consistency: failed to resend missing flow",
					zap.String("dpid", sw.DPID.String()),
					zap.Error(err),
				)
			}
		case flow.CommandDelete, flow.CommandDeleteStrict:
			if !present {
				continue
			}
			if err := c.dispatchFlow(sw, e.Flow, flow.CommandDeleteStrict, false); err != nil {
				c.logger.Error("consistency: failed to remove flow still present after delete",
					zap.String("dpid", sw.DPID.String()),
					zap.Error(err),
				)
			}
		}
	}
}
