// Package flow defines the JSON flow-description schema operators submit
// to the admin API (spec §3): a version-agnostic mapping of match fields
// and an ordered action list, plus the stored-intent and in-flight
// envelopes the orchestrator keeps around it.
package flow

// Command is a verb the admin API or the orchestrator applies to a flow.
type Command string

const (
	CommandAdd          Command = "add"
	CommandDelete       Command = "delete"
	CommandDeleteStrict Command = "delete_strict"
)

// Description is one flow entry as operators write it and as switches
// report it back (spec §3). All fields are optional.
type Description struct {
	TableID     *uint8  `json:"table_id,omitempty"`
	Priority    *uint16 `json:"priority,omitempty"`
	IdleTimeout *uint16 `json:"idle_timeout,omitempty"`
	HardTimeout *uint16 `json:"hard_timeout,omitempty"`
	Cookie      *uint64 `json:"cookie,omitempty"`
	CookieMask  *uint64 `json:"cookie_mask,omitempty"`
	Match       Match   `json:"match,omitempty"`
	Actions     []Action `json:"actions,omitempty"`
}

// CookieValue returns the flow's cookie, defaulting to 0 when absent.
func (d Description) CookieValue() uint64 {
	if d.Cookie == nil {
		return 0
	}
	return *d.Cookie
}

// CookieMaskValue returns the flow's cookie mask, defaulting to 0 (no
// restriction) when absent.
func (d Description) CookieMaskValue() uint64 {
	if d.CookieMask == nil {
		return 0
	}
	return *d.CookieMask
}

// TableIDValue returns the flow's table_id, defaulting to 0 when absent,
// matching the original implementation's from_dict default.
func (d Description) TableIDValue() uint8 {
	if d.TableID == nil {
		return 0
	}
	return *d.TableID
}

// Doc is the payload shape POSTed/DELETEd through the admin API: an
// ordered, non-empty list of flow descriptions (spec §4.G).
type Doc struct {
	Flows []Description `json:"flows"`
}
