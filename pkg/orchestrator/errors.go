package orchestrator

import "errors"

// Sentinel errors surfaced by Controller operations (spec §7). The
// admin facade (internal/server) maps these to HTTP status codes;
// ErrInvalidCommand, and serializer.ErrUnsupportedVersion returned by
// Apply for a switch speaking another OpenFlow version, are fatal
// internal conditions that surface as 500s.
var (
	// ErrNotFound is returned when an operation names an unknown DPID.
	ErrNotFound = errors.New("orchestrator: unknown switch")

	// ErrSwitchDisabled is returned when an add targets a disabled
	// switch.
	ErrSwitchDisabled = errors.New("orchestrator: switch is disabled")

	// ErrInvalidPayload is returned when a flows document is missing
	// or carries an empty flow list.
	ErrInvalidPayload = errors.New("orchestrator: flows document must carry a non-empty flow list")

	// ErrInvalidCommand is returned when a caller supplies a command
	// outside {add, delete, delete_strict}.
	ErrInvalidCommand = errors.New("orchestrator: invalid command")
)
