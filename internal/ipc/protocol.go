// Package ipc is the unix-socket control surface of a running voxd daemon.
// Requests and responses are single-line JSON; one connection carries one
// round trip.
package ipc

// Commands the daemon answers.
const (
	CommandStatus = "status"
	CommandStop   = "stop"
)

// Request asks the daemon about its session loop or for a shutdown.
type Request struct {
	Command string `json:"command"`
}

// Response is a snapshot of the session loop at the moment the command was
// handled. Phase is the current session phase name, WakeAllowed mirrors the
// anti-feedback arm state, and Iterations counts wake cycles started since
// the daemon came up.
type Response struct {
	OK          bool   `json:"ok"`
	Phase       string `json:"phase,omitempty"`
	WakeAllowed bool   `json:"wake_allowed"`
	Iterations  int    `json:"iterations,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}
