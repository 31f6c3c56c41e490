package telemetry

// Common event names
const (
	EventVerifyRun      = "verify_run"
	EventVerifyBlocking = "verify_blocking_found"
	EventCommandError   = "command_error"
)
