package errors

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Configuration error codes (CONFIG_*)
const (
	ConfigEmptyAccessURL   ErrorCode = "CONFIG_001"
	ConfigInvalidAccessURL ErrorCode = "CONFIG_002"
	ConfigInvalidSchedule  ErrorCode = "CONFIG_003"
	ConfigReadFailed       ErrorCode = "CONFIG_004"
	ConfigWriteFailed      ErrorCode = "CONFIG_005"
)

// Upstream bridge error codes (UPSTREAM_*)
const (
	UpstreamRequestFailed     ErrorCode = "UPSTREAM_001"
	UpstreamMalformedResponse ErrorCode = "UPSTREAM_002"
	UpstreamUnavailable       ErrorCode = "UPSTREAM_003"
)

// Notification error codes (NOTIFY_*)
const (
	NotifyNoDestination ErrorCode = "NOTIFY_001"
	NotifyGatewayFailed ErrorCode = "NOTIFY_002"
	NotifyNoGateway     ErrorCode = "NOTIFY_003"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
)

// Monitor error codes (MONITOR_*)
const (
	MonitorAlreadyRunning ErrorCode = "MONITOR_001"
	MonitorRunFailed      ErrorCode = "MONITOR_002"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemServiceUnavailable ErrorCode = "SYSTEM_002"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_003"
	SystemUnexpectedError    ErrorCode = "SYSTEM_004"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	// Configuration errors
	ConfigEmptyAccessURL:   "Access URL cannot be empty",
	ConfigInvalidAccessURL: "Access URL is not a valid credential-bearing URL",
	ConfigInvalidSchedule:  "Schedule is not a valid cron expression",
	ConfigReadFailed:       "Failed to read configuration",
	ConfigWriteFailed:      "Failed to persist configuration",

	// Upstream errors
	UpstreamRequestFailed:     "Upstream balance request failed",
	UpstreamMalformedResponse: "Upstream response is missing the accounts list",
	UpstreamUnavailable:       "Upstream bridge temporarily unavailable",

	// Notification errors
	NotifyNoDestination: "Notification target has no usable destination",
	NotifyGatewayFailed: "Notification gateway rejected the request",
	NotifyNoGateway:     "No notification gateway is configured",

	// Validation errors
	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "Required field is missing",
	ValidationInvalidFormat: "Invalid field format",

	// Monitor errors
	MonitorAlreadyRunning: "A balance check is already in progress",
	MonitorRunFailed:      "Balance check failed",

	// System errors
	SystemInternalError:      "An unexpected error occurred. Please contact support with trace ID",
	SystemServiceUnavailable: "Service temporarily unavailable",
	SystemRateLimitExceeded:  "Rate limit exceeded. Please try again later",
	SystemUnexpectedError:    "An unexpected error occurred",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
