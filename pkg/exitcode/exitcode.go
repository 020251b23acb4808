// Package exitcode provides standardized exit codes for childcheck
package exitcode

// Exit codes for the childcheck CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ValidationError = 3 // declared children disagree with the tree
	FileSystemError = 4 // a content directory is missing or unreadable
	TimeoutError    = 7
	ParseError      = 10 // a manifest is missing, malformed, or lacks children
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	case TimeoutError:
		return "Timeout error"
	case ParseError:
		return "Manifest parse error"
	default:
		return "Unknown error"
	}
}
