package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides actionable error messages for end users
type UserFriendlyError struct {
	Message    string // User-facing message explaining what went wrong
	Suggestion string // Actionable steps to fix the issue
	DocsLink   string // Optional link to documentation
	Details    error  // Original error for debugging/logs
}

func (e *UserFriendlyError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString("How to fix:\n")
		sb.WriteString(e.Suggestion)
	}

	if e.DocsLink != "" {
		sb.WriteString("\n\n")
		sb.WriteString("Documentation: ")
		sb.WriteString(e.DocsLink)
	}

	return sb.String()
}

func (e *UserFriendlyError) Unwrap() error {
	return e.Details
}

// NewFriendlyError creates a user-friendly error
func NewFriendlyError(message, suggestion string) *UserFriendlyError {
	return &UserFriendlyError{
		Message:    message,
		Suggestion: suggestion,
	}
}

// WithDetails adds the underlying error details
func (e *UserFriendlyError) WithDetails(err error) *UserFriendlyError {
	e.Details = err
	return e
}

// WithDocs adds a documentation link
func (e *UserFriendlyError) WithDocs(link string) *UserFriendlyError {
	e.DocsLink = link
	return e
}

// NetworkError returns a network-related error with helpful suggestions
func NetworkError(err error) *UserFriendlyError {
	msg := "Network error occurred"
	suggestion := "Check that the Nextcloud server is reachable and try again"

	if err != nil {
		errStr := err.Error()

		if strings.Contains(errStr, "no such host") || strings.Contains(errStr, "name resolution") {
			msg = "Cannot resolve hostname - DNS lookup failed"
			suggestion = "1. Check server.url in your config\n2. Verify DNS settings"
		}

		if strings.Contains(errStr, "connection refused") {
			msg = "Server refused connection"
			suggestion = "The Nextcloud server may be down. Try again later."
		}

		if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
			msg = "Connection timed out"
			suggestion = "Dependency installs can take minutes. Try:\n1. Increase network.timeout_seconds in config\n2. Try again later"
		}

		if strings.Contains(errStr, "certificate") || strings.Contains(errStr, "x509") {
			msg = "SSL/TLS certificate verification failed"
			suggestion = "Install the server CA certificate, or for testing set tls_verify: false under network"
		}
	}

	return &UserFriendlyError{
		Message:    msg,
		Suggestion: suggestion,
		Details:    err,
	}
}

// AuthError returns authentication-related errors with app password guidance
func AuthError(host string, statusCode int, err error) *UserFriendlyError {
	return &UserFriendlyError{
		Message: fmt.Sprintf("Nextcloud authentication failed on %s (%d)", host, statusCode),
		Suggestion: "1. Check server.user in config\n" +
			"2. Create an app password under Settings > Security\n" +
			"3. Export it in the variable named by server.password_env\n" +
			"4. MediaDC configuration requires an admin account",
		Details: err,
	}
}

// APIStatusError returns an error for unexpected HTTP status codes from the API
func APIStatusError(method, path string, statusCode int, body string) *UserFriendlyError {
	body = strings.TrimSpace(body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	msg := fmt.Sprintf("%s %s returned HTTP %d", method, path, statusCode)
	if body != "" {
		msg += ": " + body
	}
	suggestion := "Check the Nextcloud log for details"
	if statusCode == 404 {
		suggestion = "Ensure the MediaDC app is installed and enabled, and that server.pretty_urls matches your server setup"
	}
	return &UserFriendlyError{Message: msg, Suggestion: suggestion}
}

// MalformedSettingError is returned when a setting value is not the JSON document it should be
func MalformedSettingError(name string, err error) *UserFriendlyError {
	return &UserFriendlyError{
		Message:    fmt.Sprintf("Setting '%s' has a malformed value", name),
		Suggestion: "Run 'mdcsync check' to let the server rebuild the installed state",
		Details:    err,
	}
}

// ConfigError returns configuration-related errors
func ConfigError(field, issue string) *UserFriendlyError {
	return &UserFriendlyError{
		Message:    fmt.Sprintf("Configuration error in field '%s': %s", field, issue),
		Suggestion: "Run 'mdcsync config validate' to check your configuration\nOr run 'mdcsync config wizard' to create a new configuration interactively",
		DocsLink:   "https://github.com/jxwalker/mdcsync#configuration",
	}
}

// DatabaseError returns database-related errors with recovery suggestions
func DatabaseError(err error) *UserFriendlyError {
	msg := "Database error"
	suggestion := "Try running: mdcsync doctor"

	if err != nil {
		errStr := err.Error()

		if strings.Contains(errStr, "locked") {
			msg = "Database is locked by another process"
			suggestion = "Close other mdcsync instances and try again"
		}

		if strings.Contains(errStr, "corrupt") || strings.Contains(errStr, "malformed") {
			msg = "Database is corrupted"
			suggestion = "The store only caches server state. Remove it and it will be rebuilt:\n  mdcsync store clear"
		}
	}

	return &UserFriendlyError{
		Message:    msg,
		Suggestion: suggestion,
		Details:    err,
	}
}

// PathError returns file/directory path related errors
func PathError(path string, err error) *UserFriendlyError {
	msg := fmt.Sprintf("Path error: %s", path)
	suggestion := "Check that the path exists and you have permission to access it"

	if err != nil {
		errStr := err.Error()

		if strings.Contains(errStr, "permission denied") {
			msg = fmt.Sprintf("Permission denied: %s", path)
			suggestion = fmt.Sprintf("Ensure you have write permission:\n  chmod u+w %s", path)
		}

		if strings.Contains(errStr, "no such file or directory") {
			msg = fmt.Sprintf("Directory does not exist: %s", path)
			suggestion = fmt.Sprintf("Create the directory:\n  mkdir -p %s", path)
		}
	}

	return &UserFriendlyError{
		Message:    msg,
		Suggestion: suggestion,
		Details:    err,
	}
}
