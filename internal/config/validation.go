package config

import (
	"fmt"
	"os"
	"strings"

	friendlyerrors "github.com/jxwalker/mdcsync/internal/errors"
)

// ValidationError represents a detailed config validation error
type ValidationError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Config validation error in '%s': %s", e.Field, e.Message)
}

// ValidateDetailed performs comprehensive validation with friendly error messages
func (c *Config) ValidateDetailed() []ValidationError {
	var errs []ValidationError

	if c.Version != 1 {
		errs = append(errs, ValidationError{
			Field:      "version",
			Value:      c.Version,
			Message:    fmt.Sprintf("Unsupported version: %d", c.Version),
			Suggestion: "Use version: 1",
		})
	}

	if c.General.DataRoot == "" {
		errs = append(errs, ValidationError{
			Field:      "general.data_root",
			Message:    "Required field missing",
			Suggestion: "Set to a directory for mdcsync data:\n  data_root: ~/.local/share/mdcsync",
		})
	}

	// Server section
	if c.Server.URL == "" {
		errs = append(errs, ValidationError{
			Field:      "server.url",
			Message:    "Required field missing",
			Suggestion: "Set to your Nextcloud base URL:\n  url: https://cloud.example.com",
		})
	} else if strings.HasSuffix(strings.TrimRight(c.Server.URL, "/"), "/index.php") {
		errs = append(errs, ValidationError{
			Field:      "server.url",
			Value:      c.Server.URL,
			Message:    "URL should not include the front controller",
			Suggestion: "Drop /index.php from url; it is added unless pretty_urls is true",
		})
	}

	if c.Server.User == "" {
		errs = append(errs, ValidationError{
			Field:      "server.user",
			Message:    "Required field missing",
			Suggestion: "Set to a Nextcloud admin account name",
		})
	}

	if os.Getenv(c.PasswordEnv()) == "" {
		errs = append(errs, ValidationError{
			Field:      "server.password_env",
			Message:    fmt.Sprintf("%s not set", c.PasswordEnv()),
			Suggestion: fmt.Sprintf("Create an app password in Nextcloud and export it:\n  export %s=...", c.PasswordEnv()),
		})
	}

	if c.Network.TimeoutSeconds > 3600 {
		errs = append(errs, ValidationError{
			Field:      "network.timeout_seconds",
			Value:      c.Network.TimeoutSeconds,
			Message:    "Very long timeout (>1 hour)",
			Suggestion: "Consider reducing to 300-900 seconds",
		})
	}

	if !c.TLSVerify() {
		errs = append(errs, ValidationError{
			Field:      "network.tls_verify",
			Value:      false,
			Message:    "Certificate verification disabled",
			Suggestion: "Only use this against test servers",
		})
	}

	lvl := strings.ToLower(c.Logging.Level)
	switch lvl {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:      "logging.level",
			Value:      c.Logging.Level,
			Message:    "Invalid log level",
			Suggestion: "Use one of: debug, info, warn, error",
		})
	}

	if c.Metrics.PrometheusTextfile.Enabled && c.Metrics.PrometheusTextfile.Path == "" {
		errs = append(errs, ValidationError{
			Field:      "metrics.prometheus_textfile.path",
			Message:    "Textfile metrics enabled without a path",
			Suggestion: "Set path, e.g. /var/lib/node_exporter/textfile/mdcsync.prom",
		})
	}

	return errs
}

// ValidateWithFriendlyErrors returns a user-friendly validation error
func (c *Config) ValidateWithFriendlyErrors() error {
	if err := c.Validate(); err != nil {
		return err
	}

	errs := c.ValidateDetailed()
	if len(errs) == 0 {
		return nil
	}

	var msg strings.Builder
	msg.WriteString("Configuration validation failed:\n\n")

	for i, err := range errs {
		msg.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
		if err.Value != nil {
			msg.WriteString(fmt.Sprintf("   Current value: %v\n", err.Value))
		}
		if err.Suggestion != "" {
			lines := strings.Split(err.Suggestion, "\n")
			for _, line := range lines {
				msg.WriteString(fmt.Sprintf("   → %s\n", line))
			}
		}
		msg.WriteString("\n")
	}

	return friendlyerrors.NewFriendlyError(
		"Config validation failed",
		msg.String(),
	).WithDocs("https://github.com/jxwalker/mdcsync#configuration")
}
