package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/conneroisu/a11ytabs/internal/dom"
	"github.com/conneroisu/a11ytabs/internal/logging"
	"github.com/conneroisu/a11ytabs/internal/tabs"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("❌ Validation Errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    💡 %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("⚠️  Validation Warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    💡 %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateWidgetConfigDetails(&config.Widget, result)
	validateServerConfigDetails(&config.Server, result)
	validateWatchConfigDetails(&config.Watch, result)
	validateLogConfigDetails(&config.Log, result)

	result.Valid = !result.HasErrors()

	return result
}

func validateWidgetConfigDetails(config *WidgetConfig, result *ValidationResult) {
	selectors := []struct {
		field string
		value string
	}{
		{"widget.container", config.Container},
		{"widget.tablist", config.Tablist},
		{"widget.tabpanel", config.Tabpanel},
	}
	for _, s := range selectors {
		if err := dom.Validate(s.value); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   s.field,
				Value:   s.value,
				Message: fmt.Sprintf("invalid CSS selector %q", s.value),
				Suggestions: []string{
					"Use a tag, class or attribute selector such as 'ul', '.tabs' or '[data-a11y-tabs]'",
				},
			})
		}
	}

	if _, err := tabs.ParseRTLMode(config.RTL); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "widget.rtl",
			Value:   config.RTL,
			Message: err.Error(),
			Suggestions: []string{
				"Use 'auto' to follow the dir attribute or text direction",
				"Use 'true' or 'false' to force a direction",
			},
		})
	}

	if config.Active < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "widget.active",
			Value:       config.Active,
			Message:     "active index cannot be negative",
			Suggestions: []string{"Use 0 to select the first tab"},
		})
	}
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	// Validate port (allow 0 for system-assigned ports in testing)
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
				"Common development ports: 3000, 8080, 8000, 3001",
				"Port 0 allows system to assign an available port",
			},
		})
	} else if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Consider using a port above 1024 for development",
			},
		})
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.host",
				Value:   config.Host,
				Message: err.Error(),
				Suggestions: []string{
					"Use 'localhost' for local development",
					"Use '0.0.0.0' to bind to all interfaces",
				},
			})
		}
	}

	for _, origin := range config.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "server.allowed_origins",
				Value:       origin,
				Message:     fmt.Sprintf("origin %q must be an absolute URL", origin),
				Suggestions: []string{"Use the form http://localhost:3000"},
			})
		}
	}
}

func validateWatchConfigDetails(config *WatchConfig, result *ValidationResult) {
	if config.Debounce < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "watch.debounce",
			Value:   config.Debounce,
			Message: "debounce cannot be negative",
		})
	} else if config.Debounce > 5*time.Second {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "watch.debounce",
			Value:       config.Debounce,
			Message:     "long debounce delays reloads noticeably",
			Suggestions: []string{"Values between 50ms and 500ms work well"},
		})
	}
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.level",
			Value:       config.Level,
			Message:     err.Error(),
			Suggestions: []string{"Available levels: debug, info, warn, error"},
		})
	}
	if config.Format != "text" && config.Format != "json" {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.format",
			Value:       config.Format,
			Message:     fmt.Sprintf("unknown log format %q", config.Format),
			Suggestions: []string{"Use 'text' or 'json'"},
		})
	}
}

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil {
		return nil
	}

	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}
