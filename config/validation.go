package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// oneOf reports a validation message when value is not in allowed.
func oneOf(field, value string, allowed ...string) []string {
	if slices.Contains(allowed, value) {
		return nil
	}
	return []string{fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", "))}
}

func joinErrs(errs []string) error {
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	var errs []string

	if s.Address == "" {
		errs = append(errs, "address cannot be empty")
	}
	if s.PathPrefix != "" && !strings.HasPrefix(s.PathPrefix, "/") {
		errs = append(errs, "path_prefix must start with '/'")
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, "read_timeout must be positive")
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, "write_timeout must be positive")
	}
	if s.IdleTimeout <= 0 {
		errs = append(errs, "idle_timeout must be positive")
	}
	if s.ReadHeaderTimeout <= 0 {
		errs = append(errs, "read_header_timeout must be positive")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown_timeout must be positive")
	}
	if s.MaxBodyBytes <= 0 {
		errs = append(errs, "max_body_bytes must be positive")
	}

	return joinErrs(errs)
}

// Validate validates leaderboard policy configuration
func (l *LeaderboardConfig) Validate() error {
	return joinErrs(oneOf("dispatch_mode", l.DispatchMode, "sync", "async"))
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	var errs []string
	errs = append(errs, oneOf("level", l.Level, "debug", "info", "warn", "error")...)
	errs = append(errs, oneOf("format", l.Format, "json", "text")...)
	errs = append(errs, oneOf("output", l.Output, "stdout", "stderr")...)
	return joinErrs(errs)
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	var errs []string

	if m.Enabled {
		if m.Address == "" {
			errs = append(errs, "address cannot be empty when metrics are enabled")
		}
		if !strings.HasPrefix(m.Path, "/") {
			errs = append(errs, "path must start with '/' when metrics are enabled")
		}
	}

	return joinErrs(errs)
}

// Validate validates security settings.
func (s *SecurityConfig) Validate() error {
	var errs []string
	if s.EnableRateLimit {
		if s.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, "rate_limit.requests_per_minute must be > 0 when rate limiting is enabled")
		}
		if s.RateLimit.BurstSize <= 0 {
			errs = append(errs, "rate_limit.burst_size must be > 0 when rate limiting is enabled")
		}
		errs = append(errs, oneOf("rate_limit.backend", s.RateLimit.Backend, "memory", "redis")...)
	}
	return joinErrs(errs)
}

// Validate validates webhook endpoints.
func (i *IntegrationsConfig) Validate() error {
	var errs []string
	for n, raw := range i.WebhookURLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("webhook_urls[%d] must be an absolute http(s) URL", n))
		}
	}
	if len(i.WebhookURLs) > 0 && i.WebhookTimeout <= 0 {
		errs = append(errs, "webhook_timeout must be positive when webhooks are configured")
	}
	return joinErrs(errs)
}
