package config

import (
	"fmt"
	"strings"
	"time"
)

// validMethods is the verb set supported by the client.
var validMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

// ValidateConfig validates an entire configuration and returns all problems
// found, one error per issue.
func ValidateConfig(cfg *Config) []error {
	var errs []error

	if len(cfg.Environments) == 0 {
		errs = append(errs, fmt.Errorf("config must define at least one environment"))
	}
	for name, env := range cfg.Environments {
		if env.BaseURL == "" {
			errs = append(errs, fmt.Errorf("environment %q: baseUrl is required", name))
		}
		if env.Version < 0 {
			errs = append(errs, fmt.Errorf("environment %q: version cannot be negative", name))
		}
	}

	for name, req := range cfg.Requests {
		if err := validateRequest(name, req); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// ValidateEnvironment checks that the named environment exists.
func ValidateEnvironment(cfg *Config, name string) error {
	if _, ok := cfg.Environments[name]; !ok {
		return fmt.Errorf("environment %q not found in config", name)
	}
	return nil
}

// ValidateRequest checks that the named request exists and is well formed.
func ValidateRequest(cfg *Config, name string) error {
	req, ok := cfg.Requests[name]
	if !ok {
		return fmt.Errorf("request %q not found in config", name)
	}
	return validateRequest(name, req)
}

func validateRequest(name string, req Request) error {
	method := strings.ToUpper(req.Method)
	if method == "" {
		return fmt.Errorf("request %q: method is required", name)
	}
	if !validMethods[method] {
		return fmt.Errorf("request %q: unsupported method %q", name, req.Method)
	}
	if req.Timeout != "" {
		if _, err := time.ParseDuration(req.Timeout); err != nil {
			return fmt.Errorf("request %q: invalid timeout %q: %w", name, req.Timeout, err)
		}
	}
	return nil
}
