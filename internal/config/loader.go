package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level configuration
type Config struct {
	Environments map[string]Environment `yaml:"environments" json:"environments"`
	Requests     map[string]Request     `yaml:"requests" json:"requests"`
}

// Environment represents an environment configuration
type Environment struct {
	BaseURL       string            `yaml:"baseUrl" json:"baseUrl"`
	Version       int               `yaml:"version,omitempty" json:"version,omitempty"`
	TrailingSlash bool              `yaml:"trailingSlash,omitempty" json:"trailingSlash,omitempty"`
	Headers       map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Vars          map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// Request represents a request configuration
type Request struct {
	URL         string            `yaml:"url" json:"url"`
	Method      string            `yaml:"method" json:"method"`
	Headers     map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	QueryParams map[string]string `yaml:"queryParams,omitempty" json:"queryParams,omitempty"`
	Body        interface{}       `yaml:"body,omitempty" json:"body,omitempty"`
	Timeout     string            `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Vars        map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
	Extract     map[string]string `yaml:"extract,omitempty" json:"extract,omitempty"`
	SchemaFile  string            `yaml:"schemaFile,omitempty" json:"schemaFile,omitempty"`
}

// LoadConfig loads a request-collection file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses configuration data. The format is determined by the
// file extension in path; unknown extensions are tried as YAML.
func ParseConfig(data []byte, path string) (*Config, error) {
	var config Config

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing YAML config: %w", err)
		}
	}

	return &config, nil
}

// ProcessEnvironment substitutes {{name}} variable references in a string.
func ProcessEnvironment(input string, vars map[string]string) string {
	result := input
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// ProcessEnvironmentInMap substitutes variable references in every map value.
func ProcessEnvironmentInMap(input map[string]string, vars map[string]string) map[string]string {
	result := make(map[string]string, len(input))
	for key, value := range input {
		result[key] = ProcessEnvironment(value, vars)
	}
	return result
}

// MergeVars merges two variable sets, with the second taking precedence.
func MergeVars(base, override map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range override {
		result[key] = value
	}
	return result
}
