package openapi

import (
	"strings"

	"github.com/goliatone/go-xref"
)

type generatorConfig struct {
	openAPIVersion string
	info           openapiInfo
	rootComponent  string
	xrefOptions    []xref.Option
}

type openapiInfo struct {
	Title       string
	Version     string
	Description string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: "3.1.0",
		info: openapiInfo{
			Title:   "Raw Document Schema",
			Version: "1.0.0",
		},
	}
}

// GeneratorOption configures the OpenAPI generator behaviour.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the OpenAPI version string (default: 3.1.0).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version = strings.TrimSpace(version); version != "" {
			cfg.openAPIVersion = version
		}
	}
}

// InfoOption configures optional fields on the OpenAPI info section.
type InfoOption func(*openapiInfo)

// WithInfoDescription sets the optional description field for the info section.
func WithInfoDescription(description string) InfoOption {
	return func(info *openapiInfo) {
		info.Description = strings.TrimSpace(description)
	}
}

// WithInfo configures the info block. Empty strings retain the existing values.
func WithInfo(title, version string, opts ...InfoOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title = strings.TrimSpace(title); title != "" {
			cfg.info.Title = title
		}
		if version = strings.TrimSpace(version); version != "" {
			cfg.info.Version = version
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.info)
			}
		}
	}
}

// WithRootComponent publishes the root schema under name instead of the Go
// type name.
func WithRootComponent(name string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.rootComponent = sanitizeComponentName(name)
	}
}

// WithXrefOptions forwards options, such as xref.WithTagName, used to read the
// conversion tags.
func WithXrefOptions(opts ...xref.Option) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.xrefOptions = append(cfg.xrefOptions, opts...)
	}
}
