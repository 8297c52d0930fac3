// Package config holds the packager configuration and the scratch/output
// directory layout derived from it.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/FPGAwars/verible-packager/internal/platform"
)

// VerifyConfig enables optional OpenPGP verification of the downloaded
// archive. Verification runs only when KeyFile is set.
type VerifyConfig struct {
	// KeyFile is an armored public key file trusted to sign the upstream
	// archives.
	KeyFile string `yaml:"key_file"`
	// SignatureSuffix is appended to the archive URL to locate the
	// detached signature.
	SignatureSuffix string `yaml:"signature_suffix"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config is the packager configuration. Zero values are filled from
// Default before a YAML file is applied.
type Config struct {
	// VeribleTag is the upstream release to package.
	VeribleTag string `yaml:"verible_tag"`
	// DownloadBaseURL is the release download URL prefix.
	DownloadBaseURL string `yaml:"download_base_url"`
	// UpstreamDir is the scratch directory for downloaded archives,
	// relative to the work dir.
	UpstreamDir string `yaml:"upstream_dir"`
	// PackagesDir receives the final package files, relative to the
	// work dir.
	PackagesDir string `yaml:"packages_dir"`
	// BuildInfoFormat is the default for --build-info-format.
	BuildInfoFormat string `yaml:"build_info_format"`

	Verify  VerifyConfig  `yaml:"verify"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the configuration matching the CI workflow defaults.
func Default() *Config {
	return &Config{
		VeribleTag:      platform.DefaultVeribleTag,
		DownloadBaseURL: platform.DefaultDownloadBaseURL,
		UpstreamDir:     "_upstream",
		PackagesDir:     "_packages",
		BuildInfoFormat: "auto",
		Verify: VerifyConfig{
			SignatureSuffix: ".sig",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "verible_tag": {"type": "string", "minLength": 1},
    "download_base_url": {"type": "string", "minLength": 1},
    "upstream_dir": {"type": "string", "minLength": 1},
    "packages_dir": {"type": "string", "minLength": 1},
    "build_info_format": {"enum": ["auto", "json", "text"]},
    "verify": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "key_file": {"type": "string"},
        "signature_suffix": {"type": "string"}
      }
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"enum": ["debug", "info", "warn", "error"]}
      }
    }
  }
}`

var schema = jsonschema.MustCompileString("config.schema.json", configSchema)

// Load reads a YAML configuration file, validates it against the embedded
// schema and applies it on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	// Schema validation works on the JSON form of the document.
	jsonData, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	var doc any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
