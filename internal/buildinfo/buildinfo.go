// Package buildinfo loads, amends and writes the release metadata file
// that is shipped inside every generated package.
package buildinfo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Format selects the on-disk representation of the build info file.
type Format int

const (
	// FormatAuto sniffs the file content: a leading '{' means JSON,
	// anything else is flat text.
	FormatAuto Format = iota
	// FormatJSON is a single JSON object of primitive values.
	FormatJSON
	// FormatText is flat "key = value" lines.
	FormatText
)

// ParseFormat parses a --build-info-format flag value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	default:
		return FormatAuto, fmt.Errorf("invalid build info format %q (expected auto|json|text)", s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	default:
		return "auto"
	}
}

// schemaJSON constrains the JSON variant to a flat object of primitives.
const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": {
    "type": ["string", "number", "boolean"]
  }
}`

var docSchema = jsonschema.MustCompileString("build-info.schema.json", schemaJSON)

// Info is the build metadata: read once, amended with platform keys,
// written once into the package directory.
type Info struct {
	format Format

	// JSON variant.
	doc map[string]any

	// Text variant, raw lines without trailing newline.
	lines []string
}

// Load reads the build info file at path. With FormatAuto the format is
// sniffed from the content.
func Load(path string, format Format) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading build info %s: %w", path, err)
	}

	if format == FormatAuto {
		if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("{")) {
			format = FormatJSON
		} else {
			format = FormatText
		}
	}

	switch format {
	case FormatJSON:
		return loadJSON(path, data)
	case FormatText:
		return loadText(data), nil
	default:
		return nil, fmt.Errorf("invalid build info format %v", format)
	}
}

func loadJSON(path string, data []byte) (*Info, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing build info %s: %w", path, err)
	}
	if err := docSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid build info %s: %w", path, err)
	}

	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("build info %s is not a JSON object", path)
	}
	return &Info{format: FormatJSON, doc: doc}, nil
}

func loadText(data []byte) *Info {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return &Info{format: FormatText, lines: lines}
}

// Format returns the effective format after loading.
func (b *Info) Format() Format {
	return b.format
}

// Set stores or overwrites a key. The text variant appends a
// "key = value" line, replacing an earlier line for the same key.
func (b *Info) Set(key string, value any) {
	if b.format == FormatJSON {
		b.doc[key] = value
		return
	}

	line := fmt.Sprintf("%s = %v", key, value)
	for i, existing := range b.lines {
		if textKey(existing) == key {
			b.lines[i] = line
			return
		}
	}
	b.lines = append(b.lines, line)
}

// Get returns the value of a key as a string.
func (b *Info) Get(key string) (string, bool) {
	if b.format == FormatJSON {
		v, ok := b.doc[key]
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%v", v), true
	}

	for _, line := range b.lines {
		if textKey(line) == key {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1]), true
			}
		}
	}
	return "", false
}

// Keys returns all keys present in the metadata.
func (b *Info) Keys() []string {
	if b.format == FormatJSON {
		keys := make([]string, 0, len(b.doc))
		for k := range b.doc {
			keys = append(keys, k)
		}
		return keys
	}

	var keys []string
	for _, line := range b.lines {
		if k := textKey(line); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// ReleaseTag returns the release tag recorded in the metadata, used to
// derive the package tag when none is supplied explicitly.
func (b *Info) ReleaseTag() (string, error) {
	if tag, ok := b.Get("release-tag"); ok {
		return tag, nil
	}
	return "", fmt.Errorf("build info has no release-tag key")
}

// WriteFile serializes the metadata to path with a trailing newline. The
// JSON variant is pretty-printed.
func (b *Info) WriteFile(path string) error {
	var data []byte
	if b.format == FormatJSON {
		var err error
		data, err = json.MarshalIndent(b.doc, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal build info: %w", err)
		}
		data = append(data, '\n')
	} else {
		data = []byte(strings.Join(b.lines, "\n") + "\n")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing build info %s: %w", path, err)
	}
	return nil
}

func textKey(line string) string {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[0])
}
