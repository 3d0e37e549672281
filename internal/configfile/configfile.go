// Package configfile reads and writes ScraperConfig files. The format is
// chosen by extension: .json, .yaml/.yml, .toml or .hcl.
package configfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"gopkg.in/yaml.v3"

	"github.com/rendis/scrapegen/pkg/schema"
)

// Format is a config file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
)

// FormatOf maps a path's extension to its Format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", schema.NewErrorf(schema.ErrCodeConfig, "unsupported config file extension %q", filepath.Ext(path)).
			WithField(path)
	}
}

// Load reads the config at path. JSON, YAML and TOML files start from
// DefaultConfig so omitted keys keep their defaults; HCL files must set
// every attribute. Unknown keys are rejected in every format.
func Load(path string) (schema.ScraperConfig, error) {
	format, err := FormatOf(path)
	if err != nil {
		return schema.ScraperConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.ScraperConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Decode(format, path, data)
	if err != nil {
		return schema.ScraperConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses data in format. filename only labels HCL diagnostics.
func Decode(format Format, filename string, data []byte) (schema.ScraperConfig, error) {
	cfg := schema.DefaultConfig()

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, decodeErr(format, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, decodeErr(format, err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, decodeErr(format, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, decodeErr(format, fmt.Errorf("unknown keys %v", undecoded))
		}
	case FormatHCL:
		file, diags := hclparse.NewParser().ParseHCL(data, filename)
		if diags.HasErrors() {
			return cfg, decodeErr(format, diags)
		}
		var decoded schema.ScraperConfig
		if diags := gohcl.DecodeBody(file.Body, nil, &decoded); diags.HasErrors() {
			return cfg, decodeErr(format, diags)
		}
		cfg = decoded
	default:
		return cfg, schema.NewErrorf(schema.ErrCodeConfig, "unsupported config format %q", format)
	}
	return cfg, nil
}

// Encode renders cfg in format.
func Encode(format Format, cfg schema.ScraperConfig) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		return yaml.Marshal(cfg)
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatHCL:
		f := hclwrite.NewEmptyFile()
		gohcl.EncodeIntoBody(cfg, f.Body())
		return f.Bytes(), nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeConfig, "unsupported config format %q", format)
	}
}

// Save writes cfg to path in the format its extension names.
func Save(path string, cfg schema.ScraperConfig) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(format, cfg)
	if err != nil {
		return fmt.Errorf("encode config %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func decodeErr(format Format, err error) error {
	return schema.NewErrorf(schema.ErrCodeDecode, "invalid %s config: %s", format, err).WithCause(err)
}
