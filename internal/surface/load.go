package surface

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"semdiff/internal/compression"
)

// Format is an on-disk surface encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatSCIP Format = "scip"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatTOML, FormatSCIP}
}

// FormatForPath picks a format from the file extension, ignoring .gz and
// .zst compression suffixes.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(compression.StripSuffix(path))) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".scip":
		return FormatSCIP, nil
	default:
		return "", fmt.Errorf("unsupported surface file %q", filepath.Base(path))
	}
}

// CanLoad reports whether path has a recognised surface extension.
func CanLoad(path string) bool {
	_, err := FormatForPath(path)
	return err == nil
}

// Load reads and validates the surface stored at path.
func Load(path string) (*Surface, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := compression.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if s.Name == "" {
		base := filepath.Base(compression.StripSuffix(path))
		s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return s, nil
}

// Decode parses one surface.
func Decode(data []byte, format Format) (*Surface, error) {
	var s Surface
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to parse JSON surface: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse YAML surface: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse TOML surface: %w", err)
		}
	case FormatSCIP:
		return DecodeSCIP(data)
	default:
		return nil, fmt.Errorf("unsupported surface format %q", format)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid surface: %w", err)
	}
	return &s, nil
}
