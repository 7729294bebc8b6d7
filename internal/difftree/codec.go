package difftree

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"semdiff/internal/compression"
)

// Format is a serialization format for diff trees.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks a format from a file name, ignoring compression suffixes.
func FormatForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(compression.StripSuffix(path)))
	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("cannot infer diff tree format from %q", path)
	}
}

// Decode reads one diff tree. Empty input, JSON null or an empty YAML document
// decode to a nil root, meaning the engine found no differences.
func Decode(r io.Reader, format Format) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read diff tree: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var root *Node
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse JSON diff tree: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse YAML diff tree: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported diff tree format %q", format)
	}

	if root != nil {
		if err := normalize(root); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// DecodeFile reads a diff tree from disk, transparently decompressing .gz and
// .zst files.
func DecodeFile(path string) (*Node, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	rc, err := compression.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return Decode(rc, format)
}

// EncodeJSON writes the tree as indented JSON.
func EncodeJSON(w io.Writer, root *Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(root)
}

// EncodeXML writes the tree as XML rooted at a <diff> element.
func EncodeXML(w io.Writer, root *Node) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.EncodeElement(root, xml.StartElement{Name: xml.Name{Local: "diff"}}); err != nil {
		return fmt.Errorf("failed to encode diff tree as XML: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// normalize canonicalises kind spellings across the whole tree.
func normalize(root *Node) error {
	var firstErr error
	Walk(root, func(n *Node, _ int) bool {
		k, err := ParseKind(string(n.Kind))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return false
		}
		n.Kind = k
		return true
	})
	return firstErr
}
