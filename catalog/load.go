package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Price maps a pricing tier to an amount. Datasets may also give a single
// number, which is read as the solo price.
type Price map[string]float64

// UnmarshalJSON accepts either a tier object or a bare number.
func (p *Price) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = nil
		return nil
	}
	if trimmed[0] == '{' {
		var tiers map[string]float64
		if err := json.Unmarshal(trimmed, &tiers); err != nil {
			return fmt.Errorf("decode price tiers: %w", err)
		}
		*p = tiers
		return nil
	}
	var flat float64
	if err := json.Unmarshal(trimmed, &flat); err != nil {
		return fmt.Errorf("decode price: %w", err)
	}
	*p = Price{TierSolo: flat}
	return nil
}

// UnmarshalYAML accepts either a tier mapping or a bare number.
func (p *Price) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var tiers map[string]float64
		if err := node.Decode(&tiers); err != nil {
			return fmt.Errorf("decode price tiers: %w", err)
		}
		*p = tiers
	case yaml.ScalarNode:
		var flat float64
		if err := node.Decode(&flat); err != nil {
			return fmt.Errorf("decode price: %w", err)
		}
		*p = Price{TierSolo: flat}
	default:
		return fmt.Errorf("decode price: unexpected yaml node kind %d", node.Kind)
	}
	return nil
}

type document struct {
	Packages []*Offering `json:"packages" yaml:"packages"`
}

// LoadFile reads a catalog from a .json, .yaml or .yml file. The file holds
// either a list of offerings or an object with a "packages" list.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	c, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes catalog data in the given format ("json", "yaml" or "yml").
func Parse(data []byte, format string) (*Catalog, error) {
	var offerings []*Offering
	switch format {
	case "json":
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			var doc document
			if err := json.Unmarshal(trimmed, &doc); err != nil {
				return nil, fmt.Errorf("decode json: %w", err)
			}
			offerings = doc.Packages
		} else if err := json.Unmarshal(trimmed, &offerings); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case "yaml", "yml":
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		if len(root.Content) == 0 {
			break
		}
		if root.Content[0].Kind == yaml.MappingNode {
			var doc document
			if err := root.Decode(&doc); err != nil {
				return nil, fmt.Errorf("decode yaml: %w", err)
			}
			offerings = doc.Packages
		} else if err := root.Decode(&offerings); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	return New(offerings)
}
