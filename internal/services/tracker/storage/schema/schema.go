// Package schema holds the declared shape of tracker records: one entry per
// record type naming the table and the columns that back its fields.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

//go:embed declarations.yaml
var declarations []byte

// Type is one declared record type.
type Type struct {
	Name   string   `yaml:"name" json:"name"`
	Table  string   `yaml:"table" json:"table"`
	Fields []string `yaml:"fields" json:"fields"`
}

// Declarations is the parsed declaration document.
type Declarations struct {
	Types []Type `yaml:"types" json:"types"`
}

// Default returns the embedded tracker declarations.
func Default() (Declarations, error) {
	return Parse(declarations)
}

// Load reads declarations from a YAML file on disk.
func Load(path string) (Declarations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Declarations{}, fmt.Errorf("read declarations: %w", err)
	}
	return Parse(data)
}

// Parse decodes a declaration document. Type names must be unique and
// non-empty; field names are trimmed and blanks dropped.
func Parse(data []byte) (Declarations, error) {
	var doc Declarations
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Declarations{}, fmt.Errorf("parse declarations: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Types))
	for i := range doc.Types {
		declared := &doc.Types[i]
		declared.Name = strings.TrimSpace(declared.Name)
		declared.Table = strings.TrimSpace(declared.Table)
		if declared.Name == "" {
			return Declarations{}, fmt.Errorf("declaration %d has no name", i)
		}
		if _, dup := seen[declared.Name]; dup {
			return Declarations{}, fmt.Errorf("duplicate declaration %s", declared.Name)
		}
		seen[declared.Name] = struct{}{}

		fields := declared.Fields[:0]
		for _, field := range declared.Fields {
			if field = strings.TrimSpace(field); field != "" {
				fields = append(fields, field)
			}
		}
		declared.Fields = fields
	}
	return doc, nil
}

// Lookup returns the declared type with the given name.
func (d Declarations) Lookup(name string) (Type, bool) {
	for _, declared := range d.Types {
		if declared.Name == name {
			return declared, true
		}
	}
	return Type{}, false
}

// Tables maps each declared table to the type name that describes it.
func (d Declarations) Tables() map[string]string {
	tables := make(map[string]string, len(d.Types))
	for _, declared := range d.Types {
		if declared.Table != "" {
			tables[declared.Table] = declared.Name
		}
	}
	return tables
}
