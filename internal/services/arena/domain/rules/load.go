package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultYAML []byte

type document struct {
	Creatures map[CreatureType]Profile `yaml:"creatures"`
}

// LoadYAML decodes and validates a rules document. Unknown fields are rejected.
func LoadYAML(r io.Reader) (Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, fmt.Errorf("decode rules: empty document")
		}
		return Table{}, fmt.Errorf("decode rules: %w", err)
	}
	table, err := NewTable(doc.Creatures)
	if err != nil {
		return Table{}, fmt.Errorf("validate rules: %w", err)
	}
	return table, nil
}

// LoadFile reads a rules document from path. An empty path yields Default.
func LoadFile(path string) (Table, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// DefaultYAML returns the embedded rules document matching Default.
func DefaultYAML() []byte {
	return bytes.Clone(defaultYAML)
}
