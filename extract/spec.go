package extract

import (
	"errors"
	"fmt"
	"io"

	"github.com/creachadair/mds/mapset"
	"gopkg.in/yaml.v3"
)

// LoadSpec reads a YAML mapping from entry names to either a two-element
// sequence [path, mode] or a mapping with "path" and "mode" keys:
//
//	T1: [Analysis/Fitted Params/tau, attr:value]
//	data:
//	  path: Experimental Data/Data
//	  mode: dset
//
// Entries keep their document order.
func LoadSpec(r io.Reader) (Spec, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Spec{}, nil
		}
		return nil, fmt.Errorf("parameter spec: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parameter spec line %d: want a mapping of names", root.Line)
	}

	var spec Spec
	seen := mapset.New[string]()
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if seen.Has(k.Value) {
			return nil, fmt.Errorf("parameter spec line %d: duplicate name %q", k.Line, k.Value)
		}
		seen.Add(k.Value)

		path, mode, err := entryFields(v)
		if err != nil {
			return nil, fmt.Errorf("parameter spec line %d: %s: %w", v.Line, k.Value, err)
		}
		m, err := ParseMode(mode)
		if err != nil {
			return nil, fmt.Errorf("parameter spec line %d: %s: %w", v.Line, k.Value, err)
		}
		spec = append(spec, Entry{Name: k.Value, Path: path, Mode: m})
	}
	return spec, nil
}

func entryFields(v *yaml.Node) (path, mode string, err error) {
	switch v.Kind {
	case yaml.SequenceNode:
		var pair []string
		if err := v.Decode(&pair); err != nil {
			return "", "", err
		}
		if len(pair) != 2 {
			return "", "", fmt.Errorf("want [path, mode], got %d elements", len(pair))
		}
		return pair[0], pair[1], nil
	case yaml.MappingNode:
		var e struct {
			Path string `yaml:"path"`
			Mode string `yaml:"mode"`
		}
		if err := v.Decode(&e); err != nil {
			return "", "", err
		}
		if e.Path == "" || e.Mode == "" {
			return "", "", errors.New("want both path and mode")
		}
		return e.Path, e.Mode, nil
	}
	return "", "", errors.New("want [path, mode] or {path, mode}")
}

// Add appends an entry, parsing mode. It fails if name is already present.
func (s *Spec) Add(name, path, mode string) error {
	for _, e := range *s {
		if e.Name == name {
			return fmt.Errorf("duplicate name %q", name)
		}
	}
	m, err := ParseMode(mode)
	if err != nil {
		return err
	}
	*s = append(*s, Entry{Name: name, Path: path, Mode: m})
	return nil
}
