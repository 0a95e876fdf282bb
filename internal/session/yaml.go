package session

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/recongraph/internal/ctyconv"
)

type yamlModel struct {
	DefaultLayer string           `yaml:"default_layer,omitempty"`
	Files        []yamlFile       `yaml:"files,omitempty"`
	Layers       []yamlLayer      `yaml:"layers,omitempty"`
	Connections  []yamlConnection `yaml:"connections,omitempty"`
}

type yamlFile struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

type yamlLayer struct {
	ID          string         `yaml:"id"`
	Kind        string         `yaml:"kind"`
	Active      *bool          `yaml:"active,omitempty"`
	AutoCreated bool           `yaml:"auto_created,omitempty"`
	Params      map[string]any `yaml:"params,omitempty"`
}

type yamlConnection struct {
	Target      string `yaml:"target"`
	Channel     string `yaml:"channel"`
	SourceLayer string `yaml:"source_layer,omitempty"`
	SourceFile  string `yaml:"source_file,omitempty"`
}

// EncodeYAML renders m as a YAML session file.
func EncodeYAML(m *Model) ([]byte, error) {
	out := yamlModel{DefaultLayer: m.DefaultLayer}
	for _, f := range m.Files {
		out.Files = append(out.Files, yamlFile{ID: f.ID, Path: f.Path})
	}
	for _, l := range m.Layers {
		active := l.Active
		yl := yamlLayer{ID: l.ID, Kind: l.Kind, Active: &active, AutoCreated: l.AutoCreated}
		native, err := ctyconv.ToNative(l.Params)
		if err != nil {
			return nil, fmt.Errorf("encoding params of layer '%s': %w", l.ID, err)
		}
		if params, ok := native.(map[string]any); ok {
			yl.Params = params
		}
		out.Layers = append(out.Layers, yl)
	}
	for _, c := range m.Connections {
		out.Connections = append(out.Connections, yamlConnection(*c))
	}
	return yaml.Marshal(out)
}

// DecodeYAML parses a session written in YAML.
func DecodeYAML(src []byte) (*Model, error) {
	var in yamlModel
	if err := yaml.Unmarshal(src, &in); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}

	m := &Model{DefaultLayer: in.DefaultLayer}
	for _, f := range in.Files {
		m.Files = append(m.Files, &File{ID: f.ID, Path: f.Path})
	}
	for _, l := range in.Layers {
		params := cty.NilVal
		if l.Params != nil {
			v, err := ctyconv.FromNative(l.Params)
			if err != nil {
				return nil, fmt.Errorf("invalid params for layer '%s': %w", l.ID, err)
			}
			params = v
		}
		m.Layers = append(m.Layers, &Layer{
			ID:          l.ID,
			Kind:        l.Kind,
			Active:      l.Active == nil || *l.Active,
			AutoCreated: l.AutoCreated,
			Params:      params,
		})
	}
	for _, c := range in.Connections {
		conn := Connection(c)
		m.Connections = append(m.Connections, &conn)
	}
	return m, nil
}
