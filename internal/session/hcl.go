package session

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// hclRoot decodes every top-level attribute and block of a session file.
type hclRoot struct {
	DefaultLayer string           `hcl:"default_layer,optional"`
	Files        []*hclFile       `hcl:"file,block"`
	Layers       []*hclLayer      `hcl:"layer,block"`
	Connections  []*hclConnection `hcl:"connection,block"`
}

type hclFile struct {
	ID   string `hcl:"id,label"`
	Path string `hcl:"path"`
}

type hclLayer struct {
	ID          string         `hcl:"id,label"`
	Kind        string         `hcl:"kind"`
	Active      *bool          `hcl:"active,optional"`
	AutoCreated bool           `hcl:"auto_created,optional"`
	Params      hcl.Expression `hcl:"params,optional"`
}

type hclConnection struct {
	Target      string `hcl:"target"`
	Channel     string `hcl:"channel"`
	SourceLayer string `hcl:"source_layer,optional"`
	SourceFile  string `hcl:"source_file,optional"`
}

// isExprDefined reports whether an optional attribute was present in the
// source. Omitted attributes decode to zero-width placeholder expressions.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// DecodeHCL parses a session written in HCL. filename is used in
// diagnostics only.
func DecodeHCL(src []byte, filename string) (*Model, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse session %s: %w", filename, diags)
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode session %s: %w", filename, diags)
	}

	m := &Model{DefaultLayer: root.DefaultLayer}
	for _, f := range root.Files {
		m.Files = append(m.Files, &File{ID: f.ID, Path: f.Path})
	}
	for _, l := range root.Layers {
		layer := &Layer{
			ID:          l.ID,
			Kind:        l.Kind,
			Active:      l.Active == nil || *l.Active,
			AutoCreated: l.AutoCreated,
			Params:      cty.NilVal,
		}
		if isExprDefined(l.Params) {
			v, diags := l.Params.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("invalid params for layer '%s' in %s: %w", l.ID, filename, diags)
			}
			layer.Params = v
		}
		m.Layers = append(m.Layers, layer)
	}
	for _, c := range root.Connections {
		m.Connections = append(m.Connections, &Connection{
			Target:      c.Target,
			Channel:     c.Channel,
			SourceLayer: c.SourceLayer,
			SourceFile:  c.SourceFile,
		})
	}
	return m, nil
}

// EncodeHCL renders m as an HCL session file.
func EncodeHCL(m *Model) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	if m.DefaultLayer != "" {
		body.SetAttributeValue("default_layer", cty.StringVal(m.DefaultLayer))
	}
	for _, file := range m.Files {
		body.AppendNewline()
		b := body.AppendNewBlock("file", []string{file.ID}).Body()
		b.SetAttributeValue("path", cty.StringVal(file.Path))
	}
	for _, l := range m.Layers {
		body.AppendNewline()
		b := body.AppendNewBlock("layer", []string{l.ID}).Body()
		b.SetAttributeValue("kind", cty.StringVal(l.Kind))
		b.SetAttributeValue("active", cty.BoolVal(l.Active))
		b.SetAttributeValue("auto_created", cty.BoolVal(l.AutoCreated))
		if !l.Params.IsNull() {
			b.SetAttributeValue("params", l.Params)
		}
	}
	for _, c := range m.Connections {
		body.AppendNewline()
		b := body.AppendNewBlock("connection", nil).Body()
		b.SetAttributeValue("target", cty.StringVal(c.Target))
		b.SetAttributeValue("channel", cty.StringVal(c.Channel))
		if c.SourceLayer != "" {
			b.SetAttributeValue("source_layer", cty.StringVal(c.SourceLayer))
		}
		if c.SourceFile != "" {
			b.SetAttributeValue("source_file", cty.StringVal(c.SourceFile))
		}
	}
	return f.Bytes()
}
