// Package session saves and restores the structure of a layer graph.
//
// A session records input files, layers with their kind, parameters and
// flags, the connections between them, and the default reconstruction tree
// layer. It does not record computed outputs. Model is the format-agnostic
// representation; HCL and YAML codecs translate it to and from disk.
package session

import "github.com/zclconf/go-cty/cty"

// Model is a captured graph.
type Model struct {
	// DefaultLayer is the id of the default reconstruction tree layer, or
	// empty when the graph has none.
	DefaultLayer string
	Files        []*File
	Layers       []*Layer
	Connections  []*Connection
}

// File is an input file referenced by the session.
type File struct {
	ID   string
	Path string
}

// Layer is a layer referenced by the session.
type Layer struct {
	ID          string
	Kind        string
	Active      bool
	AutoCreated bool
	// Params is a cty object, or cty.NilVal for tasks without parameters.
	Params cty.Value
}

// Connection feeds the Channel of layer Target from exactly one of
// SourceLayer or SourceFile.
type Connection struct {
	Target      string
	Channel     string
	SourceLayer string
	SourceFile  string
}
