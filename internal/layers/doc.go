// Package layers implements the built-in layer kinds.
//
// Every task records the inputs the graph announces to it and, on Compute,
// summarizes them together with the reconstruction tree it would apply. The
// geoscience itself is done by the consumers of these outputs.
package layers
