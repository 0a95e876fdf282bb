// Package reconstruct implements the layer graph of a plate reconstruction
// session.
//
// A Graph owns layers, the connections between them and the data nodes they
// read: registered input files and layer outputs. Callers hold weak handles
// (LayerRef, ConnectionRef) that stop resolving once the node is removed.
//
// Structural mutations are synchronous. Each one notifies the affected tasks
// immediately and emits an Event to subscribed observers. Update then walks
// the layers in dependency order, with the default reconstruction-tree layer
// first, and computes each active layer exactly once.
//
// Caller misuse is reported as an error wrapping ErrPrecondition and leaves
// the graph untouched. Broken internal invariants panic with an error
// wrapping ErrAssertion.
package reconstruct
