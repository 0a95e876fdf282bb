// Package filestate tracks the input files loaded into a reconstruction
// session.
//
// The Store owns one *File per loaded path and tells its listeners when files
// are loaded, unloaded or modified. A *File implements task.FileHandle, so the
// same pointer identifies the file in the layer graph. Format detection is by
// extension, with a shallow scan of GPML feature collections for topological
// features. The Watcher turns filesystem writes into debounced change
// batches; parsing file contents is left to the layers.
package filestate
