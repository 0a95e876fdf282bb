// Package registry provides the central "glue" for the layer system.
//
// The Registry maps each layer kind to the Go factory that builds its task,
// and each input file format to the kinds of layer created automatically when
// such a file is loaded. Sessions rely on it to turn persisted kind names back
// into running tasks.
//
// During application startup, the registry is populated by the compiled-in
// modules and then validated to ensure every kind has a consistent
// implementation, preventing a wide class of runtime errors.
package registry
