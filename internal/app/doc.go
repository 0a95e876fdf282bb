// Package app contains the core application logic. It wires the file store,
// the layer graph, sessions, event sinks and telemetry together and drives
// the update loop, decoupled from any specific entrypoint like a CLI.
package app
