// Package task defines the contract between the layer graph and the
// computations that run inside each layer.
//
// The graph never interprets layer data. It only decides when a task is told
// about new or removed inputs, when it is activated, and when it computes. A
// Task is therefore a passive object driven entirely by notifications from
// the graph plus one Compute call per update cycle.
package task

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// FileHandle identifies an input file or feature collection loaded by the
// file provider. Implementations must be comparable (a pointer type is the
// usual choice) because the graph keys its input data by handle.
type FileHandle interface {
	// FileID returns a stable identifier derived from the file's location.
	FileID() string
}

// Proxy is the stable output handle of a layer. The value behind it changes
// every update cycle, the handle itself does not.
type Proxy interface {
	// Kind reports the kind of the task currently backing the layer.
	Kind() Kind
	// Output returns the value produced by the layer in the current cycle and
	// whether it is valid. Inactive and failed layers have no valid output.
	Output() (any, bool)
}

// Task is the computation owned by a single layer.
type Task interface {
	// Kind is the layer kind implemented by this task.
	Kind() Kind

	// InputChannels describes every input channel the task accepts.
	InputChannels() []ChannelDefinition

	// MainInputChannel is the channel fed by the file that caused an
	// auto-created layer to exist.
	MainInputChannel() Channel

	AddInputFileConnection(ch Channel, f FileHandle)
	RemoveInputFileConnection(ch Channel, f FileHandle)
	ModifiedInputFile(ch Channel, f FileHandle)

	AddInputLayerProxyConnection(ch Channel, p Proxy)
	RemoveInputLayerProxyConnection(ch Channel, p Proxy)

	// Activate is called after the layer's downstream connections have been
	// told about the activation change.
	Activate(active bool)

	// Compute produces the layer's output for one update cycle. It must be
	// idempotent given identical inputs and state.
	Compute(ctx context.Context, state State) (any, error)
}

// Configurable is implemented by tasks that carry user-editable parameters.
// Parameters are exchanged as a cty object so they can be persisted without
// the session layer knowing the concrete task type.
type Configurable interface {
	Params() cty.Value
	SetParams(params cty.Value) error
}
