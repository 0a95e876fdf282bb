package reconstruct

import (
	"github.com/vk/recongraph/internal/task"
)

// Layer is one computation node of the graph. It owns its task, its input
// connections and its output data. The output data is created with the layer
// and keeps its identity when the task is replaced.
type Layer struct {
	graph *Graph
	h     handle

	task        task.Task
	active      bool
	autoCreated bool

	inputs *InputConnections
	output *Data

	destroying bool
}

// LayerOption configures a layer created by Graph.AddLayer.
type LayerOption func(*Layer)

// AutoCreated marks a layer as synthesized in response to a file load.
// Auto-created layers are removed with the file feeding their main input.
func AutoCreated() LayerOption {
	return func(l *Layer) { l.autoCreated = true }
}

// Ref returns a weak handle to the layer.
func (l *Layer) Ref() LayerRef {
	return LayerRef{g: l.graph, h: l.h}
}

func (l *Layer) Kind() task.Kind { return l.task.Kind() }

func (l *Layer) Task() task.Task { return l.task }

func (l *Layer) IsActive() bool { return l.active }

func (l *Layer) IsAutoCreated() bool { return l.autoCreated }

// Output is the layer's output data.
func (l *Layer) Output() *Data { return l.output }

// InputConnections returns the connections feeding this layer.
func (l *Layer) InputConnections() *InputConnections { return l.inputs }

// OutputConnections returns a snapshot of the connections reading this
// layer's output.
func (l *Layer) OutputConnections() []*Connection { return l.output.Observers() }

// InputChannelDefinitions describes the input channels of the current task.
func (l *Layer) InputChannelDefinitions() []task.ChannelDefinition {
	return l.task.InputChannels()
}

// activate changes the activation state. Downstream connections are told
// before the task because the task's handler may query downstream state.
// It reports whether the state changed.
func (l *Layer) activate(active bool) bool {
	if l.active == active {
		return false
	}
	l.active = active
	for _, c := range l.output.Observers() {
		c.notifySourceActivationChanged(active)
	}
	l.task.Activate(active)
	return true
}

// setTask swaps the task. Connections and output data are untouched; the new
// task is told about every input it would have seen had it been there from
// the start.
func (l *Layer) setTask(t task.Task) {
	l.task = t
	for _, c := range l.inputs.All() {
		c.announce()
	}
	if !l.active {
		t.Activate(false)
	}
}

// fedOnlyBy reports whether the main input channel has connections and all
// of them read d.
func (l *Layer) fedOnlyBy(d *Data) bool {
	conns := l.inputs.Get(l.task.MainInputChannel())
	if len(conns) == 0 {
		return false
	}
	for _, c := range conns {
		if c.source != d {
			return false
		}
	}
	return true
}

// destroy tears the layer down in two explicit phases. Connections reading
// the output are detached first, while both ends are intact. Then every
// input connection is flagged so that its destruction does not call back
// into this layer's task, and only then are they destroyed.
func (l *Layer) destroy() {
	l.destroying = true
	l.output.disconnectAllObservers()

	inputs := l.inputs.All()
	for _, c := range inputs {
		c.markReceivingLayerDestroying()
	}
	for _, c := range inputs {
		l.inputs.remove(c.channel, c)
	}
	assert(l.inputs.Len() == 0, "Layer.destroy", "%d input connections survived teardown", l.inputs.Len())
	l.output.dispose()
}
