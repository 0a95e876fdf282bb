package reconstruct

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/recongraph/internal/task"
)

type fakeFile struct{ id string }

func (f *fakeFile) FileID() string { return f.id }

// call is one notification received by a recordingTask.
type call struct {
	op     string
	ch     task.Channel
	file   task.FileHandle
	proxy  task.Proxy
	active bool
}

// recordingTask records every notification from the graph and computes a
// value derived from its name.
type recordingTask struct {
	name     string
	kind     task.Kind
	channels []task.ChannelDefinition
	main     task.Channel

	calls  []call
	states []task.State

	compute func(ctx context.Context, state task.State) (any, error)
}

func newRecordingTask(name string, kind task.Kind) *recordingTask {
	rt := &recordingTask{name: name, kind: kind}
	if kind == task.KindReconstructionTree {
		rt.channels = []task.ChannelDefinition{
			task.FileChannel(task.ChannelReconstructionFeatures, task.MultipleDataInChannel),
		}
		rt.main = task.ChannelReconstructionFeatures
		return rt
	}
	rt.channels = []task.ChannelDefinition{
		task.FileChannel(task.ChannelReconstructableFeatures, task.MultipleDataInChannel),
		task.LayerChannel(task.ChannelReconstructionTree, task.OneDataInChannel, task.KindReconstructionTree),
		task.LayerChannel(task.ChannelTopologicalSectionLayers, task.MultipleDataInChannel, task.Kinds()...),
	}
	rt.main = task.ChannelReconstructableFeatures
	return rt
}

func (rt *recordingTask) Kind() task.Kind                         { return rt.kind }
func (rt *recordingTask) InputChannels() []task.ChannelDefinition { return rt.channels }
func (rt *recordingTask) MainInputChannel() task.Channel          { return rt.main }

func (rt *recordingTask) AddInputFileConnection(ch task.Channel, f task.FileHandle) {
	rt.calls = append(rt.calls, call{op: "add_file", ch: ch, file: f})
}

func (rt *recordingTask) RemoveInputFileConnection(ch task.Channel, f task.FileHandle) {
	rt.calls = append(rt.calls, call{op: "remove_file", ch: ch, file: f})
}

func (rt *recordingTask) ModifiedInputFile(ch task.Channel, f task.FileHandle) {
	rt.calls = append(rt.calls, call{op: "modified_file", ch: ch, file: f})
}

func (rt *recordingTask) AddInputLayerProxyConnection(ch task.Channel, p task.Proxy) {
	rt.calls = append(rt.calls, call{op: "add_proxy", ch: ch, proxy: p})
}

func (rt *recordingTask) RemoveInputLayerProxyConnection(ch task.Channel, p task.Proxy) {
	rt.calls = append(rt.calls, call{op: "remove_proxy", ch: ch, proxy: p})
}

func (rt *recordingTask) Activate(active bool) {
	rt.calls = append(rt.calls, call{op: "activate", active: active})
}

func (rt *recordingTask) Compute(ctx context.Context, state task.State) (any, error) {
	rt.states = append(rt.states, state)
	if rt.compute != nil {
		return rt.compute(ctx, state)
	}
	if rt.kind == task.KindReconstructionTree {
		return &task.ReconstructionTree{Time: state.Time, AnchorPlateID: state.AnchorPlateID}, nil
	}
	return rt.name, nil
}

// count returns how many recorded calls have the given op.
func (rt *recordingTask) count(op string) int {
	n := 0
	for _, c := range rt.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (rt *recordingTask) ops() []string {
	out := make([]string, len(rt.calls))
	for i, c := range rt.calls {
		out[i] = c.op
	}
	return out
}

func (rt *recordingTask) reset() { rt.calls = nil }

// eventLog subscribes to a graph and keeps every event it emits.
type eventLog struct {
	events []Event
}

func recordEvents(g *Graph) *eventLog {
	l := &eventLog{}
	g.Subscribe(ObserverFunc(func(ev Event) { l.events = append(l.events, ev) }))
	return l
}

func (l *eventLog) kinds() []EventKind {
	out := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

func (l *eventLog) count(k EventKind) int {
	n := 0
	for _, ev := range l.events {
		if ev.Kind == k {
			n++
		}
	}
	return n
}

func (l *eventLog) reset() { l.events = nil }

func addLayer(t *testing.T, g *Graph, rt *recordingTask, opts ...LayerOption) LayerRef {
	t.Helper()
	ref, err := g.AddLayer(rt, opts...)
	require.NoError(t, err)
	return ref
}

func addFile(t *testing.T, g *Graph, id string) *fakeFile {
	t.Helper()
	f := &fakeFile{id: id}
	_, err := g.AddInputFile(f)
	require.NoError(t, err)
	return f
}

func connectFile(t *testing.T, g *Graph, f task.FileHandle, target LayerRef, ch task.Channel) ConnectionRef {
	t.Helper()
	ref, err := g.ConnectInputToFile(f, target, ch)
	require.NoError(t, err)
	return ref
}

func connectLayer(t *testing.T, g *Graph, source, target LayerRef, ch task.Channel) ConnectionRef {
	t.Helper()
	ref, err := g.ConnectInputToLayerOutput(source, target, ch)
	require.NoError(t, err)
	return ref
}

func mustLayer(t *testing.T, ref LayerRef) *Layer {
	t.Helper()
	l, ok := ref.Get()
	require.True(t, ok, "%s should resolve", ref)
	return l
}

func indexOf(order []LayerRef, ref LayerRef) int {
	for i, r := range order {
		if r == ref {
			return i
		}
	}
	return -1
}
