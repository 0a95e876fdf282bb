package reconstruct

import (
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/recongraph/internal/task"
)

const tracerName = "github.com/vk/recongraph/internal/reconstruct"

// Graph owns every layer, connection and input-file data of one
// reconstruction session, plus the default reconstruction-tree layer.
//
// A Graph is not safe for concurrent use. Mutations and Update must be
// serialized by the caller, typically on a single goroutine.
type Graph struct {
	logger *slog.Logger
	tracer trace.Tracer

	layers      arena[Layer]
	layerOrder  []*Layer
	connections arena[Connection]

	files     map[task.FileHandle]*Data
	fileOrder []task.FileHandle

	defaultLayer LayerRef

	// identity is the fallback output read when there is no usable default
	// layer. It exists for the whole life of the graph.
	identity      *Data
	identityProxy *outputProxy
	defaultTree   *task.ReconstructionTree

	observers []*subscription
	updating  bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for structural and update diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithTracer sets the tracer used for update spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Graph) {
		if tracer != nil {
			g.tracer = tracer
		}
	}
}

// New creates an empty graph whose default reconstruction tree is the
// identity tree.
func New(opts ...Option) *Graph {
	g := &Graph{
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer(tracerName),
		files:  make(map[task.FileHandle]*Data),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.identityProxy = &outputProxy{kind: task.KindReconstructionTree}
	g.identity = newLayerOutputData(g.identityProxy)
	g.defaultTree = task.IdentityReconstructionTree(0, 0)
	g.identityProxy.set(g.defaultTree)
	return g
}

func (g *Graph) checkMutable(op string) error {
	if g.updating {
		return &GraphError{Kind: ErrUpdating, Op: op}
	}
	return nil
}

func (g *Graph) resolveLayer(op string, ref LayerRef) (*Layer, error) {
	if ref.g != g {
		if ref.IsNone() {
			return nil, preconditionf(op, "no layer given")
		}
		return nil, preconditionf(op, "%s belongs to another graph", ref)
	}
	l, ok := ref.Get()
	if !ok {
		return nil, preconditionf(op, "%s does not exist", ref)
	}
	return l, nil
}

// IdentityOutput is the fallback reconstruction-tree output used when no
// default layer is set.
func (g *Graph) IdentityOutput() *Data {
	return g.identity
}

// AddInputFile registers a file with the graph and returns the data wrapping
// it. Registering a known file returns its existing data.
func (g *Graph) AddInputFile(f task.FileHandle) (*Data, error) {
	const op = "Graph.AddInputFile"
	if err := g.checkMutable(op); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, preconditionf(op, "nil file handle")
	}
	if d, ok := g.files[f]; ok {
		return d, nil
	}

	d := newExternalInputData(f)
	g.files[f] = d
	g.fileOrder = append(g.fileOrder, f)
	mutationsTotal.WithLabelValues("add_input_file").Inc()
	g.logger.Debug("Input file added.", "file", f.FileID())
	g.emit(Event{Kind: InputFileAdded, Graph: g, File: f})
	return d, nil
}

// InputFile returns the data wrapping f, if f is registered.
func (g *Graph) InputFile(f task.FileHandle) (*Data, bool) {
	d, ok := g.files[f]
	return d, ok
}

// InputFiles lists registered files in registration order.
func (g *Graph) InputFiles() []task.FileHandle {
	return slices.Clone(g.fileOrder)
}

// RemoveInputFile unregisters f. Auto-created layers whose main input is fed
// only by f are removed first; every other connection reading f is then torn
// down silently.
func (g *Graph) RemoveInputFile(f task.FileHandle) error {
	const op = "Graph.RemoveInputFile"
	if err := g.checkMutable(op); err != nil {
		return err
	}
	d, ok := g.files[f]
	if !ok {
		return preconditionf(op, "input file is not registered")
	}

	g.emit(Event{Kind: InputFileAboutToBeRemoved, Graph: g, File: f})

	for _, l := range slices.Clone(g.layerOrder) {
		if l.autoCreated && l.fedOnlyBy(d) {
			g.logger.Debug("Removing auto-created layer with its input file.",
				"layer", l.Ref(), "layer_kind", l.Kind(), "file", f.FileID())
			g.removeLayer(l)
		}
	}

	d.disconnectAllObservers()
	d.dispose()
	delete(g.files, f)
	if i := slices.Index(g.fileOrder, f); i >= 0 {
		g.fileOrder = slices.Delete(g.fileOrder, i, i+1)
	}
	mutationsTotal.WithLabelValues("remove_input_file").Inc()
	g.logger.Debug("Input file removed.", "file", f.FileID())
	return nil
}

// InputFileModified tells every layer reading f that its contents changed.
func (g *Graph) InputFileModified(f task.FileHandle) error {
	const op = "Graph.InputFileModified"
	if err := g.checkMutable(op); err != nil {
		return err
	}
	d, ok := g.files[f]
	if !ok {
		return preconditionf(op, "input file is not registered")
	}
	for _, c := range d.Observers() {
		c.notifySourceModified()
	}
	g.emit(Event{Kind: InputFileModified, Graph: g, File: f})
	return nil
}

// AddLayer creates an active layer running t. The layer starts without
// connections.
func (g *Graph) AddLayer(t task.Task, opts ...LayerOption) (LayerRef, error) {
	const op = "Graph.AddLayer"
	if err := g.checkMutable(op); err != nil {
		return LayerRef{}, err
	}
	if t == nil {
		return LayerRef{}, preconditionf(op, "nil task")
	}

	l := &Layer{
		graph:  g,
		task:   t,
		active: true,
		inputs: newInputConnections(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.output = newLayerOutputData(&outputProxy{layer: l})
	l.h = g.layers.insert(l)
	g.layerOrder = append(g.layerOrder, l)

	ref := l.Ref()
	if err := l.output.setOutputtingLayer(ref); err != nil {
		panic(assertionf(op, "linking output of new %s: %v", ref, err))
	}

	layersGauge.Inc()
	mutationsTotal.WithLabelValues("add_layer").Inc()
	g.logger.Debug("Layer added.", "layer", ref, "layer_kind", t.Kind(), "auto_created", l.autoCreated)
	g.emit(Event{Kind: LayerAdded, Graph: g, Layer: ref, LayerKind: t.Kind(), Active: true})
	return ref, nil
}

// Layers returns handles to every layer in creation order.
func (g *Graph) Layers() []LayerRef {
	refs := make([]LayerRef, len(g.layerOrder))
	for i, l := range g.layerOrder {
		refs[i] = l.Ref()
	}
	return refs
}

// RemoveLayer removes the layer and everything it owns. The default layer is
// cleared before any removal notification is sent.
func (g *Graph) RemoveLayer(ref LayerRef) error {
	const op = "Graph.RemoveLayer"
	if err := g.checkMutable(op); err != nil {
		return err
	}
	l, err := g.resolveLayer(op, ref)
	if err != nil {
		return err
	}
	g.removeLayer(l)
	return nil
}

func (g *Graph) removeLayer(l *Layer) {
	ref := l.Ref()
	kind := l.Kind()

	if g.defaultLayer == ref {
		g.setDefault(LayerRef{})
	}
	if l.activate(false) {
		g.emit(Event{Kind: LayerActivationChanged, Graph: g, Layer: ref, LayerKind: kind, Active: false})
	}
	g.emit(Event{Kind: LayerAboutToBeRemoved, Graph: g, Layer: ref, LayerKind: kind})

	l.destroy()
	if !g.layers.remove(l.h) {
		panic(assertionf("Graph.removeLayer", "%s missing from the layer arena", ref))
	}
	if i := slices.Index(g.layerOrder, l); i >= 0 {
		g.layerOrder = slices.Delete(g.layerOrder, i, i+1)
	}

	layersGauge.Dec()
	mutationsTotal.WithLabelValues("remove_layer").Inc()
	g.logger.Debug("Layer removed.", "layer", ref, "layer_kind", kind)
	g.emit(Event{Kind: LayerRemoved, Graph: g, Layer: ref, LayerKind: kind})
}

// SetLayerActive activates or deactivates a layer. Downstream connections
// keep existing; receiving tasks see the output appear or disappear.
func (g *Graph) SetLayerActive(ref LayerRef, active bool) error {
	const op = "Graph.SetLayerActive"
	if err := g.checkMutable(op); err != nil {
		return err
	}
	l, err := g.resolveLayer(op, ref)
	if err != nil {
		return err
	}
	if !l.activate(active) {
		return nil
	}
	mutationsTotal.WithLabelValues("set_layer_active").Inc()
	g.logger.Debug("Layer activation changed.", "layer", ref, "layer_kind", l.Kind(), "active", active)
	g.emit(Event{Kind: LayerActivationChanged, Graph: g, Layer: ref, LayerKind: l.Kind(), Active: active})
	return nil
}

// SetLayerTask replaces the task of a layer. The layer's output data and
// connections are kept and replayed to the new task. A default layer whose
// new task is not a reconstruction tree stops being the default.
func (g *Graph) SetLayerTask(ref LayerRef, t task.Task) error {
	const op = "Graph.SetLayerTask"
	if err := g.checkMutable(op); err != nil {
		return err
	}
	l, err := g.resolveLayer(op, ref)
	if err != nil {
		return err
	}
	if t == nil {
		return preconditionf(op, "nil task")
	}

	if g.defaultLayer == ref && t.Kind() != task.KindReconstructionTree {
		g.setDefault(LayerRef{})
	}
	l.setTask(t)

	mutationsTotal.WithLabelValues("set_layer_task").Inc()
	g.logger.Debug("Layer task changed.", "layer", ref, "layer_kind", t.Kind())
	g.emit(Event{Kind: LayerTaskChanged, Graph: g, Layer: ref, LayerKind: t.Kind(), Active: l.active})
	return nil
}

// SetLayerAutoCreated updates the auto-created bookkeeping flag.
func (g *Graph) SetLayerAutoCreated(ref LayerRef, autoCreated bool) error {
	const op = "Graph.SetLayerAutoCreated"
	if err := g.checkMutable(op); err != nil {
		return err
	}
	l, err := g.resolveLayer(op, ref)
	if err != nil {
		return err
	}
	l.autoCreated = autoCreated
	return nil
}

// ConnectInputToFile feeds the registered file f into channel ch of target.
func (g *Graph) ConnectInputToFile(f task.FileHandle, target LayerRef, ch task.Channel) (ConnectionRef, error) {
	const op = "Graph.ConnectInputToFile"
	if err := g.checkMutable(op); err != nil {
		return ConnectionRef{}, err
	}
	d, ok := g.files[f]
	if !ok {
		return ConnectionRef{}, preconditionf(op, "input file is not registered")
	}
	l, err := g.resolveLayer(op, target)
	if err != nil {
		return ConnectionRef{}, err
	}
	def, ok := task.FindChannel(l.task.InputChannels(), ch)
	if !ok {
		return ConnectionRef{}, preconditionf(op, "%s layer has no %s channel", l.Kind(), ch)
	}
	if !def.AcceptsFiles {
		return ConnectionRef{}, preconditionf(op, "%s channel of %s layer does not accept files", ch, l.Kind())
	}

	return g.connect(d, l, ch, true), nil
}

// ConnectInputToLayerOutput feeds the output of source into channel ch of
// target. Graph-level cycles are not rejected.
func (g *Graph) ConnectInputToLayerOutput(source, target LayerRef, ch task.Channel) (ConnectionRef, error) {
	const op = "Graph.ConnectInputToLayerOutput"
	if err := g.checkMutable(op); err != nil {
		return ConnectionRef{}, err
	}
	src, err := g.resolveLayer(op, source)
	if err != nil {
		return ConnectionRef{}, err
	}
	l, err := g.resolveLayer(op, target)
	if err != nil {
		return ConnectionRef{}, err
	}
	def, ok := task.FindChannel(l.task.InputChannels(), ch)
	if !ok {
		return ConnectionRef{}, preconditionf(op, "%s layer has no %s channel", l.Kind(), ch)
	}
	if !def.AcceptsLayer(src.Kind()) {
		return ConnectionRef{}, preconditionf(op, "%s channel of %s layer does not accept %s layers", ch, l.Kind(), src.Kind())
	}

	return g.connect(src.output, l, ch, src.active), nil
}

func (g *Graph) connect(d *Data, l *Layer, ch task.Channel, sourceActive bool) ConnectionRef {
	c := newConnection(g, d, l, ch, sourceActive)
	l.inputs.add(ch, c)

	mutationsTotal.WithLabelValues("connect").Inc()
	ev := c.event(ConnectionAdded)
	g.logger.Debug("Connection added.", "connection", ev.Connection, "layer", ev.Layer, "channel", ch)
	g.emit(ev)
	return c.Ref()
}

// Disconnect removes a connection, notifying observers before and after.
func (g *Graph) Disconnect(ref ConnectionRef) error {
	const op = "Graph.Disconnect"
	if err := g.checkMutable(op); err != nil {
		return err
	}
	if ref.g != g {
		return preconditionf(op, "%s does not belong to this graph", ref)
	}
	c, ok := ref.Get()
	if !ok {
		return preconditionf(op, "%s does not exist", ref)
	}
	c.disconnect()
	mutationsTotal.WithLabelValues("disconnect").Inc()
	g.logger.Debug("Connection removed.", "connection", ref)
	return nil
}

// Connections returns handles to every connection, grouped by receiving layer
// in layer creation order.
func (g *Graph) Connections() []ConnectionRef {
	var refs []ConnectionRef
	for _, l := range g.layerOrder {
		for _, c := range l.inputs.All() {
			refs = append(refs, c.Ref())
		}
	}
	return refs
}

// SetDefaultReconstructionTreeLayer designates the layer whose output is the
// implicit reconstruction tree of every other layer. The zero LayerRef clears
// the default.
func (g *Graph) SetDefaultReconstructionTreeLayer(ref LayerRef) error {
	const op = "Graph.SetDefaultReconstructionTreeLayer"
	if err := g.checkMutable(op); err != nil {
		return err
	}
	if ref == g.defaultLayer {
		return nil
	}
	if !ref.IsNone() {
		l, err := g.resolveLayer(op, ref)
		if err != nil {
			return err
		}
		if l.Kind() != task.KindReconstructionTree {
			return preconditionf(op, "%s is a %s layer, not a %s layer", ref, l.Kind(), task.KindReconstructionTree)
		}
	}
	g.setDefault(ref)
	return nil
}

func (g *Graph) setDefault(ref LayerRef) {
	old := g.defaultLayer
	if old == ref {
		return
	}
	g.defaultLayer = ref
	mutationsTotal.WithLabelValues("set_default_layer").Inc()
	g.logger.Debug("Default reconstruction tree layer changed.", "old", old, "new", ref)
	g.emit(Event{Kind: DefaultLayerChanged, Graph: g, Layer: ref, OldDefault: old, NewDefault: ref})
}

// DefaultReconstructionTreeLayer returns the default layer, if one is set.
func (g *Graph) DefaultReconstructionTreeLayer() (LayerRef, bool) {
	if g.defaultLayer.IsNone() {
		return LayerRef{}, false
	}
	return g.defaultLayer, true
}

// DefaultReconstructionTree is the tree produced for the default slot in the
// last update cycle, or the identity tree.
func (g *Graph) DefaultReconstructionTree() *task.ReconstructionTree {
	return g.defaultTree
}
