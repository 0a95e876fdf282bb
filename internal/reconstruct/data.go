package reconstruct

import (
	"github.com/vk/recongraph/internal/task"
)

// dataSource is the sealed sum type behind Data. Its two variants are
// externalInput and layerOutput.
type dataSource interface {
	isDataSource()
}

type externalInput struct {
	file task.FileHandle
}

type layerOutput struct {
	proxy *outputProxy
}

func (externalInput) isDataSource() {}
func (layerOutput) isDataSource()   {}

// Data is a node that connections read from: either an input file registered
// with the graph or the output of one layer. The variant never changes.
type Data struct {
	source dataSource

	// layer is set once, for layer outputs only.
	layer    LayerRef
	layerSet bool

	// observers are the connections currently reading this data. The slice
	// keeps a stable iteration order, index makes removal O(1).
	observers []*Connection
	index     map[*Connection]int

	disposed bool
}

func newExternalInputData(f task.FileHandle) *Data {
	return &Data{
		source: externalInput{file: f},
		index:  make(map[*Connection]int),
	}
}

func newLayerOutputData(p *outputProxy) *Data {
	return &Data{
		source: layerOutput{proxy: p},
		index:  make(map[*Connection]int),
	}
}

// AsExternalInput returns the file when the data wraps an input file.
func (d *Data) AsExternalInput() (task.FileHandle, bool) {
	if src, ok := d.source.(externalInput); ok {
		return src.file, true
	}
	return nil, false
}

// AsLayerOutput returns the output proxy when the data is a layer output.
func (d *Data) AsLayerOutput() (task.Proxy, bool) {
	if src, ok := d.source.(layerOutput); ok {
		return src.proxy, true
	}
	return nil, false
}

func (d *Data) proxy() *outputProxy {
	if src, ok := d.source.(layerOutput); ok {
		return src.proxy
	}
	return nil
}

// OutputtingLayer returns the layer producing this data while that layer
// still exists.
func (d *Data) OutputtingLayer() (LayerRef, bool) {
	if !d.layerSet || !d.layer.IsValid() {
		return LayerRef{}, false
	}
	return d.layer, true
}

func (d *Data) outputtingLayer() (*Layer, bool) {
	if !d.layerSet {
		return nil, false
	}
	return d.layer.Get()
}

// setOutputtingLayer links a layer output to its layer. It may be called once.
func (d *Data) setOutputtingLayer(ref LayerRef) error {
	const op = "Data.setOutputtingLayer"
	if _, ok := d.source.(layerOutput); !ok {
		return preconditionf(op, "data wraps an input file")
	}
	if d.layerSet {
		return preconditionf(op, "outputting layer already set to %s", d.layer)
	}
	if !ref.IsValid() {
		return preconditionf(op, "%s does not exist", ref)
	}
	d.layer = ref
	d.layerSet = true
	return nil
}

// Observers returns a snapshot of the connections reading this data.
func (d *Data) Observers() []*Connection {
	out := make([]*Connection, len(d.observers))
	copy(out, d.observers)
	return out
}

// IsDisposed reports whether the data's file was unregistered or its layer
// removed.
func (d *Data) IsDisposed() bool {
	return d.disposed
}

func (d *Data) addObserver(c *Connection) {
	if _, ok := d.index[c]; ok {
		return
	}
	d.index[c] = len(d.observers)
	d.observers = append(d.observers, c)
}

func (d *Data) removeObserver(c *Connection) {
	i, ok := d.index[c]
	if !ok {
		return
	}
	last := len(d.observers) - 1
	if i != last {
		moved := d.observers[last]
		d.observers[i] = moved
		d.index[moved] = i
	}
	d.observers[last] = nil
	d.observers = d.observers[:last]
	delete(d.index, c)
}

// disconnectAllObservers severs every connection reading this data from its
// receiving layer. It iterates a snapshot because each connection removes
// itself from the live set as it is torn down.
func (d *Data) disconnectAllObservers() {
	for _, c := range d.Observers() {
		c.detachFromReceivingLayer()
	}
	assert(len(d.observers) == 0, "Data.disconnectAllObservers",
		"%d connections still observe the data after disconnecting all", len(d.observers))
}

func (d *Data) dispose() {
	assert(len(d.observers) == 0, "Data.dispose", "data disposed with %d observers", len(d.observers))
	d.disposed = true
	if p := d.proxy(); p != nil {
		p.invalidate()
	}
}

// outputProxy is the task.Proxy behind a layer output. The identity fallback
// output has no layer and a fixed kind.
type outputProxy struct {
	layer *Layer
	kind  task.Kind
	value any
	valid bool
}

func (p *outputProxy) Kind() task.Kind {
	if p.layer != nil {
		return p.layer.task.Kind()
	}
	return p.kind
}

func (p *outputProxy) Output() (any, bool) {
	return p.value, p.valid
}

func (p *outputProxy) set(v any) {
	p.value = v
	p.valid = true
}

func (p *outputProxy) invalidate() {
	p.value = nil
	p.valid = false
}
