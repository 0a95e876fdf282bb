package reconstruct

import (
	"github.com/vk/recongraph/internal/task"
)

// Connection is a directed edge: data feeds one input channel of a layer.
//
// The receiving layer's InputConnections owns the connection; the connection
// holds a strong reference to its source data and a plain back reference to
// the receiving layer.
type Connection struct {
	g *Graph
	h handle

	source  *Data
	target  *Layer
	channel task.Channel

	// sourceActive caches whether the source was active when last observed.
	// Input files are always active.
	sourceActive bool

	// targetDestroying is set in the first phase of a layer's teardown so
	// the second phase does not call into the dying layer's task.
	targetDestroying bool

	destroyed bool
}

// newConnection registers the connection with its source and announces it to
// the receiving task. Output from an inactive layer is not announced.
func newConnection(g *Graph, source *Data, target *Layer, ch task.Channel, sourceActive bool) *Connection {
	c := &Connection{
		g:            g,
		source:       source,
		target:       target,
		channel:      ch,
		sourceActive: sourceActive,
	}
	c.h = g.connections.insert(c)
	source.addObserver(c)
	c.announce()
	connectionsGauge.Inc()
	return c
}

// announce tells the receiving task the connection exists.
func (c *Connection) announce() {
	if f, ok := c.source.AsExternalInput(); ok {
		c.target.task.AddInputFileConnection(c.channel, f)
		return
	}
	if p, ok := c.source.AsLayerOutput(); ok && c.sourceActive {
		c.target.task.AddInputLayerProxyConnection(c.channel, p)
	}
}

// Ref returns a weak handle to the connection.
func (c *Connection) Ref() ConnectionRef {
	return ConnectionRef{g: c.g, h: c.h}
}

// Channel is the input channel of the receiving layer fed by this connection.
func (c *Connection) Channel() task.Channel {
	return c.channel
}

// Source is the data read by this connection.
func (c *Connection) Source() *Data {
	return c.source
}

// SourceFile returns the input file when the source is a file.
func (c *Connection) SourceFile() (task.FileHandle, bool) {
	return c.source.AsExternalInput()
}

// SourceLayer returns the layer whose output feeds this connection.
func (c *Connection) SourceLayer() (LayerRef, bool) {
	return c.source.OutputtingLayer()
}

// ReceivingLayer returns the layer this connection feeds.
func (c *Connection) ReceivingLayer() LayerRef {
	return c.target.Ref()
}

// IsSourceActive reports the cached activation state of the source.
func (c *Connection) IsSourceActive() bool {
	return c.sourceActive
}

// notifySourceActivationChanged flips the cached source state and forwards
// the change to the receiving task. The edge itself is kept.
func (c *Connection) notifySourceActivationChanged(active bool) {
	assert(active != c.sourceActive, "Connection.notifySourceActivationChanged",
		"source of %s already has activation %t", c.Ref(), active)
	c.sourceActive = active
	if c.targetDestroying {
		return
	}
	p, ok := c.source.AsLayerOutput()
	if !ok {
		return
	}
	if active {
		c.target.task.AddInputLayerProxyConnection(c.channel, p)
	} else {
		c.target.task.RemoveInputLayerProxyConnection(c.channel, p)
	}
}

// notifySourceModified forwards a file modification. Layer outputs are
// recomputed every cycle and need no such notice.
func (c *Connection) notifySourceModified() {
	if c.targetDestroying {
		return
	}
	if f, ok := c.source.AsExternalInput(); ok {
		c.target.task.ModifiedInputFile(c.channel, f)
	}
}

// markReceivingLayerDestroying is phase one of a layer teardown.
func (c *Connection) markReceivingLayerDestroying() {
	c.targetDestroying = true
}

// detachFromReceivingLayer removes the connection from its receiving layer
// without emitting graph events. It is the cascade path used when a source
// file or layer goes away.
func (c *Connection) detachFromReceivingLayer() {
	removed := c.target.inputs.remove(c.channel, c)
	assert(removed, "Connection.detachFromReceivingLayer",
		"%s missing from the input connections of %s", c.Ref(), c.target.Ref())
}

// disconnect is the explicit, user-driven removal. It is the only path that
// emits the about-to-remove/removed event pair.
func (c *Connection) disconnect() {
	ev := c.event(ConnectionAboutToBeRemoved)
	c.g.emit(ev)
	c.detachFromReceivingLayer()
	ev.Kind = ConnectionRemoved
	c.g.emit(ev)
}

// destroy is phase two of a teardown. Unless the receiving layer is being
// destroyed it mirrors the announcement made at construction; it then always
// leaves the source's observer set.
func (c *Connection) destroy() {
	assert(!c.destroyed, "Connection.destroy", "%s destroyed twice", c.Ref())
	if !c.targetDestroying {
		if f, ok := c.source.AsExternalInput(); ok {
			c.target.task.RemoveInputFileConnection(c.channel, f)
		} else if p, ok := c.source.AsLayerOutput(); ok && c.sourceActive {
			c.target.task.RemoveInputLayerProxyConnection(c.channel, p)
		}
	}
	c.source.removeObserver(c)
	c.g.connections.remove(c.h)
	c.destroyed = true
	connectionsGauge.Dec()
}

func (c *Connection) event(kind EventKind) Event {
	ev := Event{
		Kind:       kind,
		Graph:      c.g,
		Layer:      c.target.Ref(),
		LayerKind:  c.target.Kind(),
		Connection: c.Ref(),
		Channel:    c.channel,
	}
	if f, ok := c.source.AsExternalInput(); ok {
		ev.File = f
	} else if ref, ok := c.source.OutputtingLayer(); ok {
		ev.SourceLayer = ref
	}
	return ev
}
