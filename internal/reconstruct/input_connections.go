package reconstruct

import (
	"slices"

	"github.com/vk/recongraph/internal/task"
)

// InputConnections owns the connections feeding a layer, bucketed by input
// channel. Readers always get snapshots because callers routinely disconnect
// while iterating.
type InputConnections struct {
	buckets map[task.Channel][]*Connection
}

func newInputConnections() *InputConnections {
	return &InputConnections{buckets: make(map[task.Channel][]*Connection)}
}

// add transfers ownership of c to the layer.
func (ic *InputConnections) add(ch task.Channel, c *Connection) {
	ic.buckets[ch] = append(ic.buckets[ch], c)
}

// remove erases c from its channel bucket and destroys it. It reports false
// when c is not owned by this layer on ch.
func (ic *InputConnections) remove(ch task.Channel, c *Connection) bool {
	bucket := ic.buckets[ch]
	i := slices.Index(bucket, c)
	if i < 0 {
		return false
	}
	bucket = slices.Delete(bucket, i, i+1)
	if len(bucket) == 0 {
		delete(ic.buckets, ch)
	} else {
		ic.buckets[ch] = bucket
	}
	c.destroy()
	return true
}

// Get returns a snapshot of the connections on ch in connection order.
func (ic *InputConnections) Get(ch task.Channel) []*Connection {
	return slices.Clone(ic.buckets[ch])
}

// All returns a snapshot of every connection, channel by channel in channel
// order.
func (ic *InputConnections) All() []*Connection {
	channels := make([]task.Channel, 0, len(ic.buckets))
	for ch := range ic.buckets {
		channels = append(channels, ch)
	}
	slices.Sort(channels)

	var out []*Connection
	for _, ch := range channels {
		out = append(out, ic.buckets[ch]...)
	}
	return out
}

// Len is the total number of input connections.
func (ic *InputConnections) Len() int {
	n := 0
	for _, bucket := range ic.buckets {
		n += len(bucket)
	}
	return n
}
