package reconstruct

import (
	"fmt"

	"github.com/vk/recongraph/internal/task"
)

// EventKind enumerates the structural notifications emitted by a Graph.
type EventKind int

const (
	LayerAdded EventKind = iota + 1
	LayerAboutToBeRemoved
	LayerRemoved
	LayerActivationChanged
	LayerTaskChanged
	ConnectionAdded
	ConnectionAboutToBeRemoved
	ConnectionRemoved
	DefaultLayerChanged
	InputFileAdded
	InputFileAboutToBeRemoved
	InputFileModified
)

var eventKindNames = map[EventKind]string{
	LayerAdded:                 "layer_added",
	LayerAboutToBeRemoved:      "layer_about_to_be_removed",
	LayerRemoved:               "layer_removed",
	LayerActivationChanged:     "layer_activation_changed",
	LayerTaskChanged:           "layer_task_changed",
	ConnectionAdded:            "connection_added",
	ConnectionAboutToBeRemoved: "connection_about_to_be_removed",
	ConnectionRemoved:          "connection_removed",
	DefaultLayerChanged:        "default_layer_changed",
	InputFileAdded:             "input_file_added",
	InputFileAboutToBeRemoved:  "input_file_about_to_be_removed",
	InputFileModified:          "input_file_modified",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one structural notification. Fields that do not apply to Kind are
// left at their zero value.
type Event struct {
	Kind  EventKind
	Graph *Graph

	// Layer is the affected layer; for connection events it is the
	// receiving layer. After LayerRemoved it no longer resolves.
	Layer     LayerRef
	LayerKind task.Kind

	Connection ConnectionRef
	Channel    task.Channel

	// Exactly one of SourceLayer and File is set for connection events.
	SourceLayer LayerRef
	File        task.FileHandle

	OldDefault LayerRef
	NewDefault LayerRef

	// Active is the new activation state for LayerActivationChanged.
	Active bool
}

// Observer receives graph events synchronously, on the goroutine that
// mutated the graph.
type Observer interface {
	HandleEvent(ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev Event)

func (f ObserverFunc) HandleEvent(ev Event) { f(ev) }

type subscription struct {
	o Observer
}

// Subscribe registers o and returns a function that unregisters it. Calling
// the returned function more than once is harmless.
func (g *Graph) Subscribe(o Observer) func() {
	s := &subscription{o: o}
	g.observers = append(g.observers, s)
	return func() {
		for i, cur := range g.observers {
			if cur == s {
				g.observers = append(g.observers[:i:i], g.observers[i+1:]...)
				return
			}
		}
	}
}

// emit delivers ev in subscription order. Observers that subscribe or
// unsubscribe while handling the event take effect from the next event.
func (g *Graph) emit(ev Event) {
	subs := g.observers
	for _, s := range subs {
		s.o.HandleEvent(ev)
	}
}
