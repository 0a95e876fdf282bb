package layers

import "github.com/vk/recongraph/internal/task"

// Output is what every layer except the reconstruction tree produces for one
// update cycle. It records which reconstruction tree was applied to which
// inputs; the geometry itself is computed elsewhere.
type Output struct {
	Kind          task.Kind
	Time          float64
	AnchorPlateID uint64

	// Tree is the reconstruction tree the layer used.
	Tree *task.ReconstructionTree

	// Files are the ids of the files feeding the layer.
	Files []string

	// Upstream holds the valid outputs of connected layers by channel.
	Upstream map[task.Channel][]any

	// Params is the layer configuration at compute time.
	Params map[string]any

	Revision uint64
}
