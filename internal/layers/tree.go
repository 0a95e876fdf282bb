package layers

import (
	"context"

	"github.com/vk/recongraph/internal/task"
)

// ReconstructionTree builds the rotation tree from total reconstruction pole
// files. Its output is a *task.ReconstructionTree, which makes it eligible as
// the graph's default layer.
type ReconstructionTree struct {
	inputs
}

func NewReconstructionTree() *ReconstructionTree {
	return &ReconstructionTree{inputs: newInputs()}
}

func (t *ReconstructionTree) Kind() task.Kind { return task.KindReconstructionTree }

func (t *ReconstructionTree) InputChannels() []task.ChannelDefinition {
	return []task.ChannelDefinition{
		task.FileChannel(task.ChannelReconstructionFeatures, task.MultipleDataInChannel),
	}
}

func (t *ReconstructionTree) MainInputChannel() task.Channel {
	return task.ChannelReconstructionFeatures
}

// Compute returns the identity tree when no rotation file is connected.
func (t *ReconstructionTree) Compute(ctx context.Context, state task.State) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files := t.fileIDs(task.ChannelReconstructionFeatures)
	if len(files) == 0 {
		return task.IdentityReconstructionTree(state.Time, state.AnchorPlateID), nil
	}
	return &task.ReconstructionTree{
		Time:          state.Time,
		AnchorPlateID: state.AnchorPlateID,
		RotationFiles: files,
	}, nil
}
