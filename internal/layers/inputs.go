package layers

import (
	"slices"
	"sort"

	"github.com/vk/recongraph/internal/task"
)

// inputs is the input bookkeeping shared by every layer task. It records
// exactly what the graph has announced, in announcement order.
type inputs struct {
	files   map[task.Channel][]task.FileHandle
	proxies map[task.Channel][]task.Proxy
	active  bool

	// revision changes whenever the inputs or their contents change.
	revision uint64
}

func newInputs() inputs {
	return inputs{
		files:   make(map[task.Channel][]task.FileHandle),
		proxies: make(map[task.Channel][]task.Proxy),
		active:  true,
	}
}

func (in *inputs) AddInputFileConnection(ch task.Channel, f task.FileHandle) {
	in.files[ch] = append(in.files[ch], f)
	in.revision++
}

func (in *inputs) RemoveInputFileConnection(ch task.Channel, f task.FileHandle) {
	if i := slices.Index(in.files[ch], f); i >= 0 {
		in.files[ch] = slices.Delete(in.files[ch], i, i+1)
		in.revision++
	}
}

func (in *inputs) ModifiedInputFile(task.Channel, task.FileHandle) {
	in.revision++
}

func (in *inputs) AddInputLayerProxyConnection(ch task.Channel, p task.Proxy) {
	in.proxies[ch] = append(in.proxies[ch], p)
	in.revision++
}

func (in *inputs) RemoveInputLayerProxyConnection(ch task.Channel, p task.Proxy) {
	if i := slices.Index(in.proxies[ch], p); i >= 0 {
		in.proxies[ch] = slices.Delete(in.proxies[ch], i, i+1)
		in.revision++
	}
}

func (in *inputs) Activate(active bool) {
	in.active = active
}

// IsActive reports the activation state last announced by the graph.
func (in *inputs) IsActive() bool { return in.active }

// Revision changes whenever an input is added, removed or modified.
func (in *inputs) Revision() uint64 { return in.revision }

// fileIDs lists the ids of the files connected on ch.
func (in *inputs) fileIDs(ch task.Channel) []string {
	ids := make([]string, 0, len(in.files[ch]))
	for _, f := range in.files[ch] {
		ids = append(ids, f.FileID())
	}
	return ids
}

// allFileIDs lists the ids of all connected files, channel by channel.
func (in *inputs) allFileIDs() []string {
	channels := make([]task.Channel, 0, len(in.files))
	for ch := range in.files {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })

	var ids []string
	for _, ch := range channels {
		ids = append(ids, in.fileIDs(ch)...)
	}
	return ids
}

// upstream returns the valid outputs computed this cycle by the layers
// connected on ch. Failed or inactive upstream layers contribute nothing.
func (in *inputs) upstream(ch task.Channel) []any {
	var out []any
	for _, p := range in.proxies[ch] {
		if v, ok := p.Output(); ok {
			out = append(out, v)
		}
	}
	return out
}

// reconstructionTree prefers an explicitly connected reconstruction tree and
// falls back to the graph's default (or identity) tree.
func (in *inputs) reconstructionTree(state task.State) *task.ReconstructionTree {
	for _, v := range in.upstream(task.ChannelReconstructionTree) {
		if tree, ok := v.(*task.ReconstructionTree); ok && tree != nil {
			return tree
		}
	}
	return state.DefaultReconstructionTree
}

// summarize builds the output shared by every non-tree layer.
func (in *inputs) summarize(kind task.Kind, state task.State, channels []task.ChannelDefinition) *Output {
	out := &Output{
		Kind:          kind,
		Time:          state.Time,
		AnchorPlateID: state.AnchorPlateID,
		Tree:          in.reconstructionTree(state),
		Files:         in.allFileIDs(),
		Revision:      in.revision,
	}
	for _, def := range channels {
		if def.AcceptsFiles || def.Channel == task.ChannelReconstructionTree {
			continue
		}
		if vals := in.upstream(def.Channel); len(vals) > 0 {
			if out.Upstream == nil {
				out.Upstream = make(map[task.Channel][]any)
			}
			out.Upstream[def.Channel] = vals
		}
	}
	return out
}

// reconstructionTreeChannel is the optional explicit tree input shared by
// every non-tree layer.
var reconstructionTreeChannel = task.LayerChannel(task.ChannelReconstructionTree, task.OneDataInChannel, task.KindReconstructionTree)
