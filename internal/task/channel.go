package task

import (
	"fmt"
	"slices"
)

// Channel names an input role of a layer.
type Channel int

const (
	ChannelReconstructionFeatures Channel = iota
	ChannelReconstructionTree
	ChannelReconstructableFeatures
	ChannelTopologicalGeometryFeatures
	ChannelTopologicalNetworkFeatures
	ChannelTopologicalSectionLayers
	ChannelVelocityDomainFeatures
	ChannelVelocitySurfaceLayers
	ChannelRasterFeature
	ChannelReconstructedPolygons
	ChannelAgeGridRaster
	ChannelNormalMapRaster
)

var channelNames = map[Channel]string{
	ChannelReconstructionFeatures:      "reconstruction_features",
	ChannelReconstructionTree:          "reconstruction_tree",
	ChannelReconstructableFeatures:     "reconstructable_features",
	ChannelTopologicalGeometryFeatures: "topological_geometry_features",
	ChannelTopologicalNetworkFeatures:  "topological_network_features",
	ChannelTopologicalSectionLayers:    "topological_section_layers",
	ChannelVelocityDomainFeatures:      "velocity_domain_features",
	ChannelVelocitySurfaceLayers:       "velocity_surface_layers",
	ChannelRasterFeature:               "raster_feature",
	ChannelReconstructedPolygons:       "reconstructed_polygons",
	ChannelAgeGridRaster:               "age_grid_raster",
	ChannelNormalMapRaster:             "normal_map_raster",
}

func (c Channel) String() string {
	if name, ok := channelNames[c]; ok {
		return name
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// ParseChannel converts the persisted name of a channel back into a Channel.
func ParseChannel(s string) (Channel, error) {
	for c, name := range channelNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown input channel: %q", s)
}

// Arity says how many connections a channel is meant to hold.
type Arity int

const (
	OneDataInChannel Arity = iota
	MultipleDataInChannel
)

// ChannelDefinition describes one input channel of a task. A channel accepts
// either files or the outputs of a fixed set of layer kinds, never both.
type ChannelDefinition struct {
	Channel Channel
	Arity   Arity
	// AcceptsFiles is true when the channel is fed by input files.
	AcceptsFiles bool
	// LayerKinds lists the upstream kinds accepted when AcceptsFiles is false.
	LayerKinds []Kind
}

// FileChannel builds a definition for a channel fed by files.
func FileChannel(ch Channel, arity Arity) ChannelDefinition {
	return ChannelDefinition{Channel: ch, Arity: arity, AcceptsFiles: true}
}

// LayerChannel builds a definition for a channel fed by layer outputs.
func LayerChannel(ch Channel, arity Arity, kinds ...Kind) ChannelDefinition {
	return ChannelDefinition{Channel: ch, Arity: arity, LayerKinds: kinds}
}

// AcceptsLayer reports whether the output of a layer of kind k may feed the
// channel.
func (d ChannelDefinition) AcceptsLayer(k Kind) bool {
	return !d.AcceptsFiles && slices.Contains(d.LayerKinds, k)
}

// FindChannel returns the definition of ch within defs.
func FindChannel(defs []ChannelDefinition, ch Channel) (ChannelDefinition, bool) {
	for _, d := range defs {
		if d.Channel == ch {
			return d, true
		}
	}
	return ChannelDefinition{}, false
}
