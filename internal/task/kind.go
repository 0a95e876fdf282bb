package task

import "fmt"

// Kind is the type of a layer.
type Kind int

const (
	// KindReconstructionTree builds a rotation tree from total reconstruction
	// poles. It is the only kind that can be the graph's default layer.
	KindReconstructionTree Kind = iota
	KindReconstruct
	KindTopologyGeometryResolver
	KindTopologyNetworkResolver
	KindVelocityFieldCalculator
	KindRaster
)

var kindNames = map[Kind]string{
	KindReconstructionTree:       "reconstruction_tree",
	KindReconstruct:              "reconstruct",
	KindTopologyGeometryResolver: "topology_geometry_resolver",
	KindTopologyNetworkResolver:  "topology_network_resolver",
	KindVelocityFieldCalculator:  "velocity_field_calculator",
	KindRaster:                   "raster",
}

// Kinds lists every layer kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindReconstructionTree,
		KindReconstruct,
		KindTopologyGeometryResolver,
		KindTopologyNetworkResolver,
		KindVelocityFieldCalculator,
		KindRaster,
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts the persisted name of a kind back into a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown layer kind: %q", s)
}
