package task

// State is the reconstruction state handed to every task during an update
// cycle.
type State struct {
	// Time is the reconstruction time in Ma.
	Time float64
	// AnchorPlateID is the plate held fixed by the reconstruction.
	AnchorPlateID uint64
	// DefaultReconstructionTree is the output of the graph's default
	// reconstruction-tree layer, or the identity tree when there is none (or
	// it has not produced a valid output). It is never nil.
	DefaultReconstructionTree *ReconstructionTree
}

// ReconstructionTree is the output of a reconstruction-tree layer.
//
// The rotation math itself lives outside the graph; the tree records which
// rotation inputs were used for which time and anchor so that consumers can
// tell trees apart.
type ReconstructionTree struct {
	Time          float64
	AnchorPlateID uint64
	// RotationFiles are the ids of the rotation files the tree was built from.
	RotationFiles []string
	// Identity marks the fallback tree that rotates nothing.
	Identity bool
}

// IdentityReconstructionTree returns a tree that leaves every plate in place.
func IdentityReconstructionTree(time float64, anchor uint64) *ReconstructionTree {
	return &ReconstructionTree{Time: time, AnchorPlateID: anchor, Identity: true}
}
