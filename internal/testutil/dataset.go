package testutil

// Minimal file contents, one per input format family.
const (
	RotationFile         = "1 0.0 90.0 0.0 0.0 000 !\n"
	CoastlinesFile       = `<gpml:FeatureCollection><gpml:Coastline/></gpml:FeatureCollection>`
	TopologyNetworkFile  = `<gpml:FeatureCollection><gpml:TopologicalNetwork/></gpml:FeatureCollection>`
	TopologyBoundaryFile = `<gpml:FeatureCollection><gpml:TopologicalClosedPlateBoundary/></gpml:FeatureCollection>`
	RasterFile           = "CDF\x01"
)

// Dataset returns one file of every format that auto-creates a layer.
func Dataset() map[string]string {
	return map[string]string{
		"rotations.rot":   RotationFile,
		"coastlines.gpml": CoastlinesFile,
		"boundaries.gpml": TopologyBoundaryFile,
		"networks.gpml":   TopologyNetworkFile,
		"agegrid.nc":      RasterFile,
	}
}
