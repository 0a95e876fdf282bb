package filestate

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Format is the kind of data a loaded file holds, as far as the layer graph
// cares.
type Format int

const (
	FormatUnknown Format = iota
	FormatRotation
	FormatFeatures
	FormatTopologyGeometry
	FormatTopologyNetwork
	FormatRaster
)

var formatNames = map[Format]string{
	FormatUnknown:          "unknown",
	FormatRotation:         "rotation",
	FormatFeatures:         "features",
	FormatTopologyGeometry: "topology_geometry",
	FormatTopologyNetwork:  "topology_network",
	FormatRaster:           "raster",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

var extensionFormats = map[string]Format{
	".rot":     FormatRotation,
	".grot":    FormatRotation,
	".gpml":    FormatFeatures,
	".gpmlz":   FormatFeatures,
	".shp":     FormatFeatures,
	".geojson": FormatFeatures,
	".gmt":     FormatFeatures,
	".nc":      FormatRaster,
	".grd":     FormatRaster,
	".tif":     FormatRaster,
	".tiff":    FormatRaster,
}

// SupportedExtensions lists every file extension DetectFormat recognizes,
// sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionFormats))
	for ext := range extensionFormats {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// sniffLimit bounds how much of a feature file is scanned for topology
// element names.
const sniffLimit = 256 << 10

// DetectFormat classifies a file by extension. GPML feature collections are
// additionally scanned for topological features, which are resolved by
// dedicated layers.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := extensionFormats[ext]
	if !ok {
		return FormatUnknown, fmt.Errorf("unsupported file extension %q: %s", ext, path)
	}
	if ext != ".gpml" && ext != ".gpmlz" {
		return format, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if ext == ".gpmlz" {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return FormatUnknown, fmt.Errorf("reading compressed %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	head, err := io.ReadAll(io.LimitReader(r, sniffLimit))
	if err != nil {
		return FormatUnknown, fmt.Errorf("reading %s: %w", path, err)
	}

	switch {
	case bytes.Contains(head, []byte("gpml:TopologicalNetwork")):
		return FormatTopologyNetwork, nil
	case bytes.Contains(head, []byte("gpml:TopologicalClosedPlateBoundary")),
		bytes.Contains(head, []byte("gpml:TopologicalSlabBoundary")),
		bytes.Contains(head, []byte("gpml:TopologicalLine")):
		return FormatTopologyGeometry, nil
	}
	return FormatFeatures, nil
}
