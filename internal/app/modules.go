package app

import (
	"github.com/vk/recongraph/internal/layers"
	"github.com/vk/recongraph/internal/registry"
)

// coreModules is the definitive list of all layer modules that are compiled
// into the recongraph binary.
var coreModules = []registry.Module{
	&layers.Module{},
}
