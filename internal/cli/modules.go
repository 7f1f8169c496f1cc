package cli

import (
	"github.com/layerkit/layerstack/internal/layer"
	"github.com/layerkit/layerstack/layers/echo"
	"github.com/layerkit/layerstack/layers/pickdata"
	"github.com/layerkit/layerstack/layers/setvalue"
)

// coreLayers is the definitive list of all layer definitions that are
// compiled into the layerstack binary.
var coreLayers = []layer.Module{
	&echo.Module{},
	&setvalue.Module{},
	&pickdata.Module{},
}
