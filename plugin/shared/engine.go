package shared

import (
	"database/sql"
	"net/rpc"

	"github.com/hashicorp/go-plugin"

	"github.com/DD-DeCaF/metabolic-ninja/pkg/pathway"
)

// Handshake is a common handshake that is shared by plugin and host.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "METABOLIC_NINJA_PLUGIN",
	MagicCookieValue: "engine",
}

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]plugin.Plugin{
	"engine": &EnginePlugin{},
}

// FluxTarget is a single reaction or gene targeted by a strain design. For
// differential FVA targets the fold change compares production flux against
// the reference; Inverted marks targets whose flux changes sign rather than
// magnitude.
type FluxTarget struct {
	ID                string
	FoldChange        float64
	Value             float64
	Inverted          bool
	Knockout          bool
	FluxReversal      bool
	SuddenlyEssential bool
}

// Design is one strain design proposed by an optimization method together
// with its evaluation under the production objective. The evaluation fields
// are invalid when the underlying optimization was infeasible. They are
// nullable structs rather than pointers because gob drops zero-valued
// fields, and a zero growth rate is a legitimate evaluation result.
type Design struct {
	Targets []FluxTarget
	Fitness sql.NullFloat64
	Yield   sql.NullFloat64
	Product sql.NullFloat64
	Biomass sql.NullFloat64
}

// FindProductArgs requests the translation of a product name to a
// metabolite of the universal reaction database.
type FindProductArgs struct {
	ProductName string
	Source      *pathway.Model
}

// PredictPathwaysArgs requests heterologous pathway predictions towards the
// given product metabolite.
type PredictPathwaysArgs struct {
	ProductID      string
	Model          *pathway.Model
	Source         *pathway.Model
	MaxPredictions int
}

// OptimizeArgs carries the host model and one predicted pathway to an
// optimization method.
type OptimizeArgs struct {
	Model   *pathway.Model
	Pathway pathway.Pathway
}

// Engine is the interface exposed by engine plugins. Implementations own the
// linear programming and heuristic search; the host process orchestrates the
// workflow and assembles results.
type Engine interface {
	FindProduct(args FindProductArgs) (pathway.Metabolite, error)
	PredictPathways(args PredictPathwaysArgs) ([]pathway.Pathway, error)
	ProductionFlux(args OptimizeArgs) (map[string]float64, error)
	DifferentialFVA(args OptimizeArgs) ([]Design, error)
	OptGene(args OptimizeArgs) ([]Design, error)
	CofactorSwap(args OptimizeArgs) ([]Design, error)
}

// EnginePlugin implements plugin.Plugin to serve an Engine over net/rpc.
type EnginePlugin struct {
	Impl Engine
}

func (p *EnginePlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

func (p *EnginePlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}

// Serve runs the given engine implementation as a plugin binary. It never
// returns; call it from the plugin's main function.
func Serve(impl Engine) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			"engine": &EnginePlugin{Impl: impl},
		},
	})
}
