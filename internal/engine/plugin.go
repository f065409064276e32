package engine

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-plugin"

	"github.com/DD-DeCaF/metabolic-ninja/pkg/pathway"
	"github.com/DD-DeCaF/metabolic-ninja/plugin/shared"
)

// PluginEngine drives an engine plugin binary over net/rpc.
type PluginEngine struct {
	client *plugin.Client
	engine shared.Engine
}

// PluginLoader launches the engine binary at Path for every job.
type PluginLoader struct {
	Path string
}

func (l PluginLoader) Load() (Engine, error) {
	return LoadPlugin(l.Path)
}

func LoadPlugin(path string) (*PluginEngine, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  shared.Handshake,
		Plugins:          shared.PluginMap,
		Cmd:              exec.Command(path),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		return nil, fmt.Errorf("error establishing RPC connection: %w", err)
	}

	raw, err := rpcClient.Dispense("engine")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("error dispensing 'engine': %w", err)
	}

	engine, ok := raw.(shared.Engine)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("dispensed interface 'engine' is not of expected type shared.Engine (actual type: %T)", raw)
	}

	return &PluginEngine{
		client: client,
		engine: engine,
	}, nil
}

// call runs the RPC in a goroutine so that a cancelled context can abort a
// long-running optimization. The plugin process is killed on cancellation;
// the in-flight call then unblocks with a connection error.
func (e *PluginEngine) call(ctx context.Context, op string, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	case <-ctx.Done():
		e.client.Kill()
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

func (e *PluginEngine) FindProduct(ctx context.Context, productName string, source *pathway.Model) (pathway.Metabolite, error) {
	var product pathway.Metabolite
	err := e.call(ctx, "find product", func() error {
		var err error
		product, err = e.engine.FindProduct(shared.FindProductArgs{
			ProductName: productName,
			Source:      source,
		})
		return err
	})
	return product, err
}

func (e *PluginEngine) PredictPathways(ctx context.Context, productID string, model, source *pathway.Model, maxPredictions int) ([]pathway.Pathway, error) {
	var pathways []pathway.Pathway
	err := e.call(ctx, "predict pathways", func() error {
		var err error
		pathways, err = e.engine.PredictPathways(shared.PredictPathwaysArgs{
			ProductID:      productID,
			Model:          model,
			Source:         source,
			MaxPredictions: maxPredictions,
		})
		return err
	})
	return pathways, err
}

func (e *PluginEngine) ProductionFlux(ctx context.Context, model *pathway.Model, p pathway.Pathway) (map[string]float64, error) {
	var flux map[string]float64
	err := e.call(ctx, "production flux", func() error {
		var err error
		flux, err = e.engine.ProductionFlux(shared.OptimizeArgs{Model: model, Pathway: p})
		return err
	})
	return flux, err
}

func (e *PluginEngine) DifferentialFVA(ctx context.Context, model *pathway.Model, p pathway.Pathway) ([]shared.Design, error) {
	var designs []shared.Design
	err := e.call(ctx, "differential FVA", func() error {
		var err error
		designs, err = e.engine.DifferentialFVA(shared.OptimizeArgs{Model: model, Pathway: p})
		return err
	})
	return designs, err
}

func (e *PluginEngine) OptGene(ctx context.Context, model *pathway.Model, p pathway.Pathway) ([]shared.Design, error) {
	var designs []shared.Design
	err := e.call(ctx, "OptGene", func() error {
		var err error
		designs, err = e.engine.OptGene(shared.OptimizeArgs{Model: model, Pathway: p})
		return err
	})
	return designs, err
}

func (e *PluginEngine) CofactorSwap(ctx context.Context, model *pathway.Model, p pathway.Pathway) ([]shared.Design, error) {
	var designs []shared.Design
	err := e.call(ctx, "co-factor swap", func() error {
		var err error
		designs, err = e.engine.CofactorSwap(shared.OptimizeArgs{Model: model, Pathway: p})
		return err
	})
	return designs, err
}

func (e *PluginEngine) Release() {
	if e.client == nil {
		return
	}
	e.client.Kill()
}
