package shared

import (
	"net/rpc"

	"github.com/DD-DeCaF/metabolic-ninja/pkg/pathway"
)

// RPCClient is an implementation of Engine that talks over RPC.
type RPCClient struct{ client *rpc.Client }

func (e *RPCClient) FindProduct(args FindProductArgs) (pathway.Metabolite, error) {
	var resp pathway.Metabolite
	err := e.client.Call("Plugin.FindProduct", args, &resp)
	return resp, err
}

func (e *RPCClient) PredictPathways(args PredictPathwaysArgs) ([]pathway.Pathway, error) {
	var resp []pathway.Pathway
	err := e.client.Call("Plugin.PredictPathways", args, &resp)
	return resp, err
}

func (e *RPCClient) ProductionFlux(args OptimizeArgs) (map[string]float64, error) {
	var resp map[string]float64
	err := e.client.Call("Plugin.ProductionFlux", args, &resp)
	return resp, err
}

func (e *RPCClient) DifferentialFVA(args OptimizeArgs) ([]Design, error) {
	var resp []Design
	err := e.client.Call("Plugin.DifferentialFVA", args, &resp)
	return resp, err
}

func (e *RPCClient) OptGene(args OptimizeArgs) ([]Design, error) {
	var resp []Design
	err := e.client.Call("Plugin.OptGene", args, &resp)
	return resp, err
}

func (e *RPCClient) CofactorSwap(args OptimizeArgs) ([]Design, error) {
	var resp []Design
	err := e.client.Call("Plugin.CofactorSwap", args, &resp)
	return resp, err
}

// Here is the RPC server that RPCClient talks to, conforming to
// the requirements of net/rpc
type RPCServer struct {
	// This is the real implementation
	Impl Engine
}

func (s *RPCServer) FindProduct(args FindProductArgs, resp *pathway.Metabolite) error {
	v, err := s.Impl.FindProduct(args)
	*resp = v
	return err
}

func (s *RPCServer) PredictPathways(args PredictPathwaysArgs, resp *[]pathway.Pathway) error {
	v, err := s.Impl.PredictPathways(args)
	*resp = v
	return err
}

func (s *RPCServer) ProductionFlux(args OptimizeArgs, resp *map[string]float64) error {
	v, err := s.Impl.ProductionFlux(args)
	*resp = v
	return err
}

func (s *RPCServer) DifferentialFVA(args OptimizeArgs, resp *[]Design) error {
	v, err := s.Impl.DifferentialFVA(args)
	*resp = v
	return err
}

func (s *RPCServer) OptGene(args OptimizeArgs, resp *[]Design) error {
	v, err := s.Impl.OptGene(args)
	*resp = v
	return err
}

func (s *RPCServer) CofactorSwap(args OptimizeArgs, resp *[]Design) error {
	v, err := s.Impl.CofactorSwap(args)
	*resp = v
	return err
}
