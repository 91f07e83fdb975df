// Package executor runs a graph.Graph to completion: a topological walk
// that calls each node's Operator.Process in dependency order and collects
// the values of every node marked ToRetrieve. It is deliberately minimal —
// spec.md §1 lists "the execution/scheduling layer that walks the graph and
// invokes Process in order" as an out-of-scope collaborator, so this is
// just enough of one to drive the rewrite pass's output end-to-end in
// tests and in a real CUDA run alike.
package executor

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/csotherden/cudagraph/cudagraphlog"
	cgraph "github.com/csotherden/cudagraph/graph"
	"github.com/csotherden/cudagraph/tensor"
)

// Run executes every node of g in topological order and returns the
// Tensor produced by each node in g.ToRetrieve, keyed by NodeID. It
// returns the first error any node's Process reports, per spec.md §7:
// operator errors are fatal and abort the run rather than being retried or
// skipped.
func Run(ctx context.Context, g *cgraph.Graph) (map[tensor.NodeID]*tensor.Tensor, error) {
	order, err := topo.Sort(g.Underlying())
	if err != nil {
		return nil, fmt.Errorf("executor: graph is not a DAG: %w", err)
	}

	values := make(map[tensor.NodeID]*tensor.Tensor, len(order))
	views := make(map[tensor.NodeID]tensor.TensorView, len(order))

	for _, gn := range order {
		n, ok := gn.(*cgraph.Node)
		if !ok {
			return nil, fmt.Errorf("executor: unexpected node type %T", gn)
		}
		id := n.NodeID()

		parentIDs := g.Inputs(id)
		inputs := make([]tensor.InputValue, len(parentIDs))
		for i, pid := range parentIDs {
			val, ok := values[pid]
			if !ok {
				return nil, fmt.Errorf("executor: node %d depends on %d, which has no computed value yet", id, pid)
			}
			inputs[i] = tensor.InputValue{Tensor: val, View: views[pid]}
		}

		cudagraphlog.Log.Debug().Int64("node", int64(id)).Str("op", n.Op.Name()).Msg("processing node")

		out, view, err := n.Op.Process(ctx, inputs, id)
		if err != nil {
			return nil, fmt.Errorf("executor: node %d (%s): %w", id, n.Op.Name(), err)
		}
		values[id] = out
		views[id] = view
	}

	retrieved := make(map[tensor.NodeID]*tensor.Tensor, len(g.ToRetrieve))
	for id := range g.ToRetrieve {
		val, ok := values[id]
		if !ok {
			return nil, fmt.Errorf("executor: retrieved node %d was never computed", id)
		}
		retrieved[id] = val
	}
	return retrieved, nil
}
