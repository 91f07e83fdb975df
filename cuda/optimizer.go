package cuda

import (
	"github.com/csotherden/cudagraph/cudagraphlog"
	cgraph "github.com/csotherden/cudagraph/graph"
	"github.com/csotherden/cudagraph/hostops"
	"github.com/csotherden/cudagraph/tensor"
)

// Optimizer is the device-specialization rewrite pass spec.md's CORE
// module centers on, grounded directly on the original source's
// CudaPrimitiveOptimizer::optimize. It runs in three phases against a
// device-agnostic graph built from hostops primitives:
//
//  1. insert a CopyToDevice after every Function (input) node, rewiring
//     that node's outgoing edges to originate from the copy instead;
//  2. insert a CopyFromDevice after every retrieved non-Function node,
//     migrating ToRetrieve/IDRemap/NoDelete bookkeeping onto the copy;
//  3. substitute every primitive op in place by name with its CUDA
//     equivalent, reading a reduction's Dim via a type assertion to the
//     concrete hostops operator it's replacing.
type Optimizer struct {
	eng *Engine
}

// NewOptimizer builds an Optimizer bound to eng. Every substituted
// operator shares eng's device ordinal, block size, and kernel cache.
func NewOptimizer(eng *Engine) *Optimizer {
	return &Optimizer{eng: eng}
}

// substitutors maps a primitive op's stable Name() to a constructor that
// builds its CUDA equivalent. Centralizing this table (rather than a
// growing switch repeated at each call site) is this core's one
// structural departure from the original source's inline match
// expression — see SPEC_FULL.md §4.6.
var substitutors = map[string]func(eng *Engine, old tensor.Operator) tensor.Operator{
	"Log2":  func(eng *Engine, _ tensor.Operator) tensor.Operator { return &Log2{eng: eng} },
	"Exp2":  func(eng *Engine, _ tensor.Operator) tensor.Operator { return &Exp2{eng: eng} },
	"Sin":   func(eng *Engine, _ tensor.Operator) tensor.Operator { return &Sin{eng: eng} },
	"Sqrt":  func(eng *Engine, _ tensor.Operator) tensor.Operator { return &Sqrt{eng: eng} },
	"Recip": func(eng *Engine, _ tensor.Operator) tensor.Operator { return &Recip{eng: eng} },
	"Add":   func(eng *Engine, _ tensor.Operator) tensor.Operator { return &Add{eng: eng} },
	"Mul":   func(eng *Engine, _ tensor.Operator) tensor.Operator { return &Mul{eng: eng} },
	"Max":   func(eng *Engine, _ tensor.Operator) tensor.Operator { return &Max{eng: eng} },
	"Mod":   func(eng *Engine, _ tensor.Operator) tensor.Operator { return &Mod{eng: eng} },
	"SumReduce": func(eng *Engine, old tensor.Operator) tensor.Operator {
		return &SumReduce{Dim: old.(hostops.SumReduce).Dim, eng: eng}
	},
	"MaxReduce": func(eng *Engine, old tensor.Operator) tensor.Operator {
		return &MaxReduce{Dim: old.(hostops.MaxReduce).Dim, eng: eng}
	},
}

// Optimize rewrites g in place.
func (o *Optimizer) Optimize(g *cgraph.Graph) error {
	nodeCount := len(g.NodeIndices())
	cudagraphlog.Log.Debug().Int("nodes", nodeCount).Msg("optimize: start")

	if err := o.insertCopyToDevice(g); err != nil {
		return err
	}
	cudagraphlog.Log.Debug().Int("nodes", len(g.NodeIndices())).Msg("optimize: copy-to-device inserted")

	if err := o.insertCopyFromDevice(g); err != nil {
		return err
	}
	cudagraphlog.Log.Debug().Int("nodes", len(g.NodeIndices())).Msg("optimize: copy-from-device inserted")

	o.substitutePrimitives(g)
	cudagraphlog.Log.Debug().Int("nodes", len(g.NodeIndices())).Msg("optimize: done")
	return nil
}

// insertCopyToDevice is phase A: every Function node gets a CopyToDevice
// spliced in immediately downstream, and every consumer that previously
// read the Function directly now reads the copy.
func (o *Optimizer) insertCopyToDevice(g *cgraph.Graph) error {
	var functionIDs []tensor.NodeID
	for _, id := range g.NodeIndices() {
		n := g.Node(id)
		if n.Op.Name() == "Function" {
			functionIDs = append(functionIDs, id)
		}
	}

	for _, inputNode := range functionIDs {
		if hasCopyToDeviceSuccessor(g, inputNode) {
			// Re-running Optimize on an already-specialized graph must
			// insert zero additional copy nodes (spec.md §8's idempotence
			// law): a Function that already feeds a CudaCopyToDevice (after
			// one pass, its only consumer) is left as it is.
			continue
		}
		n := g.Node(inputNode)
		copyNode := g.AddOp(&CopyToDevice{eng: o.eng}, n.View).Input(inputNode).Finish()

		for _, e := range g.EdgesFrom(inputNode) {
			if e.To == copyNode {
				continue
			}
			g.AddEdge(copyNode, e.To, e.OutputIndex)
			g.RemoveEdge(inputNode, e.To)
		}

		if _, ok := g.ToRetrieve[inputNode]; ok {
			g.ToRetrieve[copyNode] = struct{}{}
		}
	}
	return nil
}

func hasCopyToDeviceSuccessor(g *cgraph.Graph, id tensor.NodeID) bool {
	for _, e := range g.EdgesFrom(id) {
		if g.Node(e.To).Op.Name() == "CudaCopyToDevice" {
			return true
		}
	}
	return false
}

// insertCopyFromDevice is phase B: every retrieved node that is not itself
// a Function gets a CopyFromDevice spliced in immediately downstream of
// it, with every external reference (ToRetrieve, IDRemap, NoDelete)
// migrated onto the copy via Graph.MoveReferences. This runs against
// ToRetrieve as it stands after phase A, so a retrieved Function's
// CopyToDevice (added above) is itself eligible here — reproducing the
// original source's same-shaped interaction between the two phases. A
// node already bearing a CudaCopyFromDevice is skipped so re-running
// Optimize doesn't chain a second copy onto the first.
func (o *Optimizer) insertCopyFromDevice(g *cgraph.Graph) error {
	var outputIDs []tensor.NodeID
	for id := range g.ToRetrieve {
		n := g.Node(id)
		if n.Op.Name() == "Function" || n.Op.Name() == "CudaCopyFromDevice" {
			continue
		}
		outputIDs = append(outputIDs, id)
	}

	for _, outputNode := range outputIDs {
		n := g.Node(outputNode)
		copyNode := g.AddOp(&CopyFromDevice{eng: o.eng}, n.View).Input(outputNode).Finish()
		g.MoveReferences(outputNode, copyNode)
	}
	return nil
}

// substitutePrimitives is phase C: every node whose op name matches a
// registered primitive is replaced in place by its CUDA equivalent.
func (o *Optimizer) substitutePrimitives(g *cgraph.Graph) {
	for _, id := range g.NodeIndices() {
		n := g.Node(id)
		ctor, ok := substitutors[n.Op.Name()]
		if !ok {
			continue
		}
		g.SetOperator(id, ctor(o.eng, n.Op))
	}
}
