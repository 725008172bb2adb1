package rainglare

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

type NodeLabel string

// Built-in labels of the core 3d graph. Post-processing modules insert
// themselves between NodeTonemapping and NodeEndPostProcessing.
const (
	NodeMainPass          NodeLabel = "main_pass"
	NodeTonemapping       NodeLabel = "tonemapping"
	NodeEndPostProcessing NodeLabel = "end_post_processing"
)

// RenderContext carries the per-frame state a graph node needs. Nodes
// capture their module resources as closures when they register.
type RenderContext struct {
	Gpu         *GpuState
	Encoder     *wgpu.CommandEncoder
	View        EntityId
	SurfaceView *wgpu.TextureView
}

type RenderNode func(rc *RenderContext, view *ViewTarget)

// RenderGraph is a flat ordered list of labeled nodes, run once per view
// each frame. Labels without a node act as anchors for insertion.
type RenderGraph struct {
	order []NodeLabel
	nodes map[NodeLabel]RenderNode
}

func newRenderGraph() *RenderGraph {
	return &RenderGraph{
		order: []NodeLabel{NodeMainPass, NodeTonemapping, NodeEndPostProcessing},
		nodes: make(map[NodeLabel]RenderNode),
	}
}

// AddNode attaches a node to an already present label.
func (g *RenderGraph) AddNode(label NodeLabel, node RenderNode) {
	if g.indexOf(label) < 0 {
		panic(fmt.Errorf("render graph has no label %q", label))
	}
	g.nodes[label] = node
}

// AddNodeEdges inserts a new labeled node so it runs after `before` and
// ahead of `after`. Ordering mistakes are registration bugs, so they panic.
func (g *RenderGraph) AddNodeEdges(before NodeLabel, label NodeLabel, node RenderNode, after NodeLabel) {
	beforeIdx := g.indexOf(before)
	if beforeIdx < 0 {
		panic(fmt.Errorf("render graph has no label %q", before))
	}
	afterIdx := g.indexOf(after)
	if afterIdx < 0 {
		panic(fmt.Errorf("render graph has no label %q", after))
	}
	if beforeIdx >= afterIdx {
		panic(fmt.Errorf("render graph labels %q and %q are out of order", before, after))
	}
	if g.indexOf(label) >= 0 {
		panic(fmt.Errorf("render graph already has label %q", label))
	}

	g.order = append(g.order, "")
	copy(g.order[beforeIdx+2:], g.order[beforeIdx+1:])
	g.order[beforeIdx+1] = label
	g.nodes[label] = node
}

func (g *RenderGraph) run(rc *RenderContext, view *ViewTarget) {
	for _, label := range g.order {
		if node := g.nodes[label]; node != nil {
			node(rc, view)
		}
	}
}

func (g *RenderGraph) indexOf(label NodeLabel) int {
	for i, l := range g.order {
		if l == label {
			return i
		}
	}
	return -1
}
