package go_priorbox

import (
	"github.com/okieraised/go-priorbox/config"
	"github.com/okieraised/go-priorbox/node"
	"github.com/okieraised/go-priorbox/shapesource"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// PriorBoxPipeline pairs a shape source with a prior box node and allocates
// the output for each run.
type PriorBoxPipeline struct {
	source shapesource.ShapeSource
	node   Node
}

// NewPriorBoxPipeline initializes a pipeline for a PriorBoxClustered operation.
func NewPriorBoxPipeline(source shapesource.ShapeSource, params *config.PriorBoxClusteredParams, opts ...node.Option) (*PriorBoxPipeline, error) {
	if source == nil {
		return nil, errors.New("shape source is required")
	}
	n, err := node.NewPriorBoxClustered(params, opts...)
	if err != nil {
		return nil, err
	}
	return &PriorBoxPipeline{source: source, node: n}, nil
}

// NewPriorBoxPipelineFromOp builds the node through the default registry.
func NewPriorBoxPipelineFromOp(source shapesource.ShapeSource, op OpDescriptor) (*PriorBoxPipeline, error) {
	if source == nil {
		return nil, errors.New("shape source is required")
	}
	n, err := CreateNode(op)
	if err != nil {
		return nil, err
	}
	return &PriorBoxPipeline{source: source, node: n}, nil
}

// Run fetches the current shapes and returns a freshly allocated [2, N]
// prior box tensor.
func (p *PriorBoxPipeline) Run() (*tensor.Dense, error) {
	layer, image, err := p.source.Shapes()
	if err != nil {
		return nil, errors.Wrap(err, "fetch shapes")
	}
	if p.node.NeedShapeInfer(layer, image) {
		return nil, errors.Errorf("shapes are not static: layer %v, image %v", layer, image)
	}

	shape, err := p.node.Resolve(layer, image)
	if err != nil {
		return nil, err
	}
	out := tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(p.node.OutputShape(shape)...),
	)
	if err := p.node.Execute(layer, image, out); err != nil {
		return nil, err
	}
	return out, nil
}
