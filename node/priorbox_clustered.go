package node

import (
	"github.com/okieraised/go-priorbox/config"
	"github.com/okieraised/go-priorbox/processing"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"io"
	"log"
)

// State is the lifecycle position of a node instance.
type State int

const (
	StateConstructed State = iota
	StateValidated
	StateUnresolved
	StateResolved
	StatePopulated
)

var stateNames = map[State]string{
	StateConstructed: "Constructed",
	StateValidated:   "Validated",
	StateUnresolved:  "Unresolved",
	StateResolved:    "Resolved",
	StatePopulated:   "Populated",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// CacheStats counts how executions were served.
type CacheStats struct {
	Hits   int64 // executions served from the cached buffer
	Misses int64 // buffer generations
}

type generateFunc func(cfg *config.PriorBoxClustered, shape processing.GridShape) (*tensor.Dense, error)

// cacheEntry owns the generated buffer for one grid shape. It is replaced,
// never mutated, when the shape changes.
type cacheEntry struct {
	key    processing.GridShape
	buffer *tensor.Dense
}

// PriorBoxClustered serves clustered prior boxes, regenerating them only
// when the resolved grid shape changes. It is not safe for concurrent use.
type PriorBoxClustered struct {
	cfg      *config.PriorBoxClustered
	state    State
	cache    *cacheEntry
	stats    CacheStats
	generate generateFunc
	logger   *log.Logger
}

type Option func(n *PriorBoxClustered)

func WithLogger(logger *log.Logger) Option {
	return func(n *PriorBoxClustered) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewPriorBoxClustered validates params and returns a node with no resolved
// shape. A validation failure is returned as *config.ConfigError and no node
// is created.
func NewPriorBoxClustered(params *config.PriorBoxClusteredParams, opts ...Option) (*PriorBoxClustered, error) {
	n := &PriorBoxClustered{
		state:    StateConstructed,
		generate: processing.GeneratePriorBoxesClustered,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(n)
	}

	cfg, err := params.Validate()
	if err != nil {
		return nil, err
	}
	n.cfg = cfg
	n.state = StateValidated

	// no shape is cached until the first PrepareParams
	n.state = StateUnresolved
	return n, nil
}

func (n *PriorBoxClustered) Config() *config.PriorBoxClustered {
	return n.cfg
}

func (n *PriorBoxClustered) State() State {
	return n.state
}

// Created reports whether the node passed validation.
func (n *PriorBoxClustered) Created() bool {
	return n.state >= StateValidated
}

func (n *PriorBoxClustered) Stats() CacheStats {
	return n.stats
}

// NeedShapeInfer reports whether the declared input shapes still carry
// dynamic dims. An absent image shape is static when a static image size is
// configured.
func (n *PriorBoxClustered) NeedShapeInfer(layer, image []int) bool {
	if !processing.IsStaticShape(layer) {
		return true
	}
	if len(image) == 0 {
		size := n.cfg.ImageSize()
		return size[0] <= 0 || size[1] <= 0
	}
	return !processing.IsStaticShape(image)
}

// NeedPrepareParams reports whether shape differs from the cached shape.
func (n *PriorBoxClustered) NeedPrepareParams(shape processing.GridShape) bool {
	return n.cache == nil || n.cache.key != shape
}

func (n *PriorBoxClustered) Resolve(layer, image []int) (processing.GridShape, error) {
	shape, err := processing.ResolveGridShape(layer, image, n.cfg.ImageSize())
	if err != nil {
		return shape, err
	}
	if err := shape.CheckSize(n.cfg.NumPriors()); err != nil {
		return processing.GridShape{}, err
	}
	return shape, nil
}

// OutputShape is the [2, 4*H*W*priors] shape of the output for shape.
func (n *PriorBoxClustered) OutputShape(shape processing.GridShape) tensor.Shape {
	return tensor.Shape{2, shape.PlaneLen(n.cfg.NumPriors())}
}

// PrepareParams generates and caches the buffer for shape unless it is
// already cached. Only Execute counts cache hits.
func (n *PriorBoxClustered) PrepareParams(shape processing.GridShape) error {
	if !n.NeedPrepareParams(shape) {
		return nil
	}

	n.state = StateResolved
	buffer, err := n.generate(n.cfg, shape)
	if err != nil {
		if n.cache == nil {
			n.state = StateUnresolved
		} else {
			n.state = StatePopulated
		}
		return errors.Wrap(err, "generate prior boxes")
	}

	if n.cache != nil {
		n.logger.Printf("prior box shape changed %+v -> %+v, regenerating", n.cache.key, shape)
	}
	n.cache = &cacheEntry{key: shape, buffer: buffer}
	n.stats.Misses++
	n.state = StatePopulated
	return nil
}

// Execute resolves the grid shape from the input shapes, refreshes the cache
// when needed and copies the buffer into out, which must have OutputShape.
// On error out is left untouched.
func (n *PriorBoxClustered) Execute(layer, image []int, out *tensor.Dense) error {
	shape, err := n.Resolve(layer, image)
	if err != nil {
		return err
	}

	want := n.OutputShape(shape)
	if out == nil {
		return &processing.ShapeError{Dim: "output", Value: 0}
	}
	if !out.Shape().Eq(want) || out.Dtype() != tensor.Float32 {
		return &processing.ShapeError{Dim: "output size", Value: out.Shape().TotalSize()}
	}

	if n.NeedPrepareParams(shape) {
		if err := n.PrepareParams(shape); err != nil {
			return err
		}
	} else {
		n.stats.Hits++
	}

	if err := tensor.Copy(out, n.cache.buffer); err != nil {
		return errors.Wrap(err, "write prior boxes")
	}
	return nil
}

// Output returns the cached buffer for the current shape, or nil when no
// shape has been resolved. The buffer is read-only and valid until the next
// shape change.
func (n *PriorBoxClustered) Output() *tensor.Dense {
	if n.cache == nil {
		return nil
	}
	return n.cache.buffer
}
