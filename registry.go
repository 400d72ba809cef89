package go_priorbox

import (
	"fmt"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/okieraised/go-priorbox/config"
	"github.com/okieraised/go-priorbox/node"
	"github.com/okieraised/go-priorbox/processing"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// OpType tags an operation kind in the registry.
type OpType string

const (
	OpTypePriorBoxClustered OpType = "PriorBoxClustered"
)

const opsetV1 = "opset1"

// OpDescriptor is the framework's view of an operation: its type tag, opset
// version, static attributes and declared input shapes. Attrs holds the
// attribute struct of the operation named by Type, e.g.
// *config.PriorBoxClusteredParams for OpTypePriorBoxClustered.
type OpDescriptor struct {
	Type        OpType
	Version     string
	Attrs       any
	InputShapes [][]int
}

// Node is the execution surface a registered constructor returns.
type Node interface {
	Created() bool
	NeedShapeInfer(layer, image []int) bool
	NeedPrepareParams(shape processing.GridShape) bool
	Resolve(layer, image []int) (processing.GridShape, error)
	PrepareParams(shape processing.GridShape) error
	OutputShape(shape processing.GridShape) tensor.Shape
	Execute(layer, image []int, out *tensor.Dense) error
}

// SupportFunc reports whether an operation can be served. It must not panic;
// the reason explains a false result.
type SupportFunc func(op OpDescriptor) (bool, string)

// FactoryFunc builds a node for a supported operation.
type FactoryFunc func(op OpDescriptor) (Node, error)

type registryEntry struct {
	isSupported SupportFunc
	factory     FactoryFunc
}

// Registry maps operation type tags to capability checks and constructors.
// Registration order is preserved.
type Registry struct {
	entries *orderedmap.OrderedMap[OpType, registryEntry]
}

func NewRegistry() *Registry {
	return &Registry{
		entries: orderedmap.NewOrderedMap[OpType, registryEntry](),
	}
}

func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	if err := r.Register(OpTypePriorBoxClustered, IsSupportedPriorBoxClustered, newPriorBoxClusteredNode); err != nil {
		panic(err)
	}
	return r
}

// Register adds an operation type. Registering a tag twice is an error.
func (r *Registry) Register(opType OpType, isSupported SupportFunc, factory FactoryFunc) error {
	if isSupported == nil || factory == nil {
		return errors.Errorf("operation %s: support check and factory are required", opType)
	}
	if _, ok := r.entries.Get(opType); ok {
		return errors.Errorf("operation %s is already registered", opType)
	}
	r.entries.Set(opType, registryEntry{isSupported: isSupported, factory: factory})
	return nil
}

func (r *Registry) Types() []OpType {
	return r.entries.Keys()
}

// IsSupportedOperation dispatches to the capability check of op.Type.
func (r *Registry) IsSupportedOperation(op OpDescriptor) (bool, string) {
	entry, ok := r.entries.Get(op.Type)
	if !ok {
		return false, fmt.Sprintf("operation type %q is not registered", op.Type)
	}
	return entry.isSupported(op)
}

// Create checks op and builds its node.
func (r *Registry) Create(op OpDescriptor) (Node, error) {
	entry, ok := r.entries.Get(op.Type)
	if !ok {
		return nil, errors.Errorf("unsupported operation type: %s", op.Type)
	}
	if supported, reason := entry.isSupported(op); !supported {
		return nil, errors.Errorf("operation %s is not supported: %s", op.Type, reason)
	}
	n, err := entry.factory(op)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", op.Type)
	}
	return n, nil
}

// IsSupportedPriorBoxClustered accepts opset1 PriorBoxClustered operations
// with valid attributes and one or two inputs. A single input requires a
// static image size.
func IsSupportedPriorBoxClustered(op OpDescriptor) (supported bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			supported, reason = false, fmt.Sprintf("support check failed: %v", r)
		}
	}()

	if op.Type != OpTypePriorBoxClustered {
		return false, fmt.Sprintf("expected %s operation, got %s", OpTypePriorBoxClustered, op.Type)
	}
	if op.Version != "" && op.Version != opsetV1 {
		return false, fmt.Sprintf("only %s operation is supported, got %s", opsetV1, op.Version)
	}
	attrs, ok := op.Attrs.(*config.PriorBoxClusteredParams)
	if !ok || attrs == nil {
		return false, fmt.Sprintf("missing attributes: expected *config.PriorBoxClusteredParams, got %T", op.Attrs)
	}
	if _, err := attrs.Validate(); err != nil {
		return false, err.Error()
	}

	switch len(op.InputShapes) {
	case 2:
	case 1:
		if attrs.ImageSize[0] <= 0 || attrs.ImageSize[1] <= 0 {
			return false, "image input is missing and no static image_size is set"
		}
	default:
		return false, fmt.Sprintf("expected 1 or 2 inputs, got %d", len(op.InputShapes))
	}
	return true, ""
}

func newPriorBoxClusteredNode(op OpDescriptor) (Node, error) {
	attrs, ok := op.Attrs.(*config.PriorBoxClusteredParams)
	if !ok {
		return nil, errors.Errorf("expected *config.PriorBoxClusteredParams attributes, got %T", op.Attrs)
	}
	n, err := node.NewPriorBoxClustered(attrs)
	if err != nil {
		return nil, err
	}
	return n, nil
}

var defaultRegistry = NewDefaultRegistry()

// IsSupportedOperation checks op against the built-in registry.
func IsSupportedOperation(op OpDescriptor) (bool, string) {
	return defaultRegistry.IsSupportedOperation(op)
}

// CreateNode builds a node for op from the built-in registry.
func CreateNode(op OpDescriptor) (Node, error) {
	return defaultRegistry.Create(op)
}
