package processing

import (
	"fmt"
	"math"
)

// MaxOutputElements bounds the total number of float32 values in a [2, N]
// prior box tensor.
const MaxOutputElements = math.MaxInt32

// ShapeError reports a resolved grid or image dimension that is not positive,
// or a shape vector that carries no spatial dims.
type ShapeError struct {
	Dim   string
	Value int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid prior box shape: %s = %d", e.Dim, e.Value)
}

// GridShape is the resolved feature-map and reference-image geometry. It is
// the cache key for generated prior boxes.
type GridShape struct {
	LayerH int
	LayerW int
	ImgH   int
	ImgW   int
}

func (g GridShape) NumBoxes(numPriors int) int {
	return g.LayerH * g.LayerW * numPriors
}

func (g GridShape) PlaneLen(numPriors int) int {
	return g.NumBoxes(numPriors) * 4
}

// CheckSize fails with a ShapeError when the [2, 4*H*W*priors] output for
// numPriors templates would exceed MaxOutputElements.
func (g GridShape) CheckSize(numPriors int) error {
	total := 1
	for _, f := range []int{2, 4, g.LayerH, g.LayerW, numPriors} {
		if f <= 0 {
			return &ShapeError{Dim: "output size", Value: f}
		}
		if total > MaxOutputElements/f {
			return &ShapeError{Dim: "output size", Value: f}
		}
		total *= f
	}
	return nil
}

// IsStaticShape reports whether dims carries known spatial dims. Negative
// entries mark dims that are only known at execution time.
func IsStaticShape(dims []int) bool {
	if len(dims) < 2 {
		return false
	}
	for _, d := range dims {
		if d < 0 {
			return false
		}
	}
	return true
}

// ResolveGridShape derives the grid from the feature-map shape and the
// reference-image shape. Both may be [H, W] or longer (e.g. NCHW), in which
// case the last two entries are used. An empty image shape falls back to
// staticImage ([H, W]).
func ResolveGridShape(layer, image []int, staticImage [2]int) (GridShape, error) {
	var shape GridShape

	layerH, layerW, err := spatialDims("layer", layer)
	if err != nil {
		return shape, err
	}

	imgH, imgW := staticImage[0], staticImage[1]
	if len(image) > 0 {
		imgH, imgW, err = spatialDims("image", image)
		if err != nil {
			return shape, err
		}
	}

	shape = GridShape{LayerH: layerH, LayerW: layerW, ImgH: imgH, ImgW: imgW}
	for _, d := range []struct {
		name  string
		value int
	}{
		{"layerH", shape.LayerH},
		{"layerW", shape.LayerW},
		{"imgH", shape.ImgH},
		{"imgW", shape.ImgW},
	} {
		if d.value <= 0 {
			return GridShape{}, &ShapeError{Dim: d.name, Value: d.value}
		}
	}
	if err := shape.CheckSize(1); err != nil {
		return GridShape{}, err
	}

	return shape, nil
}

func spatialDims(name string, dims []int) (int, int, error) {
	if len(dims) < 2 {
		return 0, 0, &ShapeError{Dim: name + " rank", Value: len(dims)}
	}
	return dims[len(dims)-2], dims[len(dims)-1], nil
}
