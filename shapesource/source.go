// Package shapesource provides the runtime feature-map and reference-image
// shapes a prior box node resolves its grid from.
package shapesource

// ShapeSource yields the current feature-map shape and reference-image shape.
// Either may be [H, W] or a longer shape whose last two dims are spatial.
type ShapeSource interface {
	Shapes() (layer []int, image []int, err error)
}

type StaticShapeSource struct {
	Layer []int
	Image []int
}

func (s *StaticShapeSource) Shapes() ([]int, []int, error) {
	return s.Layer, s.Image, nil
}
