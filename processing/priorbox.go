package processing

import (
	"github.com/okieraised/go-priorbox/config"
	"gorgonia.org/tensor"
)

// GeneratePriorBoxesClustered produces the [2, 4*H*W*priors] prior box tensor
// for the given grid. Row 0 holds (xmin, ymin, xmax, ymax) per box normalized
// by the image size, row 1 holds the variance quadruple of every box.
//
// Boxes are laid out row-major over the grid, then by prior: the box for
// (r, c, p) starts at ((r*W + c)*priors + p)*4.
func GeneratePriorBoxesClustered(cfg *config.PriorBoxClustered, shape GridShape) (*tensor.Dense, error) {
	numPriors := cfg.NumPriors()
	if err := shape.CheckSize(numPriors); err != nil {
		return nil, err
	}
	planeLen := shape.PlaneLen(numPriors)
	data := make([]float32, 2*planeLen)

	if err := fillPriorBoxes(cfg, shape, data[:planeLen]); err != nil {
		return nil, err
	}
	fillVariances(cfg.Variances(), data[planeLen:])

	return tensor.New(
		tensor.Of(tensor.Float32),
		tensor.WithShape(2, planeLen),
		tensor.WithBacking(data),
	), nil
}

func fillPriorBoxes(cfg *config.PriorBoxClustered, shape GridShape, boxes []float32) error {
	if shape.LayerH <= 0 || shape.LayerW <= 0 || shape.ImgH <= 0 || shape.ImgW <= 0 {
		return &ShapeError{Dim: "grid", Value: shape.NumBoxes(1)}
	}

	numPriors := cfg.NumPriors()
	stepW, stepH := cfg.Steps()
	offset := cfg.Offset()
	imgW, imgH := float32(shape.ImgW), float32(shape.ImgH)

	idx := 0
	for r := range shape.LayerH {
		centerY := (float32(r) + offset) * stepH
		for c := range shape.LayerW {
			centerX := (float32(c) + offset) * stepW
			for p := range numPriors {
				w, h := cfg.Template(p)
				boxes[idx] = (centerX - w/2) / imgW
				boxes[idx+1] = (centerY - h/2) / imgH
				boxes[idx+2] = (centerX + w/2) / imgW
				boxes[idx+3] = (centerY + h/2) / imgH
				idx += 4
			}
		}
	}

	if cfg.Clip() {
		ClipBoxes(boxes)
	}
	return nil
}

func fillVariances(variances [4]float32, plane []float32) {
	for i := 0; i < len(plane); i += 4 {
		copy(plane[i:i+4], variances[:])
	}
}
