package utils

import (
	"fmt"
	"gorgonia.org/tensor"
)

// Planes splits a [2, N] prior box tensor into its box plane and variance plane.
// The returned slices share the tensor's backing storage.
func Planes(t *tensor.Dense) ([]float32, []float32, error) {
	shape := t.Shape()
	if len(shape) != 2 || shape[0] != 2 {
		return nil, nil, fmt.Errorf("expected a [2, N] tensor, got shape %v", shape)
	}
	if t.Dtype() != tensor.Float32 {
		return nil, nil, fmt.Errorf("expected float32 tensor, got %v", t.Dtype())
	}

	data := t.Float32s()
	n := shape[1]
	return data[:n], data[n:], nil
}

func BoxAt(plane []float32, i int) ([4]float32, error) {
	var box [4]float32
	if i < 0 || (i+1)*4 > len(plane) {
		return box, fmt.Errorf("index %d is out of bounds", i)
	}
	copy(box[:], plane[i*4:i*4+4])
	return box, nil
}
