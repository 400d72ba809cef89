package shapesource

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ImageShape decodes an encoded image and returns its [H, W].
func ImageShape(bImage []byte) ([]int, error) {
	mat, err := gocv.IMDecode(bImage, gocv.IMReadUnchanged)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("failed to decode image")
	}
	return MatShape(mat)
}

// MatShape returns the [H, W] of an OpenCV matrix.
func MatShape(mat gocv.Mat) ([]int, error) {
	dims := mat.Size()
	if len(dims) < 2 {
		return nil, errors.Errorf("invalid number of dimension: %d", len(dims))
	}
	return []int{dims[0], dims[1]}, nil
}
