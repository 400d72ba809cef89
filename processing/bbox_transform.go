package processing

import (
	"github.com/chewxy/math32"
)

// ClipBoxes clamps every normalized coordinate of a flat box plane to [0, 1]
// in place.
func ClipBoxes(boxes []float32) []float32 {
	for i, v := range boxes {
		boxes[i] = math32.Max(math32.Min(v, 1), 0)
	}
	return boxes
}
