package go_priorbox

import (
	"github.com/okieraised/go-priorbox/config"
	"github.com/okieraised/go-priorbox/shapesource"
	"github.com/okieraised/go-priorbox/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type failingSource struct{}

func (failingSource) Shapes() ([]int, []int, error) {
	return nil, nil, errors.New("source down")
}

func TestPriorBoxPipeline_Run(t *testing.T) {
	source := &shapesource.StaticShapeSource{Layer: []int{1, 16, 2, 2}, Image: []int{1, 3, 32, 32}}
	pipeline, err := NewPriorBoxPipeline(source, testParams())
	require.NoError(t, err)

	out, err := pipeline.Run()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 32}, []int(out.Shape()))

	boxes, variances, err := utils.Planes(out)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.1875, 0.1875, 0.3125, 0.3125}, boxes[:4], 1e-6)
	assert.Equal(t, []float32{0.1, 0.1, 0.2, 0.2}, variances[28:])

	again, err := pipeline.Run()
	require.NoError(t, err)
	assert.Equal(t, out.Float32s(), again.Float32s())
}

func TestPriorBoxPipeline_FromOp(t *testing.T) {
	source := &shapesource.StaticShapeSource{Layer: []int{2, 2}, Image: []int{32, 32}}
	op := OpDescriptor{
		Type:        OpTypePriorBoxClustered,
		Version:     "opset1",
		Attrs:       testParams(),
		InputShapes: [][]int{{2, 2}, {32, 32}},
	}
	pipeline, err := NewPriorBoxPipelineFromOp(source, op)
	require.NoError(t, err)

	out, err := pipeline.Run()
	require.NoError(t, err)
	assert.Len(t, out.Float32s(), 64)
}

func TestPriorBoxPipeline_Errors(t *testing.T) {
	_, err := NewPriorBoxPipeline(nil, testParams())
	assert.Error(t, err)

	bad := testParams()
	bad.Variances = []float32{0.1, 0.2}
	_, err = NewPriorBoxPipeline(&shapesource.StaticShapeSource{}, bad)
	var cfgErr *config.ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	pipeline, err := NewPriorBoxPipeline(failingSource{}, testParams())
	require.NoError(t, err)
	_, err = pipeline.Run()
	assert.ErrorContains(t, err, "source down")

	dynamic := &shapesource.StaticShapeSource{Layer: []int{1, 16, -1, -1}, Image: []int{32, 32}}
	pipeline, err = NewPriorBoxPipeline(dynamic, testParams())
	require.NoError(t, err)
	_, err = pipeline.Run()
	assert.ErrorContains(t, err, "not static")
}
