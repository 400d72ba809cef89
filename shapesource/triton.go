package shapesource

import (
	"github.com/okieraised/go-priorbox/config"
	"github.com/okieraised/go-triton-client/triton_proto"
	"github.com/pkg/errors"
	"time"
)

// ModelConfigGetter is the part of the Triton client the shape source needs.
// *gotritonclient.TritonGRPCClient satisfies it.
type ModelConfigGetter interface {
	GetModelConfiguration(timeout time.Duration, modelName, modelVersion string) (*triton_proto.ModelConfigResponse, error)
}

// TritonShapeSource reads the feature-map and reference-image shapes from the
// declared dims of a model served by Triton. Dynamic dims come back as -1.
type TritonShapeSource struct {
	client ModelConfigGetter
	params *config.TritonShapeSourceParams
}

func NewTritonShapeSource(client ModelConfigGetter, params *config.TritonShapeSourceParams) *TritonShapeSource {
	if params == nil {
		params = config.DefaultTritonShapeSourceParams
	}
	return &TritonShapeSource{
		client: client,
		params: params,
	}
}

func (s *TritonShapeSource) Shapes() ([]int, []int, error) {
	resp, err := s.client.GetModelConfiguration(s.params.Timeout, s.params.ModelName, s.params.ModelVersion)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "get model configuration for %s", s.params.ModelName)
	}
	if resp.GetConfig() == nil {
		return nil, nil, errors.Errorf("model %s returned no configuration", s.params.ModelName)
	}
	cfg := resp.GetConfig()

	var layer, image []int
	for _, out := range cfg.GetOutput() {
		if out.GetName() == s.params.FeatureMapTensor {
			layer = toInts(out.GetDims())
			break
		}
	}
	if layer == nil {
		return nil, nil, errors.Errorf("model %s has no output %q", s.params.ModelName, s.params.FeatureMapTensor)
	}

	for _, in := range cfg.GetInput() {
		if in.GetName() == s.params.ImageTensor {
			image = toInts(in.GetDims())
			break
		}
	}
	if image == nil {
		return nil, nil, errors.Errorf("model %s has no input %q", s.params.ModelName, s.params.ImageTensor)
	}

	return layer, image, nil
}

func toInts(dims []int64) []int {
	out := make([]int, 0, len(dims))
	for _, d := range dims {
		out = append(out, int(d))
	}
	return out
}
