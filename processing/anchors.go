package processing

import (
	"github.com/chewxy/math32"
	"github.com/okieraised/go-priorbox/config"
	"github.com/pkg/errors"
	"sort"
	"strconv"
)

// AnchorConfig describes an RCNN-style anchor family: a square base anchor
// reshaped by each aspect ratio and then enlarged by each scale.
type AnchorConfig struct {
	BaseSize int
	Ratios   []float32
	Scales   []float32
}

// BoxTemplates is a clustered template set derived for one feature stride.
type BoxTemplates struct {
	Stride  int
	Widths  []float32
	Heights []float32
}

// Params returns clustered prior box params using the templates, with the
// stride as step.
func (b BoxTemplates) Params(variances []float32, clip bool) *config.PriorBoxClusteredParams {
	return config.NewPriorBoxClusteredParams(b.Widths, b.Heights, variances, clip, float32(b.Stride), 0, 0, nil)
}

// BoxTemplatesFromAnchors enumerates widths and heights ratio-major, then by
// scale.
func BoxTemplatesFromAnchors(cfg AnchorConfig) ([]float32, []float32, error) {
	if cfg.BaseSize <= 0 {
		return nil, nil, errors.Errorf("base size must be positive, got %d", cfg.BaseSize)
	}
	if len(cfg.Ratios) == 0 || len(cfg.Scales) == 0 {
		return nil, nil, errors.New("ratios and scales must not be empty")
	}

	size := float32(cfg.BaseSize * cfg.BaseSize)
	widths := make([]float32, 0, len(cfg.Ratios)*len(cfg.Scales))
	heights := make([]float32, 0, len(cfg.Ratios)*len(cfg.Scales))

	for _, ratio := range cfg.Ratios {
		if ratio <= 0 {
			return nil, nil, errors.Errorf("ratio must be positive, got %v", ratio)
		}
		ws := math32.Round(math32.Sqrt(size / ratio))
		hs := math32.Round(ws * ratio)
		for _, scale := range cfg.Scales {
			if scale <= 0 {
				return nil, nil, errors.Errorf("scale must be positive, got %v", scale)
			}
			widths = append(widths, ws*scale)
			heights = append(heights, hs*scale)
		}
	}
	return widths, heights, nil
}

// BoxTemplatesFPN derives one template set per stride key, largest stride
// first.
func BoxTemplatesFPN(cfg map[string]AnchorConfig) ([]BoxTemplates, error) {
	strides := make([]int, 0, len(cfg))
	for k := range cfg {
		stride, err := strconv.Atoi(k)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid stride key %q", k)
		}
		strides = append(strides, stride)
	}
	sort.Slice(strides, func(i, j int) bool {
		return strides[i] > strides[j]
	})

	templates := make([]BoxTemplates, 0, len(strides))
	for _, stride := range strides {
		widths, heights, err := BoxTemplatesFromAnchors(cfg[strconv.Itoa(stride)])
		if err != nil {
			return nil, errors.Wrapf(err, "stride %d", stride)
		}
		templates = append(templates, BoxTemplates{Stride: stride, Widths: widths, Heights: heights})
	}
	return templates, nil
}
