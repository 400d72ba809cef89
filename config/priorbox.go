package config

import (
	"encoding/json"
	"fmt"
	"github.com/chewxy/math32"
	"github.com/okieraised/go-priorbox/utils"
	"github.com/pkg/errors"
	"os"
)

const defaultOffset float32 = 0.5

// ConfigError reports a malformed PriorBoxClustered attribute set.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid prior box clustered config: %s: %s", e.Field, e.Reason)
}

// PriorBoxClusteredParams holds the raw, unvalidated operation attributes.
type PriorBoxClusteredParams struct {
	Widths    []float32 `json:"widths"`
	Heights   []float32 `json:"heights"`
	Variances []float32 `json:"variances"`
	Clip      bool      `json:"clip"`
	Step      float32   `json:"step"`
	StepH     float32   `json:"step_h"`
	StepW     float32   `json:"step_w"`
	Offset    *float32  `json:"offset,omitempty"`
	// ImageSize is the static reference image size as [H, W]. Zero means the
	// size comes from the image input at execution time.
	ImageSize [2]int `json:"image_size"`
}

var DefaultPriorBoxClusteredParams = &PriorBoxClusteredParams{
	Widths:    []float32{9.4, 25.1, 14.7, 34.7, 143.0, 77.4, 128.8, 51.1, 75.6},
	Heights:   []float32{15.0, 39.6, 25.5, 63.2, 227.5, 162.9, 124.5, 105.1, 72.6},
	Variances: []float32{0.1, 0.1, 0.2, 0.2},
	Clip:      false,
	Step:      16,
	Offset:    utils.RefPointer(defaultOffset),
}

func NewPriorBoxClusteredParams(widths, heights, variances []float32, clip bool, step, stepH, stepW float32, offset *float32) *PriorBoxClusteredParams {
	return &PriorBoxClusteredParams{
		Widths:    widths,
		Heights:   heights,
		Variances: variances,
		Clip:      clip,
		Step:      step,
		StepH:     stepH,
		StepW:     stepW,
		Offset:    offset,
	}
}

// LoadPriorBoxClusteredParams reads params from a JSON file.
func LoadPriorBoxClusteredParams(path string) (*PriorBoxClusteredParams, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read params file %s", path)
	}

	params := &PriorBoxClusteredParams{}
	if err := json.Unmarshal(content, params); err != nil {
		return nil, errors.Wrapf(err, "decode params file %s", path)
	}
	return params, nil
}

// PriorBoxClustered is the validated, immutable configuration of a clustered
// prior box operation. Step and offset defaults are already applied.
type PriorBoxClustered struct {
	widths    []float32
	heights   []float32
	variances [4]float32
	clip      bool
	stepW     float32
	stepH     float32
	offset    float32
	imageSize [2]int
}

// Validate checks the attribute set and resolves defaults. Any failure is
// returned as a *ConfigError.
func (p *PriorBoxClusteredParams) Validate() (*PriorBoxClustered, error) {
	if p == nil {
		return nil, &ConfigError{Field: "params", Reason: "missing"}
	}
	if len(p.Widths) == 0 || len(p.Heights) == 0 {
		return nil, &ConfigError{Field: "widths/heights", Reason: "must not be empty"}
	}
	if len(p.Widths) != len(p.Heights) {
		return nil, &ConfigError{
			Field:  "widths/heights",
			Reason: fmt.Sprintf("length mismatch: %d widths, %d heights", len(p.Widths), len(p.Heights)),
		}
	}
	for i := range p.Widths {
		if !isFinite(p.Widths[i]) || !isFinite(p.Heights[i]) {
			return nil, &ConfigError{
				Field:  "widths/heights",
				Reason: fmt.Sprintf("prior %d has non-finite size %vx%v", i, p.Widths[i], p.Heights[i]),
			}
		}
		if p.Widths[i] <= 0 || p.Heights[i] <= 0 {
			return nil, &ConfigError{
				Field:  "widths/heights",
				Reason: fmt.Sprintf("prior %d has non-positive size %vx%v", i, p.Widths[i], p.Heights[i]),
			}
		}
	}

	cfg := &PriorBoxClustered{
		widths:    append([]float32(nil), p.Widths...),
		heights:   append([]float32(nil), p.Heights...),
		clip:      p.Clip,
		imageSize: p.ImageSize,
	}

	switch len(p.Variances) {
	case 1:
		cfg.variances = [4]float32{p.Variances[0], p.Variances[0], p.Variances[0], p.Variances[0]}
	case 4:
		copy(cfg.variances[:], p.Variances)
	default:
		return nil, &ConfigError{
			Field:  "variances",
			Reason: fmt.Sprintf("expected 1 or 4 values, got %d", len(p.Variances)),
		}
	}
	for _, v := range cfg.variances {
		if !isFinite(v) {
			return nil, &ConfigError{Field: "variances", Reason: fmt.Sprintf("non-finite value %v", v)}
		}
		if v < 0 {
			return nil, &ConfigError{Field: "variances", Reason: fmt.Sprintf("negative value %v", v)}
		}
	}

	if !isFinite(p.Step) || !isFinite(p.StepH) || !isFinite(p.StepW) {
		return nil, &ConfigError{
			Field:  "step",
			Reason: fmt.Sprintf("non-finite step %v, step_h %v, step_w %v", p.Step, p.StepH, p.StepW),
		}
	}
	if p.Step < 0 || p.StepH < 0 || p.StepW < 0 {
		return nil, &ConfigError{Field: "step", Reason: "negative step"}
	}
	cfg.stepW, cfg.stepH = p.Step, p.Step
	if p.StepW > 0 {
		cfg.stepW = p.StepW
	}
	if p.StepH > 0 {
		cfg.stepH = p.StepH
	}
	if cfg.stepW == 0 || cfg.stepH == 0 {
		return nil, &ConfigError{Field: "step", Reason: "effective step_w and step_h must be positive"}
	}

	cfg.offset = defaultOffset
	if p.Offset != nil {
		cfg.offset = *p.Offset
	}
	if !isFinite(cfg.offset) || cfg.offset < 0 || cfg.offset > 1 {
		return nil, &ConfigError{Field: "offset", Reason: fmt.Sprintf("%v is outside [0, 1]", cfg.offset)}
	}

	if p.ImageSize[0] < 0 || p.ImageSize[1] < 0 {
		return nil, &ConfigError{Field: "image_size", Reason: fmt.Sprintf("negative size %v", p.ImageSize)}
	}

	return cfg, nil
}

func isFinite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}

func (c *PriorBoxClustered) NumPriors() int {
	return len(c.widths)
}

// Template returns the (width, height) of prior p.
func (c *PriorBoxClustered) Template(p int) (float32, float32) {
	return c.widths[p], c.heights[p]
}

func (c *PriorBoxClustered) Variances() [4]float32 {
	return c.variances
}

func (c *PriorBoxClustered) Clip() bool {
	return c.clip
}

// Steps returns the resolved (step_w, step_h).
func (c *PriorBoxClustered) Steps() (float32, float32) {
	return c.stepW, c.stepH
}

func (c *PriorBoxClustered) Offset() float32 {
	return c.offset
}

// ImageSize returns the static reference image size as [H, W].
func (c *PriorBoxClustered) ImageSize() [2]int {
	return c.imageSize
}
