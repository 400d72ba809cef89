package config

import (
	"github.com/chewxy/math32"
	"github.com/okieraised/go-priorbox/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func validParams() *PriorBoxClusteredParams {
	return &PriorBoxClusteredParams{
		Widths:    []float32{4, 8},
		Heights:   []float32{4, 8},
		Variances: []float32{0.1, 0.1, 0.2, 0.2},
		Step:      16,
	}
}

func assertConfigError(t *testing.T, err error, field string) {
	t.Helper()
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
	assert.Equal(t, field, cfgErr.Field)
}

func TestValidate_Defaults(t *testing.T) {
	cfg, err := validParams().Validate()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.NumPriors())
	assert.Equal(t, float32(0.5), cfg.Offset())
	stepW, stepH := cfg.Steps()
	assert.Equal(t, float32(16), stepW)
	assert.Equal(t, float32(16), stepH)
	assert.Equal(t, [4]float32{0.1, 0.1, 0.2, 0.2}, cfg.Variances())
	assert.False(t, cfg.Clip())

	w, h := cfg.Template(1)
	assert.Equal(t, float32(8), w)
	assert.Equal(t, float32(8), h)
}

func TestValidate_VarianceBroadcast(t *testing.T) {
	p := validParams()
	p.Variances = []float32{0.3}
	cfg, err := p.Validate()
	require.NoError(t, err)
	assert.Equal(t, [4]float32{0.3, 0.3, 0.3, 0.3}, cfg.Variances())
}

func TestValidate_StepPrecedence(t *testing.T) {
	p := validParams()
	p.StepW = 8
	cfg, err := p.Validate()
	require.NoError(t, err)
	stepW, stepH := cfg.Steps()
	assert.Equal(t, float32(8), stepW)
	assert.Equal(t, float32(16), stepH)

	p = validParams()
	p.Step = 0
	p.StepW = 10
	p.StepH = 12
	cfg, err = p.Validate()
	require.NoError(t, err)
	stepW, stepH = cfg.Steps()
	assert.Equal(t, float32(10), stepW)
	assert.Equal(t, float32(12), stepH)
}

func TestValidate_ExplicitOffset(t *testing.T) {
	p := validParams()
	p.Offset = utils.RefPointer(float32(0))
	cfg, err := p.Validate()
	require.NoError(t, err)
	assert.Equal(t, float32(0), cfg.Offset())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *PriorBoxClusteredParams)
		field  string
	}{
		{"length mismatch", func(p *PriorBoxClusteredParams) { p.Heights = []float32{4} }, "widths/heights"},
		{"empty templates", func(p *PriorBoxClusteredParams) { p.Widths, p.Heights = nil, nil }, "widths/heights"},
		{"zero width", func(p *PriorBoxClusteredParams) { p.Widths = []float32{0, 8} }, "widths/heights"},
		{"two variances", func(p *PriorBoxClusteredParams) { p.Variances = []float32{0.1, 0.2} }, "variances"},
		{"no variances", func(p *PriorBoxClusteredParams) { p.Variances = nil }, "variances"},
		{"negative variance", func(p *PriorBoxClusteredParams) { p.Variances = []float32{-0.1} }, "variances"},
		{"zero step", func(p *PriorBoxClusteredParams) { p.Step = 0 }, "step"},
		{"only one axis step", func(p *PriorBoxClusteredParams) { p.Step, p.StepW = 0, 8 }, "step"},
		{"negative step", func(p *PriorBoxClusteredParams) { p.StepH = -1 }, "step"},
		{"offset above one", func(p *PriorBoxClusteredParams) { p.Offset = utils.RefPointer(float32(1.5)) }, "offset"},
		{"nan width", func(p *PriorBoxClusteredParams) { p.Widths = []float32{math32.NaN(), 8} }, "widths/heights"},
		{"infinite height", func(p *PriorBoxClusteredParams) { p.Heights = []float32{4, math32.Inf(1)} }, "widths/heights"},
		{"nan variance", func(p *PriorBoxClusteredParams) { p.Variances = []float32{math32.NaN()} }, "variances"},
		{"infinite variance", func(p *PriorBoxClusteredParams) { p.Variances = []float32{0.1, 0.1, math32.Inf(1), 0.2} }, "variances"},
		{"nan step", func(p *PriorBoxClusteredParams) { p.Step = math32.NaN() }, "step"},
		{"infinite step", func(p *PriorBoxClusteredParams) { p.Step = math32.Inf(1) }, "step"},
		{"nan step_w", func(p *PriorBoxClusteredParams) { p.StepW = math32.NaN() }, "step"},
		{"infinite step_h", func(p *PriorBoxClusteredParams) { p.StepH = math32.Inf(1) }, "step"},
		{"nan offset", func(p *PriorBoxClusteredParams) { p.Offset = utils.RefPointer(math32.NaN()) }, "offset"},
		{"negative image size", func(p *PriorBoxClusteredParams) { p.ImageSize = [2]int{-1, 32} }, "image_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(p)
			cfg, err := p.Validate()
			assert.Nil(t, cfg)
			assertConfigError(t, err, tt.field)
		})
	}
}

func TestValidate_DoesNotAliasInput(t *testing.T) {
	p := validParams()
	cfg, err := p.Validate()
	require.NoError(t, err)

	p.Widths[0] = 100
	w, _ := cfg.Template(0)
	assert.Equal(t, float32(4), w)
}

func TestDefaultPriorBoxClusteredParams(t *testing.T) {
	cfg, err := DefaultPriorBoxClusteredParams.Validate()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.NumPriors())
}

func TestLoadPriorBoxClusteredParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "priorbox.json")
	content := `{
		"widths": [4, 8],
		"heights": [4, 8],
		"variances": [0.1],
		"clip": true,
		"step": 16,
		"offset": 0.25,
		"image_size": [32, 64]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	params, err := LoadPriorBoxClusteredParams(path)
	require.NoError(t, err)
	assert.True(t, params.Clip)
	assert.Equal(t, [2]int{32, 64}, params.ImageSize)

	cfg, err := params.Validate()
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), cfg.Offset())
	assert.Equal(t, [2]int{32, 64}, cfg.ImageSize())
}

func TestLoadPriorBoxClusteredParams_Missing(t *testing.T) {
	_, err := LoadPriorBoxClusteredParams(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
