package config

import (
	"time"
)

// TritonShapeSourceParams selects the model tensors whose declared dims give
// the feature-map and reference-image shapes.
type TritonShapeSourceParams struct {
	ModelName    string        `json:"model_name"`
	ModelVersion string        `json:"model_version"`
	Timeout      time.Duration `json:"timeout"`
	// FeatureMapTensor names the model output whose last two dims are the
	// feature-map height and width.
	FeatureMapTensor string `json:"feature_map_tensor"`
	// ImageTensor names the model input whose last two dims are the
	// reference image height and width.
	ImageTensor string `json:"image_tensor"`
}

var DefaultTritonShapeSourceParams = &TritonShapeSourceParams{
	ModelName:        "ssd_detection",
	ModelVersion:     "",
	Timeout:          20 * time.Second,
	FeatureMapTensor: "conv4_3_norm_mbox_loc",
	ImageTensor:      "data",
}

func NewTritonShapeSourceParams(modelName, modelVersion string, timeout time.Duration, featureMapTensor, imageTensor string) *TritonShapeSourceParams {
	return &TritonShapeSourceParams{
		ModelName:        modelName,
		ModelVersion:     modelVersion,
		Timeout:          timeout,
		FeatureMapTensor: featureMapTensor,
		ImageTensor:      imageTensor,
	}
}
