package main

import (
	"flag"
	"fmt"
	gopriorbox "github.com/okieraised/go-priorbox"
	"github.com/okieraised/go-priorbox/config"
	"github.com/okieraised/go-priorbox/node"
	"github.com/okieraised/go-priorbox/shapesource"
	"github.com/okieraised/go-priorbox/utils"
	gotritonclient "github.com/okieraised/go-triton-client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"log"
	"os"
	"strconv"
	"strings"
)

func main() {
	paramsPath := flag.String("params", "", "JSON file with prior box clustered params (default params when empty)")
	layerFlag := flag.String("layer", "", "feature map shape as H,W")
	imageFlag := flag.String("image", "", "reference image shape as H,W")
	imagePath := flag.String("image-file", "", "read the reference image shape from an image file")
	tritonURL := flag.String("triton", "", "Triton gRPC address; shapes come from the model configuration")
	modelName := flag.String("model", config.DefaultTritonShapeSourceParams.ModelName, "Triton model name")
	featureMap := flag.String("feature-map", config.DefaultTritonShapeSourceParams.FeatureMapTensor, "Triton output holding the feature map")
	imageTensor := flag.String("image-tensor", config.DefaultTritonShapeSourceParams.ImageTensor, "Triton input holding the image")
	limit := flag.Int("print", 4, "number of boxes to print")
	flag.Parse()

	params := config.DefaultPriorBoxClusteredParams
	if *paramsPath != "" {
		loaded, err := config.LoadPriorBoxClusteredParams(*paramsPath)
		if err != nil {
			log.Fatalf("Failed to load params: %v", err)
		}
		params = loaded
	}

	source, err := newShapeSource(*tritonURL, *modelName, *featureMap, *imageTensor, *layerFlag, *imageFlag, *imagePath)
	if err != nil {
		log.Fatalf("Failed to set up shape source: %v", err)
	}

	logger := log.New(os.Stderr, "priorbox: ", log.LstdFlags)
	pipeline, err := gopriorbox.NewPriorBoxPipeline(source, params, node.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	out, err := pipeline.Run()
	if err != nil {
		log.Fatalf("Failed to generate prior boxes: %v", err)
	}
	log.Printf("generated prior boxes with shape %v", out.Shape())

	boxes, variances, err := utils.Planes(out)
	if err != nil {
		log.Fatalf("Failed to read output: %v", err)
	}
	for i := 0; i < *limit && (i+1)*4 <= len(boxes); i++ {
		box, _ := utils.BoxAt(boxes, i)
		variance, _ := utils.BoxAt(variances, i)
		fmt.Printf("%d\tbox=%v\tvariance=%v\n", i, box, variance)
	}
}

func newShapeSource(tritonURL, modelName, featureMap, imageTensor, layerFlag, imageFlag, imagePath string) (shapesource.ShapeSource, error) {
	if tritonURL != "" {
		client, err := gotritonclient.NewTritonGRPCClient(
			tritonURL,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithKeepaliveParams(keepalive.ClientParameters{PermitWithoutStream: true}),
		)
		if err != nil {
			return nil, err
		}
		params := config.NewTritonShapeSourceParams(
			modelName,
			config.DefaultTritonShapeSourceParams.ModelVersion,
			config.DefaultTritonShapeSourceParams.Timeout,
			featureMap,
			imageTensor,
		)
		return shapesource.NewTritonShapeSource(client, params), nil
	}

	layer, err := parseShape(layerFlag)
	if err != nil {
		return nil, fmt.Errorf("layer: %w", err)
	}

	var image []int
	switch {
	case imagePath != "":
		content, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, err
		}
		image, err = shapesource.ImageShape(content)
		if err != nil {
			return nil, err
		}
	case imageFlag != "":
		image, err = parseShape(imageFlag)
		if err != nil {
			return nil, fmt.Errorf("image: %w", err)
		}
	}

	return &shapesource.StaticShapeSource{Layer: layer, Image: image}, nil
}

func parseShape(s string) ([]int, error) {
	if s == "" {
		return nil, fmt.Errorf("shape is required")
	}
	parts := strings.Split(s, ",")
	dims := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid dim %q: %w", p, err)
		}
		dims = append(dims, d)
	}
	return dims, nil
}
