package image

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/samber/do"
	"google.golang.org/genai"
)

type imagesModel interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ImagenGenerator renders images through the Gemini API or Vertex AI. It has
// no notion of LoRA weights, so styles only contribute their prompt suffix.
type ImagenGenerator struct {
	Models  imagesModel
	Model   string
	Backend genai.Backend
}

func NewImagenGenerator(i *do.Injector) (Generator, error) {
	ctx := do.MustInvokeNamed[context.Context](i, "context")
	cc := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if do.MustInvokeNamed[bool](i, "imagen_vertex") {
		// Project and location come from GOOGLE_CLOUD_PROJECT and GOOGLE_CLOUD_LOCATION.
		cc.Backend = genai.BackendVertexAI
	} else {
		cc.APIKey = do.MustInvokeNamed[string](i, "gemini_key")
	}
	return NewImagenClientGenerator(ctx, cc, do.MustInvokeNamed[string](i, "imagen_model"))
}

func NewImagenClientGenerator(ctx context.Context, cc *genai.ClientConfig, model string) (*ImagenGenerator, error) {
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &ImagenGenerator{
		Models:  client.Models,
		Model:   model,
		Backend: client.ClientConfig().Backend,
	}, nil
}

func (g *ImagenGenerator) Generate(ctx context.Context, params Params) ([]byte, string, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("params", params, "model", g.Model)
	log.Info("generating image via imagen")

	params = params.WithDefaults()
	guidance := float32(params.Guidance)
	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		GuidanceScale:  &guidance,
		OutputMIMEType: "image/png",
	}
	if params.Seed != "" {
		seed, err := strconv.ParseInt(params.Seed, 10, 32)
		if err != nil {
			return nil, "", fmt.Errorf("parsing seed %q: %w", params.Seed, err)
		}
		config.Seed = genai.Ptr(int32(seed))
	}
	config.NegativePrompt = params.NegativePrompt

	// The Gemini API rejects seeds and negative prompts outright.
	if g.Backend != genai.BackendVertexAI {
		if config.Seed != nil || config.NegativePrompt != "" {
			log.Info("ignoring seed and negative prompt unsupported by the gemini api")
		}
		config.Seed = nil
		config.NegativePrompt = ""
		params.Seed = ""
	}

	resp, err := g.Models.GenerateImages(ctx, g.Model, params.Prompt, config)
	if err != nil {
		return nil, "", err
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, "", errors.New("imagen returned no images")
	}

	generated := resp.GeneratedImages[0]
	if generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
		if generated.RAIFilteredReason != "" {
			return nil, "", fmt.Errorf("imagen filtered the image: %s", generated.RAIFilteredReason)
		}
		return nil, "", errors.New("imagen returned an empty image")
	}

	log.Info("received image via imagen", "bytes", len(generated.Image.ImageBytes))
	return generated.Image.ImageBytes, params.Seed, nil
}
