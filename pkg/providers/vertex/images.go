package vertex

import (
	"context"
	"errors"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/providers"
)

// maxImagenSamples is the per-request cap of the Imagen API.
const maxImagenSamples = 10

var errNoImageData = errors.New("model returned no image data")

// GenerateImages handles image generation. Imagen models use the :predict
// surface; everything else is asked for images through generateContent
// with the IMAGE response modality.
func (p *Provider) GenerateImages(ctx context.Context, req *types.ImageGenerationRequest) (*types.ImageGenerationResponse, error) {
	if isImagenModel(req.Model) {
		return p.predictImages(ctx, req)
	}
	return p.chatImages(ctx, req)
}

func (p *Provider) predictImages(ctx context.Context, req *types.ImageGenerationRequest) (*types.ImageGenerationResponse, error) {
	count := req.Count()
	if count > maxImagenSamples {
		count = maxImagenSamples
	}

	parameters := map[string]interface{}{
		"sampleCount":      count,
		"personGeneration": "allow_adult",
	}
	if ratio := aspectRatio(req.Size); ratio != "" {
		parameters["aspectRatio"] = ratio
	}

	native := &PredictRequest{
		Instances:  []map[string]interface{}{{"prompt": req.Prompt}},
		Parameters: parameters,
	}

	headers, err := p.headers(ctx)
	if err != nil {
		return nil, err
	}

	var resp PredictResponse
	url := p.modelURL(req.Model, "predict")
	if err := p.DoJSON(ctx, "POST", url, native, &resp, headers); err != nil {
		return nil, err
	}

	out := &types.ImageGenerationResponse{Created: now().Unix()}
	for _, prediction := range resp.Predictions {
		if prediction.BytesBase64Encoded == "" {
			continue
		}
		out.Data = append(out.Data, types.ImageData{B64JSON: prediction.BytesBase64Encoded})
	}
	return out, nil
}

// chatImages requests images from a multimodal chat model.
func (p *Provider) chatImages(ctx context.Context, req *types.ImageGenerationRequest) (*types.ImageGenerationResponse, error) {
	native := &GenerateRequest{
		Contents: []Content{{
			Role:  "user",
			Parts: []Part{{Text: req.Prompt}},
		}},
		GenerationConfig: &GenerationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}
	if ratio := aspectRatio(req.Size); ratio != "" {
		native.GenerationConfig.ImageConfig = &ImageConfig{AspectRatio: ratio}
	}

	headers, err := p.headers(ctx)
	if err != nil {
		return nil, err
	}

	var resp GenerateResponse
	url := p.modelURL(req.Model, "generateContent")
	if err := p.DoJSON(ctx, "POST", url, native, &resp, headers); err != nil {
		return nil, err
	}

	out := &types.ImageGenerationResponse{Created: now().Unix()}
	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			out.Data = append(out.Data, types.ImageData{B64JSON: part.InlineData.Data})
		}
	}

	if len(out.Data) == 0 {
		return nil, &providers.ParseError{
			Provider: p.Name(),
			Cause:    errNoImageData,
		}
	}
	return out, nil
}

// aspectRatio maps OpenAI size strings to Imagen aspect ratios.
func aspectRatio(size string) string {
	switch size {
	case "", "auto", "1024x1024":
		return "1:1"
	case "1792x1024", "1536x1024":
		return "16:9"
	case "1024x1792", "1024x1536":
		return "9:16"
	default:
		return ""
	}
}
