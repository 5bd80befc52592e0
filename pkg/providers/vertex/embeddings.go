package vertex

import (
	"context"

	"auto-ai/router/pkg/gateway/types"
	"auto-ai/router/pkg/providers"
)

// Embeddings handles embedding requests. Vertex embedding models expose
// the :predict surface; the Gemini API uses batchEmbedContents.
func (p *Provider) Embeddings(ctx context.Context, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error) {
	if p.Config().Type == providers.TypeGemini {
		return p.geminiEmbeddings(ctx, req)
	}
	return p.vertexEmbeddings(ctx, req)
}

func (p *Provider) vertexEmbeddings(ctx context.Context, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error) {
	inputs := req.Inputs()
	instances := make([]map[string]interface{}, 0, len(inputs))
	for _, input := range inputs {
		instances = append(instances, map[string]interface{}{"content": input})
	}

	native := &PredictRequest{Instances: instances}
	if req.Dimensions != nil {
		native.Parameters = map[string]interface{}{"outputDimensionality": *req.Dimensions}
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

	out := &types.EmbeddingResponse{Object: "list", Model: req.Model}
	totalTokens := 0
	for i, prediction := range resp.Predictions {
		if prediction.Embeddings == nil {
			continue
		}
		out.Data = append(out.Data, types.Embedding{
			Object:    "embedding",
			Index:     i,
			Embedding: prediction.Embeddings.Values,
		})
		if prediction.Embeddings.Statistics != nil {
			totalTokens += prediction.Embeddings.Statistics.TokenCount
		}
	}
	out.Usage = types.Usage{PromptTokens: totalTokens, TotalTokens: totalTokens}
	return out, nil
}

func (p *Provider) geminiEmbeddings(ctx context.Context, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error) {
	inputs := req.Inputs()
	native := &BatchEmbedRequest{Requests: make([]EmbedContentRequest, 0, len(inputs))}
	for _, input := range inputs {
		native.Requests = append(native.Requests, EmbedContentRequest{
			Model:                "models/" + req.Model,
			Content:              Content{Parts: []Part{{Text: input}}},
			OutputDimensionality: req.Dimensions,
		})
	}

	headers, err := p.headers(ctx)
	if err != nil {
		return nil, err
	}

	var resp BatchEmbedResponse
	url := p.modelURL(req.Model, "batchEmbedContents")
	if err := p.DoJSON(ctx, "POST", url, native, &resp, headers); err != nil {
		return nil, err
	}

	out := &types.EmbeddingResponse{Object: "list", Model: req.Model}
	for i, embedding := range resp.Embeddings {
		out.Data = append(out.Data, types.Embedding{
			Object:    "embedding",
			Index:     i,
			Embedding: embedding.Values,
		})
	}
	return out, nil
}
