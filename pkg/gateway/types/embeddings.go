package types

// EmbeddingRequest represents an OpenAI-compatible embedding request.
type EmbeddingRequest struct {
	// Model is the ID of the embedding model to use.
	Model string `json:"model"`

	// Input is the text to embed: a string or an array of strings.
	Input interface{} `json:"input"`

	// EncodingFormat is "float" (default) or "base64".
	EncodingFormat string `json:"encoding_format,omitempty"`

	// Dimensions optionally truncates the output embedding.
	Dimensions *int `json:"dimensions,omitempty"`

	// User is a unique identifier for the end-user making the request.
	User string `json:"user,omitempty"`
}

// Inputs normalizes the input field into a slice of strings.
func (r *EmbeddingRequest) Inputs() []string {
	switch in := r.Input.(type) {
	case string:
		return []string{in}
	case []string:
		return in
	case []interface{}:
		out := make([]string, 0, len(in))
		for _, v := range in {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Validate validates the embedding request.
func (r *EmbeddingRequest) Validate() error {
	if r.Model == "" {
		return &ValidationError{Field: "model", Message: "model is required"}
	}
	if len(r.Inputs()) == 0 {
		return &ValidationError{Field: "input", Message: "input must contain at least one string"}
	}
	return nil
}

// EmbeddingResponse represents an OpenAI-compatible embedding response.
type EmbeddingResponse struct {
	// Object is always "list".
	Object string `json:"object"`

	// Data is the list of embedding objects, one per input.
	Data []Embedding `json:"data"`

	// Model is the model used for the embeddings.
	Model string `json:"model"`

	// Usage contains token usage statistics.
	Usage Usage `json:"usage"`
}

// Embedding is a single embedding vector.
type Embedding struct {
	// Object is always "embedding".
	Object string `json:"object"`

	// Index is the position of this embedding in the input list.
	Index int `json:"index"`

	// Embedding is the vector of floats.
	Embedding []float64 `json:"embedding"`
}
