package types

// ImageGenerationRequest represents an OpenAI-compatible image generation request.
type ImageGenerationRequest struct {
	// Model is the ID of the image model to use.
	Model string `json:"model"`

	// Prompt describes the desired image.
	Prompt string `json:"prompt"`

	// N is the number of images to generate (default 1).
	N *int `json:"n,omitempty"`

	// Size is the requested image size (e.g., "1024x1024", "1792x1024").
	Size string `json:"size,omitempty"`

	// Quality is the requested quality ("standard" or "hd").
	Quality string `json:"quality,omitempty"`

	// ResponseFormat is "url" or "b64_json". Providers behind the gateway
	// return base64 payloads, so "b64_json" is the effective format.
	ResponseFormat string `json:"response_format,omitempty"`

	// User is a unique identifier for the end-user making the request.
	User string `json:"user,omitempty"`
}

// Count returns the number of images to generate, defaulting to 1.
func (r *ImageGenerationRequest) Count() int {
	if r.N == nil || *r.N < 1 {
		return 1
	}
	return *r.N
}

// Validate validates the image generation request.
func (r *ImageGenerationRequest) Validate() error {
	if r.Model == "" {
		return &ValidationError{Field: "model", Message: "model is required"}
	}
	if r.Prompt == "" {
		return &ValidationError{Field: "prompt", Message: "prompt is required"}
	}
	return nil
}

// ImageGenerationResponse represents an OpenAI-compatible image generation response.
type ImageGenerationResponse struct {
	// Created is the Unix timestamp of when the images were created.
	Created int64 `json:"created"`

	// Data holds one entry per generated image.
	Data []ImageData `json:"data"`
}

// ImageData is a single generated image.
type ImageData struct {
	// B64JSON is the base64-encoded image payload.
	B64JSON string `json:"b64_json,omitempty"`

	// URL is set when the provider returns a hosted image URL.
	URL string `json:"url,omitempty"`

	// RevisedPrompt is the prompt actually used, if the provider rewrote it.
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}
