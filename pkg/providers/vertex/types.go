package vertex

// Native request and response types for the generateContent API family.
// Only the fields the gateway uses are modeled.

// GenerateRequest is a generateContent request body.
type GenerateRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	ToolConfig        *ToolConfig       `json:"toolConfig,omitempty"`
}

// Content is a single conversation turn. Roles are "user" and "model".
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is one element of a content turn. Exactly one payload field is set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	InlineData       *Blob             `json:"inlineData,omitempty"`
	FileData         *FileData         `json:"fileData,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`

	// Thought marks reasoning output parts in responses.
	Thought bool `json:"thought,omitempty"`
}

// Blob is inline binary data, base64 encoded.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// FileData references external data by URI.
type FileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

// FunctionCall is a model-issued function invocation.
type FunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// FunctionResponse is a client-supplied function result.
type FunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

// GenerationConfig carries sampling and output parameters.
type GenerationConfig struct {
	Temperature        *float64               `json:"temperature,omitempty"`
	TopP               *float64               `json:"topP,omitempty"`
	MaxOutputTokens    *int                   `json:"maxOutputTokens,omitempty"`
	CandidateCount     *int                   `json:"candidateCount,omitempty"`
	Seed               *int                   `json:"seed,omitempty"`
	PresencePenalty    *float64               `json:"presencePenalty,omitempty"`
	FrequencyPenalty   *float64               `json:"frequencyPenalty,omitempty"`
	StopSequences      []string               `json:"stopSequences,omitempty"`
	ResponseMimeType   string                 `json:"responseMimeType,omitempty"`
	ResponseSchema     map[string]interface{} `json:"responseSchema,omitempty"`
	ResponseModalities []string               `json:"responseModalities,omitempty"`
	ImageConfig        *ImageConfig           `json:"imageConfig,omitempty"`
}

// ImageConfig tunes chat-based image generation.
type ImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// Tool groups function declarations.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

// FunctionDeclaration describes one callable function.
type FunctionDeclaration struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// ToolConfig controls function calling behavior.
type ToolConfig struct {
	FunctionCallingConfig FunctionCallingConfig `json:"functionCallingConfig"`
}

// FunctionCallingConfig selects the function calling mode:
// AUTO, ANY, or NONE.
type FunctionCallingConfig struct {
	Mode                 string   `json:"mode"`
	AllowedFunctionNames []string `json:"allowedFunctionNames,omitempty"`
}

// GenerateResponse is a generateContent response body (also the shape of
// each streaming chunk).
type GenerateResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
	Index        int     `json:"index,omitempty"`
}

// UsageMetadata is the native token accounting.
type UsageMetadata struct {
	PromptTokenCount        int `json:"promptTokenCount"`
	CandidatesTokenCount    int `json:"candidatesTokenCount"`
	TotalTokenCount         int `json:"totalTokenCount"`
	ThoughtsTokenCount      int `json:"thoughtsTokenCount,omitempty"`
	CachedContentTokenCount int `json:"cachedContentTokenCount,omitempty"`
	ToolUsePromptTokenCount int `json:"toolUsePromptTokenCount,omitempty"`
}

// PredictRequest is the :predict request body used by Imagen and Vertex
// embedding models.
type PredictRequest struct {
	Instances  []map[string]interface{} `json:"instances"`
	Parameters map[string]interface{}   `json:"parameters,omitempty"`
}

// PredictResponse is the :predict response body.
type PredictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Prediction is one :predict output row.
type Prediction struct {
	// BytesBase64Encoded is the Imagen image payload.
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`

	// MimeType is the Imagen image mime type.
	MimeType string `json:"mimeType,omitempty"`

	// Embeddings is the embedding-model output.
	Embeddings *PredictionEmbeddings `json:"embeddings,omitempty"`
}

// PredictionEmbeddings holds an embedding vector with statistics.
type PredictionEmbeddings struct {
	Values     []float64            `json:"values"`
	Statistics *EmbeddingStatistics `json:"statistics,omitempty"`
}

// EmbeddingStatistics carries per-input token accounting.
type EmbeddingStatistics struct {
	TokenCount int `json:"token_count"`
}

// BatchEmbedRequest is the Gemini API batchEmbedContents request body.
type BatchEmbedRequest struct {
	Requests []EmbedContentRequest `json:"requests"`
}

// EmbedContentRequest embeds a single content item.
type EmbedContentRequest struct {
	Model                string  `json:"model"`
	Content              Content `json:"content"`
	OutputDimensionality *int    `json:"outputDimensionality,omitempty"`
}

// BatchEmbedResponse is the Gemini API batchEmbedContents response body.
type BatchEmbedResponse struct {
	Embeddings []ContentEmbedding `json:"embeddings"`
}

// ContentEmbedding is one embedding vector.
type ContentEmbedding struct {
	Values []float64 `json:"values"`
}
