package types

// Model represents an OpenAI-compatible model object as returned
// by the /v1/models endpoint.
type Model struct {
	// ID is the model identifier clients send in requests.
	ID string `json:"id"`

	// Object is always "model".
	Object string `json:"object"`

	// Created is the Unix timestamp of when the model was registered.
	Created int64 `json:"created"`

	// OwnedBy names the organization providing the model.
	OwnedBy string `json:"owned_by"`
}

// ModelList is the response body for /v1/models.
type ModelList struct {
	// Object is always "list".
	Object string `json:"object"`

	// Data is the list of available models.
	Data []Model `json:"data"`
}
