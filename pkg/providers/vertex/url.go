package vertex

import "fmt"

const (
	// DefaultGeminiBaseURL serves the Gemini developer API.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

	defaultLocation = "us-central1"
)

// vertexHost returns the regional Vertex AI endpoint host. The "global"
// location is served from the unprefixed host.
func vertexHost(location string) string {
	if location == "" {
		location = defaultLocation
	}
	if location == "global" {
		return "https://aiplatform.googleapis.com"
	}
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com", location)
}

// vertexModelURL builds a Vertex AI model method URL, e.g. for the verbs
// generateContent, streamGenerateContent, and predict.
func vertexModelURL(projectID, location, model, verb string) string {
	if location == "" {
		location = defaultLocation
	}
	return fmt.Sprintf("%s/v1beta1/projects/%s/locations/%s/publishers/google/models/%s:%s",
		vertexHost(location), projectID, location, model, verb)
}

// geminiModelURL builds a Gemini API model method URL.
func geminiModelURL(baseURL, model, verb string) string {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return fmt.Sprintf("%s/v1beta/models/%s:%s", baseURL, model, verb)
}
