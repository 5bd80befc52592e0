// Package vertex implements the provider adapter for Google Vertex AI and
// the Gemini API.
//
// Both backends share the generateContent payload shapes; they differ only
// in endpoint layout and authentication. Vertex credentials authenticate
// with OAuth2 service-account tokens and address models under a GCP
// project/location; Gemini credentials use a plain API key against
// generativelanguage.googleapis.com.
//
// The adapter translates in both directions:
//
//   - OpenAI chat requests become generateContent requests: system
//     messages fold into systemInstruction, assistant turns get role
//     "model", tool results become functionResponse parts (with the
//     function name recovered from the originating assistant tool call),
//     multimodal parts become inlineData or fileData, and structured
//     output schemas are sanitized (refs inlined, unsupported keywords
//     stripped) into responseSchema.
//
//   - generateContent responses become OpenAI chat completions: thought
//     parts surface as reasoning_content, inline images attach to the
//     message, and functionCall parts become tool_calls with synthesized
//     call ids, since the native protocol has none.
//
// Image generation routes to Imagen's :predict for imagen-* models and to
// chat-based generation with IMAGE response modality otherwise. Embedding
// requests use :predict on Vertex and batchEmbedContents on Gemini.
package vertex
