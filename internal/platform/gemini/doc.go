// Package gemini provides a generation.Backend that sends prompts to Google's
// Gemini API through the google.golang.org/genai client.
//
// The backend performs a single request per Complete call. Timeouts, retries
// and parsing of the returned text belong to the generation pipeline; this
// package only translates transport outcomes into generation errors:
//
//   - responses stopped by safety filters map to generation.ErrContentBlocked
//   - empty candidates map to generation.ErrEmptyResponse
//   - any other client failure maps to generation.ErrBackend
package gemini
