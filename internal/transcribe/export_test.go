package transcribe

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// NewTestTranscriber creates an OpenAITranscriber with a mock audioTranscriber.
// This allows testing without a real OpenAI client.
func NewTestTranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	return newTranscriber(client, opts)
}

// Function exports for unit testing internal logic.
var ClassifyError = classifyError
