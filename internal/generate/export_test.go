package generate

// Exports for testing. These allow black-box tests to reach internal
// classification logic without widening the public API.
var (
	ClassifyStatus         = classifyStatus
	ClassifyTransport      = classifyTransport
	ClassifyAnthropicError = classifyAnthropicError
	ClassifyOpenAIError    = classifyOpenAIError
)
